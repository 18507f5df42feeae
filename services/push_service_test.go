package services

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"waggle_server/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushTokenShapes(t *testing.T) {
	assert.True(t, IsExpoPushToken("ExponentPushToken[xxxxxxxx]"))
	assert.True(t, IsExpoPushToken("ExpoPushToken[xxxxxxxx]"))
	assert.False(t, IsExpoPushToken("ExponentPushToken[xxxx"))
	assert.False(t, IsExpoPushToken("fcm:abc"))

	assert.True(t, IsWebPushSubscription(` {"endpoint":"https://push.example"}`))
	assert.False(t, IsWebPushSubscription("ExponentPushToken[x]"))
}

func TestPushRouter_Send(t *testing.T) {
	expo, web := &fakePush{}, &fakePush{}
	r := &PushRouter{Expo: expo, WebPush: web}
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, models.PushMessage{To: "ExponentPushToken[a]"}))
	require.NoError(t, r.Send(ctx, models.PushMessage{To: `{"endpoint":"https://push.example"}`}))
	assert.ErrorIs(t, r.Send(ctx, models.PushMessage{To: "apns-device-token"}), ErrUnsupportedPushToken)

	assert.Len(t, expo.sent, 1)
	assert.Len(t, web.sent, 1)
}

func TestPushRouter_WebPushDisabled(t *testing.T) {
	r := &PushRouter{Expo: &fakePush{}}
	err := r.Send(context.Background(), models.PushMessage{To: `{"endpoint":"https://push.example"}`})
	assert.ErrorIs(t, err, ErrUnsupportedPushToken)
}

func TestExpoPushSender_Send(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"status":"ok","id":"ticket-1"}}`))
	}))
	defer srv.Close()

	s := &ExpoPushSender{URL: srv.URL, AccessToken: "secret", Client: srv.Client()}
	err := s.Send(context.Background(), models.PushMessage{
		To:    "ExponentPushToken[a]",
		Title: MatchNotificationTitle,
		Body:  "Biscuit and Mochi liked each other. Say hi!",
		Data:  map[string]string{"matchId": "A#B", "type": models.NotificationTypeMatchRequest},
		Sound: "default",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "ExponentPushToken[a]", got["to"])
	assert.Equal(t, MatchNotificationTitle, got["title"])
	assert.Equal(t, "default", got["sound"])
	assert.Equal(t, map[string]interface{}{"matchId": "A#B", "type": "match_request"}, got["data"])
}

func TestExpoPushSender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http status", http.StatusTooManyRequests, `rate limited`, "returned 429"},
		{"request error", http.StatusOK, `{"errors":[{"code":"VALIDATION_ERROR","message":"bad to"}]}`, "VALIDATION_ERROR"},
		{"ticket error", http.StatusOK, `{"data":{"status":"error","message":"DeviceNotRegistered"}}`, "DeviceNotRegistered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := &ExpoPushSender{URL: srv.URL, Client: srv.Client()}
			err := s.Send(context.Background(), models.PushMessage{To: "ExponentPushToken[a]"})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWebPushSender_RejectsBadSubscription(t *testing.T) {
	s := &WebPushSender{}
	err := s.Send(context.Background(), models.PushMessage{To: `{"keys":{}}`})
	assert.ErrorIs(t, err, ErrUnsupportedPushToken)

	err = s.Send(context.Background(), models.PushMessage{To: `{not json`})
	assert.ErrorIs(t, err, ErrUnsupportedPushToken)
}

func TestWebPushSender_Send(t *testing.T) {
	var ttl, encoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl = r.Header.Get("TTL")
		encoding = r.Header.Get("Content-Encoding")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	clientKey, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	authSecret := make([]byte, 16)
	_, err = rand.Read(authSecret)
	require.NoError(t, err)

	sub, err := json.Marshal(webpush.Subscription{
		Endpoint: srv.URL,
		Keys: webpush.Keys{
			P256dh: base64.RawURLEncoding.EncodeToString(clientKey.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(authSecret),
		},
	})
	require.NoError(t, err)

	s := &WebPushSender{
		VAPIDPublicKey:  publicKey,
		VAPIDPrivateKey: privateKey,
		Subscriber:      "mailto:test@waggle.app",
		HTTPClient:      srv.Client(),
	}
	err = s.Send(context.Background(), models.PushMessage{
		To:    string(sub),
		Title: MatchNotificationTitle,
		Data:  map[string]string{"matchId": "A#B"},
	})
	require.NoError(t, err)
	assert.Equal(t, "30", ttl)
	assert.Equal(t, "aes128gcm", encoding)
}
