package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"waggle_server/models"

	"github.com/SherClockHolmes/webpush-go"
)

// DefaultExpoPushURL is Expo's push send endpoint.
const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// IsExpoPushToken reports whether token is an Expo push token.
func IsExpoPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

// IsWebPushSubscription reports whether token looks like a serialized Web Push subscription.
func IsWebPushSubscription(token string) bool {
	return strings.HasPrefix(strings.TrimSpace(token), "{")
}

// PushRouter picks the transport for a message from the shape of its token.
type PushRouter struct {
	Expo    PushSender
	WebPush PushSender
}

func (r *PushRouter) Send(ctx context.Context, msg models.PushMessage) error {
	switch {
	case IsExpoPushToken(msg.To) && r.Expo != nil:
		return r.Expo.Send(ctx, msg)
	case IsWebPushSubscription(msg.To) && r.WebPush != nil:
		return r.WebPush.Send(ctx, msg)
	}
	return ErrUnsupportedPushToken
}

// ExpoPushSender posts messages to the Expo push service.
type ExpoPushSender struct {
	URL         string
	AccessToken string
	Client      *http.Client
}

type expoTicketResponse struct {
	Data struct {
		Status  string          `json:"status"`
		ID      string          `json:"id"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *ExpoPushSender) Send(ctx context.Context, msg models.PushMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	url := s.URL
	if url == "" {
		url = DefaultExpoPushURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach expo push service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read expo response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("expo push service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var ticket expoTicketResponse
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return fmt.Errorf("failed to decode expo response: %w", err)
	}
	if len(ticket.Errors) > 0 {
		return fmt.Errorf("expo push rejected: %s: %s", ticket.Errors[0].Code, ticket.Errors[0].Message)
	}
	if ticket.Data.Status == "error" {
		return fmt.Errorf("expo push ticket error: %s", ticket.Data.Message)
	}
	return nil
}

// WebPushSender delivers to browser subscriptions with VAPID authentication.
type WebPushSender struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
	HTTPClient      webpush.HTTPClient
}

func (s *WebPushSender) Send(ctx context.Context, msg models.PushMessage) error {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(msg.To), &sub); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedPushToken, err)
	}
	if sub.Endpoint == "" {
		return fmt.Errorf("%w: subscription has no endpoint", ErrUnsupportedPushToken)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": msg.Title,
		"body":  msg.Body,
		"data":  msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	ttl := s.TTL
	if ttl == 0 {
		ttl = 30
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub, &webpush.Options{
		HTTPClient:      s.HTTPClient,
		Subscriber:      s.Subscriber,
		VAPIDPublicKey:  s.VAPIDPublicKey,
		VAPIDPrivateKey: s.VAPIDPrivateKey,
		TTL:             ttl,
	})
	if err != nil {
		return fmt.Errorf("failed to send web push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("web push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
