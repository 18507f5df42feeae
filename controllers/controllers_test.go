package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"waggle_server/models"
	"waggle_server/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLikeWriter struct {
	dogID, targetDogID string
	err                error
}

func (f *fakeLikeWriter) AddLike(ctx context.Context, dogID, targetDogID string) (*models.LikeRecord, error) {
	f.dogID, f.targetDogID = dogID, targetDogID
	if f.err != nil {
		return nil, f.err
	}
	return &models.LikeRecord{DogID: dogID, Likes: []string{targetDogID}}, nil
}

type fakeMatchManager struct {
	match      *models.Match
	matches    []models.Match
	page       *models.UserMatchPage
	details    *models.MatchDetails
	err        error
	lastUser   string
	lastStatus models.MatchStatus
	lastOpts   services.UserMatchesOptions
}

func (f *fakeMatchManager) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return f.match, f.err
}

func (f *fakeMatchManager) GetMatchesForDog(ctx context.Context, dogID string) ([]models.Match, error) {
	return f.matches, f.err
}

func (f *fakeMatchManager) GetUserMatches(ctx context.Context, userID string, opts services.UserMatchesOptions) (*models.UserMatchPage, error) {
	f.lastUser, f.lastOpts = userID, opts
	return f.page, f.err
}

func (f *fakeMatchManager) GetMatchDetails(ctx context.Context, matchID string) (*models.MatchDetails, error) {
	return f.details, f.err
}

func (f *fakeMatchManager) UpdateMatchStatus(ctx context.Context, matchID, userID string, status models.MatchStatus) (*models.Match, error) {
	f.lastUser, f.lastStatus = userID, status
	if f.err != nil {
		return nil, f.err
	}
	updated := *f.match
	updated.Status = status
	return &updated, nil
}

type fakeLikeHandler struct {
	event    models.LikeEvent
	deadline bool
	err      error
}

func (f *fakeLikeHandler) HandleLikeUpdate(ctx context.Context, event models.LikeEvent) (*services.HandleResult, error) {
	f.event = event
	_, f.deadline = ctx.Deadline()
	return &services.HandleResult{EventID: "evt-1", NewLikes: []string{"B"}, MatchesCreated: []string{"A#B"}}, f.err
}

func matchRouter(m MatchManager) *mux.Router {
	c := NewMatchController(m)
	r := mux.NewRouter()
	r.HandleFunc("/api/match", c.GetMatches).Methods("GET")
	r.HandleFunc("/api/match/user/{userId}", c.GetUserMatches).Methods("GET")
	r.HandleFunc("/api/match/{matchId}", c.GetMatch).Methods("GET")
	r.HandleFunc("/api/match/{matchId}/details", c.GetMatchDetails).Methods("GET")
	r.HandleFunc("/api/match/{matchId}/status", c.UpdateStatus).Methods("PATCH")
	return r
}

func TestHandleLike(t *testing.T) {
	likes := &fakeLikeWriter{}
	c := NewActionController(likes)

	rec := httptest.NewRecorder()
	c.HandleLike(rec, httptest.NewRequest(http.MethodPost, "/api/action/like", strings.NewReader(`{"dogId":"A","targetDogId":"B"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", likes.dogID)
	assert.Equal(t, "B", likes.targetDogID)
	assert.JSONEq(t, `{"message":"Dog liked successfully","likes":["B"]}`, rec.Body.String())
}

func TestHandleLike_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"malformed", `{"dogId":`, nil},
		{"missing target", `{"dogId":"A"}`, nil},
		{"self like", `{"dogId":"A","targetDogId":"A"}`, services.ErrInvalidLike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewActionController(&fakeLikeWriter{err: tt.err})
			rec := httptest.NewRecorder()
			c.HandleLike(rec, httptest.NewRequest(http.MethodPost, "/api/action/like", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetMatches(t *testing.T) {
	r := matchRouter(&fakeMatchManager{matches: []models.Match{{MatchID: "A#B", Status: models.MatchStatusPending}}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match?dogId=A", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matches []models.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Matches, 1)
	assert.Equal(t, "A#B", body.Matches[0].MatchID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMatch_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrDogNotFound, http.StatusNotFound},
		{services.ErrUnauthorized, http.StatusForbidden},
		{services.ErrInvalidTransition, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			matchRouter(&fakeMatchManager{err: tt.err}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match/A%23B", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	m := &fakeMatchManager{match: &models.Match{MatchID: "A#B", Status: models.MatchStatusPending}}
	r := matchRouter(m)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/match/A%23B/status", strings.NewReader(`{"userId":"owner-b","status":"accepted"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-b", m.lastUser)
	assert.Equal(t, models.MatchStatusAccepted, m.lastStatus)

	for _, body := range []string{`{"userId":"owner-b","status":"pending"}`, `{"userId":"owner-b","status":"swiped"}`, `{"status":"accepted"}`} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/match/A%23B/status", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestGetUserMatches(t *testing.T) {
	m := &fakeMatchManager{page: &models.UserMatchPage{
		Matches: []models.UserMatch{{Match: models.Match{MatchID: "A#B"}, Type: models.MatchDirectionSent}},
		HasMore: true,
	}}
	r := matchRouter(m)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match/user/u1?status=accepted&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", m.lastUser)
	assert.Equal(t, services.UserMatchesOptions{Status: models.MatchStatusAccepted, Limit: 5}, m.lastOpts)

	var page models.UserMatchPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.True(t, page.HasMore)
	require.Len(t, page.Matches, 1)
	assert.Equal(t, models.MatchDirectionSent, page.Matches[0].Type)

	for _, query := range []string{"?status=swiped", "?limit=0", "?limit=ten"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match/user/u1"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetMatchDetails(t *testing.T) {
	r := matchRouter(&fakeMatchManager{details: &models.MatchDetails{
		Match: models.Match{MatchID: "A#B"},
		Dog1:  &models.DogProfile{DogID: "A", Name: "Biscuit", OwnerID: "owner-a"},
		Dog2:  &models.DogProfile{DogID: "B", Name: "Mochi", OwnerID: "owner-b"},
	}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match/A%23B/details", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var details models.MatchDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "A#B", details.MatchID)
	assert.Equal(t, "Mochi", details.Dog2.Name)
}

type fakeInbox struct {
	page                   *models.NotificationPage
	err                    error
	userID, cursor, readID string
	limit                  int32
}

func (f *fakeInbox) GetUserNotifications(ctx context.Context, userID, cursor string, limit int32) (*models.NotificationPage, error) {
	f.userID, f.cursor, f.limit = userID, cursor, limit
	return f.page, f.err
}

func (f *fakeInbox) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	f.readID, f.userID = notificationID, userID
	return f.err
}

func (f *fakeInbox) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	f.userID = userID
	return 3, f.err
}

func notificationRouter(inbox NotificationInbox) *mux.Router {
	c := NewNotificationController(inbox)
	r := mux.NewRouter()
	r.HandleFunc("/api/notifications/{userId}", c.GetNotifications).Methods("GET")
	r.HandleFunc("/api/notifications/{userId}/read", c.MarkAllAsRead).Methods("PATCH")
	r.HandleFunc("/api/notifications/{userId}/{notificationId}/read", c.MarkAsRead).Methods("PATCH")
	return r
}

func TestGetNotifications(t *testing.T) {
	inbox := &fakeInbox{page: &models.NotificationPage{
		Notifications: []models.Notification{{ID: "n1", UserID: "u1", Type: models.NotificationTypeMatchRequest}},
	}}
	r := notificationRouter(inbox)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/u1?limit=5&cursor=c1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", inbox.userID)
	assert.Equal(t, "c1", inbox.cursor)
	assert.Equal(t, int32(5), inbox.limit)
	assert.Contains(t, rec.Body.String(), `"id":"n1"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/u1?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	notificationRouter(&fakeInbox{err: services.ErrInvalidCursor}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/notifications/u1?cursor=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkNotificationsRead(t *testing.T) {
	inbox := &fakeInbox{}
	r := notificationRouter(inbox)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/u1/n1/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "n1", inbox.readID)
	assert.Equal(t, "u1", inbox.userID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/u2/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", inbox.userID)
	assert.JSONEq(t, `{"marked":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	notificationRouter(&fakeInbox{err: services.ErrNotificationNotFound}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPatch, "/api/notifications/u1/n9/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerHandleLikeUpdate(t *testing.T) {
	handler := &fakeLikeHandler{}
	c := NewTriggerController(handler, time.Minute)

	rec := httptest.NewRecorder()
	c.HandleLikeUpdate(rec, httptest.NewRequest(http.MethodPost, "/api/triggers/likes",
		strings.NewReader(`{"dogId":"A","before":{"likes":[]},"after":{"likes":["B"]}}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", handler.event.DogID)
	assert.Equal(t, []string{"B"}, handler.event.After.Likes)
	assert.True(t, handler.deadline)
	assert.JSONEq(t, `{"eventId":"evt-1","newLikes":["B"],"matchesCreated":["A#B"],"skipped":0}`, rec.Body.String())
}

func TestTriggerHandleLikeUpdate_Errors(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTriggerController(&fakeLikeHandler{}, 0).HandleLikeUpdate(rec,
		httptest.NewRequest(http.MethodPost, "/api/triggers/likes", strings.NewReader(`{"after":{"likes":["B"]}}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	NewTriggerController(&fakeLikeHandler{err: errors.New("throttled")}, 0).HandleLikeUpdate(rec,
		httptest.NewRequest(http.MethodPost, "/api/triggers/likes", strings.NewReader(`{"dogId":"A","after":{"likes":["B"]}}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "matchesCreated")
}

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
