package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	middleware "github.com/orgmind-ai/orgmind/internal/api/middlewares"
	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/chat_engine"
	"github.com/orgmind-ai/orgmind/internal/models"
)

type stubChatService struct {
	chatCalls     int
	feedbackCalls int
	feedbackID    string
	err           error

	gotMessage string
	gotHistory []core.ChatTurn
}

func (s *stubChatService) Chat(_ context.Context, _ *models.Tenant, message string, history []core.ChatTurn, stream *chat_engine.EventStream) error {
	s.chatCalls++
	s.gotMessage = message
	s.gotHistory = history
	if s.err != nil {
		return s.err
	}
	stream.Begin()
	_ = stream.Fragment("ok")
	_ = stream.Sources(nil)
	return stream.End()
}

func (s *stubChatService) SaveFeedback(_ context.Context, _ *models.Tenant, _, _ string) (string, error) {
	s.feedbackCalls++
	if s.err != nil {
		return "", s.err
	}
	return s.feedbackID, nil
}

type stubLogStore struct {
	core.DbClient

	logs  []models.ChatLog
	total int

	gotLimit  int
	gotOffset int
	gotSince  time.Time
}

func (s *stubLogStore) CountChatLogs(_ context.Context, _ string, since time.Time) (int, error) {
	s.gotSince = since
	return s.total, nil
}

func (s *stubLogStore) ListChatLogs(_ context.Context, _ string, limit, offset int, since time.Time) ([]models.ChatLog, error) {
	s.gotLimit = limit
	s.gotOffset = offset
	s.gotSince = since
	return s.logs, nil
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	tenant := &models.Tenant{ID: "tenant-1", Name: "Acme"}
	return r.WithContext(middleware.WithTenant(r.Context(), tenant))
}

func TestChatHandlerRejectsEmptyMessage(t *testing.T) {
	svc := &stubChatService{}
	h := NewChatHandler(&stubLogStore{}, svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Chat(rec, authedRequest(http.MethodPost, "/api/chat", `{"message":"   "}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, svc.chatCalls)
	require.Contains(t, rec.Body.String(), "message is required")
}

func TestChatHandlerRejectsMalformedBody(t *testing.T) {
	svc := &stubChatService{}
	h := NewChatHandler(&stubLogStore{}, svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Chat(rec, authedRequest(http.MethodPost, "/api/chat", "{not json"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, svc.chatCalls)
}

func TestChatHandlerRequiresTenant(t *testing.T) {
	svc := &stubChatService{}
	h := NewChatHandler(&stubLogStore{}, svc, zap.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	h.Chat(rec, r)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, svc.chatCalls)
}

func TestChatHandlerStreamsThroughService(t *testing.T) {
	svc := &stubChatService{}
	h := NewChatHandler(&stubLogStore{}, svc, zap.NewNop())

	body := `{"message":"hello","history":[{"role":"user","content":"earlier"}]}`
	rec := httptest.NewRecorder()
	h.Chat(rec, authedRequest(http.MethodPost, "/api/chat", body))

	require.Equal(t, 1, svc.chatCalls)
	require.Equal(t, "hello", svc.gotMessage)
	require.Len(t, svc.gotHistory, 1)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "data: [DONE]\n\n")
}

func TestChatHandlerPreStreamFailureIsJSON(t *testing.T) {
	svc := &stubChatService{err: context.DeadlineExceeded}
	h := NewChatHandler(&stubLogStore{}, svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Chat(rec, authedRequest(http.MethodPost, "/api/chat", `{"message":"hello"}`))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":true`)
	require.NotContains(t, rec.Body.String(), "[DONE]")
}

func TestGetChatLogsPagination(t *testing.T) {
	store := &stubLogStore{total: 45, logs: []models.ChatLog{{ID: "l1", TenantID: "tenant-1"}}}
	h := NewChatHandler(store, &stubChatService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.GetChatLogs(rec, authedRequest(http.MethodGet, "/api/chat/logs?page=3&limit=10", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10, store.gotLimit)
	require.Equal(t, 20, store.gotOffset)

	body := rec.Body.String()
	require.Contains(t, body, `"total":45`)
	require.Contains(t, body, `"page":3`)
	require.Contains(t, body, `"totalPages":5`)
	require.True(t, store.gotSince.IsZero())
}

func TestGetChatLogsClampsBadParams(t *testing.T) {
	store := &stubLogStore{}
	h := NewChatHandler(store, &stubChatService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.GetChatLogs(rec, authedRequest(http.MethodGet, "/api/chat/logs?page=-2&limit=9999", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 20, store.gotLimit)
	require.Equal(t, 0, store.gotOffset)
}

func TestGetChatLogsDateFilter(t *testing.T) {
	store := &stubLogStore{}
	h := NewChatHandler(store, &stubChatService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.GetChatLogs(rec, authedRequest(http.MethodGet, "/api/chat/logs?dateFilter=week", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, store.gotSince.IsZero())
	require.WithinDuration(t, time.Now().AddDate(0, 0, -7), store.gotSince, time.Minute)
}

func TestSinceFor(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), sinceFor("today", now))
	require.Equal(t, now.AddDate(0, 0, -7), sinceFor("week", now))
	require.Equal(t, now.AddDate(0, 0, -30), sinceFor("month", now))
	require.True(t, sinceFor("all", now).IsZero())
	require.True(t, sinceFor("", now).IsZero())
}

func TestSaveFeedbackHandler(t *testing.T) {
	svc := &stubChatService{feedbackID: "feedback_tenant-1_1700000000000"}
	h := NewChatHandler(&stubLogStore{}, svc, zap.NewNop())

	body := `{"userQuestion":"q","correctResponse":"a"}`
	rec := httptest.NewRecorder()
	h.SaveFeedback(rec, authedRequest(http.MethodPost, "/api/chat/feedback", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.feedbackCalls)
	require.Contains(t, rec.Body.String(), `"success":true`)
	require.Contains(t, rec.Body.String(), `"feedbackId":"feedback_tenant-1_1700000000000"`)
}
