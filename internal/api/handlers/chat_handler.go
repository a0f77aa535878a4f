package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	middleware "github.com/orgmind-ai/orgmind/internal/api/middlewares"
	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/chat_engine"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// ChatService is the slice of the chat engine the handler depends on.
type ChatService interface {
	Chat(ctx context.Context, tenant *models.Tenant, message string, history []core.ChatTurn, stream *chat_engine.EventStream) error
	SaveFeedback(ctx context.Context, tenant *models.Tenant, question, answer string) (string, error)
}

type ChatHandler struct {
	dbclient core.DbClient
	engine   ChatService
	logger   *zap.Logger
}

func NewChatHandler(dbclient core.DbClient, engine ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, engine: engine, logger: logger}
}

type chatRequest struct {
	Message string          `json:"message"`
	History []core.ChatTurn `json:"history"`
}

// Chat streams a grounded answer as server-sent events. Failures before the
// stream begins come back as plain JSON errors; afterwards they are encoded
// as stream events by the engine.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	stream := chat_engine.NewEventStream(w)
	if err := h.engine.Chat(r.Context(), tenant, req.Message, req.History, stream); err != nil {
		// The engine only returns an error while the response is still
		// JSON-able; mid-stream failures are stream events.
		if !stream.Started() {
			writeError(w, statusFor(err), err.Error())
		}
	}
}

// GetChatLogs pages through the tenant's exchange history, optionally
// bounded to today, the last week or the last month.
func (h *ChatHandler) GetChatLogs(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	since := sinceFor(r.URL.Query().Get("dateFilter"), time.Now())

	total, err := h.dbclient.CountChatLogs(r.Context(), tenant.ID, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logs, err := h.dbclient.ListChatLogs(r.Context(), tenant.ID, limit, (page-1)*limit, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	totalPages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, map[string]any{
		"logs": logs,
		"pagination": map[string]int{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": totalPages,
		},
	})
}

type feedbackRequest struct {
	UserQuestion    string `json:"userQuestion"`
	CorrectResponse string `json:"correctResponse"`
}

// SaveFeedback indexes a human-corrected answer so future queries retrieve it.
func (h *ChatHandler) SaveFeedback(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	feedbackID, err := h.engine.SaveFeedback(r.Context(), tenant, req.UserQuestion, req.CorrectResponse)
	if err != nil {
		h.logger.Error("failed to save feedback",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "correct response saved successfully",
		"feedbackId": feedbackID,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// sinceFor converts a date filter name into the lower time bound; the zero
// time means no bound.
func sinceFor(filter string, now time.Time) time.Time {
	switch filter {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}
