package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/api"
	"github.com/connectcareer/careerflow/chat"
	"github.com/connectcareer/careerflow/classify"
	"github.com/connectcareer/careerflow/types"
)

// ChatHandler exposes the turn service over HTTP.
type ChatHandler struct {
	service *chat.Service
	logger  *zap.Logger
}

// NewChatHandler creates the handler.
func NewChatHandler(service *chat.Service, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		service: service,
		logger:  logger.With(zap.String("component", "chat_handler")),
	}
}

// Register mounts the chat routes on mux.
func (h *ChatHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/chat/messages", h.HandleMessage)
	mux.HandleFunc("POST /v1/chat/messages/stream", h.HandleMessageStream)
	mux.HandleFunc("POST /v1/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /v1/sessions", h.HandleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}/messages", h.HandleHistory)
	mux.HandleFunc("GET /v1/conversations/recent", h.HandleRecent)
}

// HandleMessage runs one turn and returns the collapsed result.
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTurnRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.ProcessMessage(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	resp := api.MessageResponse{
		Answer:      result.Answer,
		Agent:       result.AgentName,
		Intent:      result.Intent,
		Entities:    result.Entities,
		Suggestions: result.Suggestions,
		MessageID:   result.MessageID,
		Success:     result.Success,
	}
	if result.Retry != nil {
		resp.NeedsRetry = result.Retry.NeedsRetry
		resp.ReachRetryAttemptLimit = result.Retry.ReachRetryAttemptLimit
		resp.ErrorType = string(result.Retry.Kind)
	}
	WriteSuccess(w, resp)
}

// HandleMessageStream runs one turn and relays its events as SSE. Each
// event is one `data:` frame holding the JSON-encoded stream event.
func (h *ChatHandler) HandleMessageStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTurnRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrKindSystemError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for event := range h.service.ProcessMessageStream(r.Context(), req) {
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to encode stream event", zap.Error(err))
			return
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

// HandleCreateSession mints a new session for a user.
func (h *ChatHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "user_id is required")
		return
	}
	WriteSuccess(w, api.CreateSessionResponse{SessionID: h.service.CreateSession(req.UserID)})
}

// HandleListSessions lists the requesting user's sessions.
func (h *ChatHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "user_id is required")
		return
	}

	sessions, err := h.service.GetUserSessions(r.Context(), userID, queryLimit(r, 10))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out := make([]api.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, api.SessionSummary{
			SessionID:     s.SessionID,
			LastMessage:   s.LastMessage,
			LastMessageAt: s.LastMessageAt,
			MessageCount:  s.MessageCount,
		})
	}
	WriteSuccess(w, out)
}

// HandleHistory returns a session's messages, enforcing ownership.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "user_id is required")
		return
	}

	records, err := h.service.GetConversationHistory(r.Context(), userID, sessionID, queryLimit(r, 50))
	if err != nil {
		if errors.Is(err, chat.ErrSessionForbidden) {
			WriteErrorMessage(w, http.StatusForbidden, types.ErrKindDomainError, err.Error())
			return
		}
		WriteError(w, err, h.logger)
		return
	}

	out := make([]api.HistoryMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, api.HistoryMessage{
			ID:        rec.ID,
			Role:      string(rec.Role),
			Message:   rec.Message,
			Intent:    rec.Intent,
			Entities:  rec.Entities,
			Agent:     rec.AgentName,
			CreatedAt: rec.CreatedAt,
		})
	}
	WriteSuccess(w, out)
}

// HandleRecent returns the user's most recent messages across sessions.
func (h *ChatHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "user_id is required")
		return
	}

	records, err := h.service.GetRecentConversations(r.Context(), userID, queryLimit(r, 20))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out := make([]api.HistoryMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, api.HistoryMessage{
			ID:        rec.ID,
			Role:      string(rec.Role),
			Message:   rec.Message,
			Intent:    rec.Intent,
			Agent:     rec.AgentName,
			CreatedAt: rec.CreatedAt,
		})
	}
	WriteSuccess(w, out)
}

func (h *ChatHandler) decodeTurnRequest(w http.ResponseWriter, r *http.Request) (chat.TurnRequest, bool) {
	var req api.MessageRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		return chat.TurnRequest{}, false
	}

	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SessionID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "user_id and session_id are required")
		return chat.TurnRequest{}, false
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "message cannot be empty")
		return chat.TurnRequest{}, false
	}

	turn := chat.TurnRequest{
		UserID:              req.UserID,
		SessionID:           req.SessionID,
		Message:             req.Message,
		ManualRetryAttempts: req.RetryAttempts,
	}
	switch req.Role {
	case "":
	case string(types.RoleCandidate), string(types.RoleRecruiter):
		turn.Profile = &classify.Profile{Role: types.UserRole(req.Role)}
	default:
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrKindDomainError, "role must be candidate or recruiter")
		return chat.TurnRequest{}, false
	}
	return turn, true
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
