// Package chat is the turn boundary of the engine: it owns conversation
// history, drives the pipeline for each incoming message, and translates
// pipeline progress into the outgoing event stream.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/classify"
	"github.com/connectcareer/careerflow/internal/metrics"
	"github.com/connectcareer/careerflow/llm/tokenizer"
	"github.com/connectcareer/careerflow/memory"
	"github.com/connectcareer/careerflow/persistence"
	"github.com/connectcareer/careerflow/pipeline"
	"github.com/connectcareer/careerflow/stream"
	"github.com/connectcareer/careerflow/types"
)

// DefaultHistoryTokenBudget bounds how much prior conversation is replayed
// into a turn.
const DefaultHistoryTokenBudget = 4000

// ErrSessionForbidden is returned when a session is read by a user it does
// not belong to.
var ErrSessionForbidden = errors.New("session does not belong to user")

// Options carries the service's optional collaborators.
type Options struct {
	// Episodic, when set, receives one event per persisted message.
	Episodic memory.Episodic
	// Tokenizer measures history against the token budget. Defaults to the
	// dependency-free estimator.
	Tokenizer tokenizer.Tokenizer
	// HistoryTokenBudget defaults to DefaultHistoryTokenBudget.
	HistoryTokenBudget int
	// Metrics, when set, receives per-turn observations.
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Service processes conversation turns end to end.
type Service struct {
	pipeline      *pipeline.Pipeline
	conversations persistence.ConversationStore
	episodic      memory.Episodic
	tokenizer     tokenizer.Tokenizer
	historyBudget int
	metrics       *metrics.Collector
	logger        *zap.Logger
}

// NewService creates the turn service.
func NewService(p *pipeline.Pipeline, conversations persistence.ConversationStore, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tok := opts.Tokenizer
	if tok == nil {
		tok = tokenizer.Estimator{}
	}
	budget := opts.HistoryTokenBudget
	if budget <= 0 {
		budget = DefaultHistoryTokenBudget
	}
	return &Service{
		pipeline:      p,
		conversations: conversations,
		episodic:      opts.Episodic,
		tokenizer:     tok,
		historyBudget: budget,
		metrics:       opts.Metrics,
		logger:        logger.With(zap.String("component", "chat_service")),
	}
}

// TurnRequest describes one incoming user message.
type TurnRequest struct {
	UserID    string
	SessionID string
	Message   string
	// Profile short-circuits role classification when the caller already
	// knows the user's persona.
	Profile *classify.Profile
	// ManualRetryAttempts counts how many times the caller already retried
	// this turn; it feeds the retry decision on the error event.
	ManualRetryAttempts int
}

// ProcessMessageStream runs the turn and returns its event stream. The
// channel is unbuffered and closed after exactly one terminal event; a
// consumer that stops reading must cancel ctx to release the turn.
func (s *Service) ProcessMessageStream(ctx context.Context, req TurnRequest) <-chan stream.Event {
	producer := stream.NewProducer()
	go s.runTurn(ctx, producer, req)
	return producer.Events()
}

// TurnResult is the collapsed outcome of a non-streaming turn.
type TurnResult struct {
	Answer      string               `json:"answer"`
	AgentName   string               `json:"agent_name,omitempty"`
	Intent      string               `json:"intent,omitempty"`
	Entities    map[string]any       `json:"entities,omitempty"`
	Suggestions []string             `json:"suggestions,omitempty"`
	MessageID   string               `json:"message_id,omitempty"`
	Success     bool                 `json:"success"`
	Retry       *types.RetryDecision `json:"retry,omitempty"`
}

// ProcessMessage runs the turn without exposing the stream, draining it
// into a single result.
func (s *Service) ProcessMessage(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	result := &TurnResult{}
	for event := range s.ProcessMessageStream(ctx, req) {
		switch event.Type {
		case stream.EventChunk:
			result.Answer += event.Data.Content
		case stream.EventSuggestions:
			result.Suggestions = event.Data.Suggestions
		case stream.EventComplete:
			result.Success = true
			result.AgentName = event.Data.Agent
			result.Intent = event.Data.Intent
			result.Entities = event.Data.Entities
			result.MessageID = event.Data.MessageID
		case stream.EventError:
			result.Success = false
			result.Answer = event.Data.Content
			result.Retry = &types.RetryDecision{
				NeedsRetry:             event.Data.NeedsRetry,
				ReachRetryAttemptLimit: event.Data.ReachRetryAttemptLimit,
				Kind:                   types.ErrorKind(event.Data.ErrorType),
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) runTurn(ctx context.Context, producer *stream.Producer, req TurnRequest) {
	defer producer.Close()
	start := time.Now()

	acc := stream.NewAccumulator()
	listener := &turnListener{ctx: ctx, producer: producer, acc: acc}

	state := s.prepareState(ctx, req)
	s.persistUserMessage(ctx, req, state)

	state, runErr := s.pipeline.Run(ctx, state, req.Profile, listener)

	answer := acc.FinalAnswer()
	if answer == "" {
		answer = state.Answer
	}

	if runErr != nil || answer == "" || (state.Error != "" && answer == pipeline.Apology) {
		s.finishWithError(ctx, producer, req, state, runErr, start)
		return
	}

	messageID := s.persistAssistantMessage(ctx, req, state, answer)
	if err := s.pipeline.ClearCheckpoint(ctx, req.SessionID); err != nil {
		s.logger.Warn("failed to clear turn checkpoint",
			zap.String("session_id", req.SessionID), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordTurn("complete", time.Since(start))
		if state.Intent != nil && state.AgentName != "" {
			s.metrics.RecordRoute(state.Intent.Intent, state.AgentName)
		}
	}

	if state.AgentResult != nil && len(state.AgentResult.NextSteps) > 0 {
		_ = producer.Emit(ctx, stream.Event{
			Type: stream.EventSuggestions,
			Data: stream.EventData{Suggestions: state.AgentResult.NextSteps},
		})
	}

	completedAt := time.Now()
	data := stream.EventData{
		Agent:       state.AgentName,
		IsDone:      true,
		MessageID:   messageID,
		CompletedAt: &completedAt,
		Metadata: map[string]any{
			"executionTimeMs": time.Since(start).Milliseconds(),
			"role":            string(state.Role),
		},
	}
	if state.Intent != nil {
		data.Intent = state.Intent.Intent
		data.Entities = state.Intent.Entities
		data.Metadata["requiresClarification"] = state.Intent.RequiresClarification
	}
	_ = producer.Emit(ctx, stream.Event{Type: stream.EventComplete, Data: data})
}

// prepareState either resumes an interrupted turn for this session and
// message, or starts a fresh one seeded with the trimmed history.
func (s *Service) prepareState(ctx context.Context, req TurnRequest) *pipeline.State {
	if existing, err := s.pipeline.Resume(ctx, req.SessionID); err == nil {
		if len(existing.CompletedStages) < len(pipeline.Stages) && existing.LastUserText() == req.Message {
			s.logger.Info("resuming interrupted turn",
				zap.String("session_id", req.SessionID),
				zap.String("turn_id", existing.TurnID),
				zap.Int("completed_stages", len(existing.CompletedStages)))
			return existing
		}
	}

	messages := append(s.loadHistory(ctx, req.SessionID), types.NewUserMessage(req.Message))
	return &pipeline.State{
		ThreadID: req.SessionID,
		TurnID:   uuid.NewString(),
		UserID:   req.UserID,
		Messages: messages,
	}
}

// loadHistory replays the session's persisted messages, trimmed from the
// oldest end to fit the token budget.
func (s *Service) loadHistory(ctx context.Context, sessionID string) []types.Message {
	records, err := s.conversations.FindBySessionID(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load conversation history",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}

	messages := make([]types.Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, types.Message{
			Role:      rec.Role,
			Content:   rec.Message,
			Timestamp: rec.CreatedAt,
		})
	}

	// Walk from the newest message back until the budget is spent.
	used := 0
	cut := 0
	for i := len(messages) - 1; i >= 0; i-- {
		used += s.tokenizer.CountTokens(messages[i].Content)
		if used > s.historyBudget {
			cut = i + 1
			break
		}
	}
	return messages[cut:]
}

func (s *Service) persistUserMessage(ctx context.Context, req TurnRequest, state *pipeline.State) {
	rec := &persistence.ConversationRecord{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Role:      types.RoleUser,
		Message:   req.Message,
		TurnKey:   state.TurnID + ":user",
	}
	if err := s.conversations.Create(ctx, rec); err != nil {
		s.logger.Warn("failed to persist user message",
			zap.String("session_id", req.SessionID), zap.Error(err))
	}
	s.storeEvent(ctx, req.UserID, types.MemoryEvent{
		Type:      "user_message",
		SessionID: req.SessionID,
		Content:   req.Message,
		Timestamp: time.Now(),
	})
}

func (s *Service) persistAssistantMessage(ctx context.Context, req TurnRequest, state *pipeline.State, answer string) string {
	rec := &persistence.ConversationRecord{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Role:      types.RoleAssistant,
		Message:   answer,
		AgentName: state.AgentName,
		TurnKey:   state.TurnID + ":assistant",
		Metadata: map[string]any{
			"role":            string(state.Role),
			"role_confidence": state.RoleConfidence,
		},
	}
	if state.Intent != nil {
		rec.Intent = state.Intent.Intent
		rec.Entities = state.Intent.Entities
	}
	if err := s.conversations.Create(ctx, rec); err != nil {
		s.logger.Warn("failed to persist assistant message",
			zap.String("session_id", req.SessionID), zap.Error(err))
	}
	s.storeEvent(ctx, req.UserID, types.MemoryEvent{
		Type:      "assistant_message",
		SessionID: req.SessionID,
		Content:   answer,
		Metadata:  map[string]any{"agent": state.AgentName},
		Timestamp: time.Now(),
	})
	return rec.ID
}

func (s *Service) storeEvent(ctx context.Context, userID string, event types.MemoryEvent) {
	if s.episodic == nil {
		return
	}
	if err := s.episodic.StoreEvent(ctx, userID, event); err != nil {
		s.logger.Warn("failed to store episodic event",
			zap.String("event_type", event.Type), zap.Error(err))
	}
}

// finishWithError classifies the failure, applies the retry policy and
// emits the terminal error event. The checkpoint is kept so the caller can
// resume the turn.
func (s *Service) finishWithError(ctx context.Context, producer *stream.Producer, req TurnRequest, state *pipeline.State, runErr error, start time.Time) {
	var cause error
	switch {
	case runErr != nil:
		cause = runErr
	case state.Error != "":
		cause = errors.New(state.Error)
	default:
		cause = errors.New("turn produced no answer")
	}
	kind := types.ClassifyError(cause)
	decision := types.DecideRetry(kind, req.ManualRetryAttempts)

	s.logger.Error("turn failed",
		zap.String("session_id", req.SessionID),
		zap.String("turn_id", state.TurnID),
		zap.String("kind", string(kind)),
		zap.Bool("needs_retry", decision.NeedsRetry),
		zap.Error(cause))
	if s.metrics != nil {
		s.metrics.RecordTurn("error", time.Since(start))
		s.metrics.RecordTurnError(string(kind))
	}

	_ = producer.Emit(ctx, stream.Event{
		Type: stream.EventError,
		Data: stream.EventData{
			Content:                types.Apology(kind),
			IsError:                true,
			ErrorType:              string(kind),
			NeedsRetry:             decision.NeedsRetry,
			ReachRetryAttemptLimit: decision.ReachRetryAttemptLimit,
		},
	})
}

// turnListener bridges pipeline progress into the event stream, with the
// accumulator enforcing the one-thinking-per-node rule.
type turnListener struct {
	ctx      context.Context
	producer *stream.Producer
	acc      *stream.Accumulator
}

func (l *turnListener) NodeStarted(stage pipeline.Stage) {
	label := thinkingLabel(stage)
	if !l.acc.NodeThinking(string(stage), label) {
		return
	}
	_ = l.producer.Emit(l.ctx, stream.Event{
		Type: stream.EventThinking,
		Data: stream.EventData{Node: string(stage), Content: label},
	})
}

func (l *turnListener) AnswerChunk(chunk string) {
	l.acc.AppendAnswer(chunk)
	l.acc.ReplaceLiveAnswer(l.acc.FinalAnswer())
	_ = l.producer.Emit(l.ctx, stream.Event{
		Type: stream.EventChunk,
		Data: stream.EventData{Content: chunk},
	})
}

func thinkingLabel(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageRoleDetector:
		return "Understanding who you are..."
	case pipeline.StageIntentRouter:
		return "Analyzing your request..."
	case pipeline.StageContextBuilder:
		return "Gathering relevant context..."
	case pipeline.StageAgentExecutor:
		return "Working on your request..."
	case pipeline.StageAnswerGenerator:
		return "Preparing your answer..."
	}
	return "Processing..."
}

// CreateSession mints a new session identifier for a user.
func (s *Service) CreateSession(userID string) string {
	id := fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	s.logger.Info("created session", zap.String("user_id", userID), zap.String("session_id", id))
	return id
}

// GetConversationHistory returns up to limit most recent messages of a
// session, oldest first. Reading another user's session fails with
// ErrSessionForbidden.
func (s *Service) GetConversationHistory(ctx context.Context, userID, sessionID string, limit int) ([]*persistence.ConversationRecord, error) {
	records, err := s.conversations.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	for _, rec := range records {
		if rec.UserID != userID {
			return nil, ErrSessionForbidden
		}
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// SessionSummary describes one of a user's sessions.
type SessionSummary struct {
	SessionID     string    `json:"session_id"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

// GetUserSessions lists the user's sessions, most recently active first.
// It over-fetches records because a session's message count is unbounded.
func (s *Service) GetUserSessions(ctx context.Context, userID string, limit int) ([]*SessionSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := s.conversations.FindByUserID(ctx, userID, limit*10)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for user %s: %w", userID, err)
	}

	byID := make(map[string]*SessionSummary)
	for _, rec := range records {
		summary, ok := byID[rec.SessionID]
		if !ok {
			summary = &SessionSummary{SessionID: rec.SessionID}
			byID[rec.SessionID] = summary
		}
		summary.MessageCount++
		if rec.CreatedAt.After(summary.LastMessageAt) {
			summary.LastMessageAt = rec.CreatedAt
			summary.LastMessage = rec.Message
		}
	}

	summaries := make([]*SessionSummary, 0, len(byID))
	for _, summary := range byID {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// GetRecentConversations returns the user's most recent messages across all
// sessions.
func (s *Service) GetRecentConversations(ctx context.Context, userID string, limit int) ([]*persistence.ConversationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.conversations.FindByUserID(ctx, userID, limit)
}
