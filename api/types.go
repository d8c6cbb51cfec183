// Package api defines the request and response shapes of the HTTP surface.
package api

import "time"

// MessageRequest is one incoming conversation message.
type MessageRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	// Role, when set, skips role classification ("candidate" or "recruiter").
	Role string `json:"role,omitempty"`
	// RetryAttempts counts the client's prior retries of this turn.
	RetryAttempts int `json:"retry_attempts,omitempty"`
}

// MessageResponse is the collapsed outcome of a non-streaming turn.
type MessageResponse struct {
	Answer      string         `json:"answer"`
	Agent       string         `json:"agent,omitempty"`
	Intent      string         `json:"intent,omitempty"`
	Entities    map[string]any `json:"entities,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	MessageID   string         `json:"message_id,omitempty"`
	Success     bool           `json:"success"`

	NeedsRetry             bool   `json:"needs_retry,omitempty"`
	ReachRetryAttemptLimit bool   `json:"reach_retry_attempt_limit,omitempty"`
	ErrorType              string `json:"error_type,omitempty"`
}

// CreateSessionRequest asks for a fresh session.
type CreateSessionRequest struct {
	UserID string `json:"user_id"`
}

// CreateSessionResponse carries the minted session identifier.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// SessionSummary describes one session in a listing.
type SessionSummary struct {
	SessionID     string    `json:"session_id"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

// HistoryMessage is one message in a session history listing.
type HistoryMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Message   string         `json:"message"`
	Intent    string         `json:"intent,omitempty"`
	Entities  map[string]any `json:"entities,omitempty"`
	Agent     string         `json:"agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
