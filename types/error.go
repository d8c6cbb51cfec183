package types

import (
	"fmt"
	"strings"
)

// ErrorKind is the turn-level failure taxonomy. Every failure that reaches
// the turn boundary is classified into exactly one kind.
type ErrorKind string

const (
	// ErrKindTimeout covers upstream and local deadline failures.
	ErrKindTimeout ErrorKind = "TIMEOUT"
	// ErrKindModelFailure covers language-model call failures.
	ErrKindModelFailure ErrorKind = "MODEL_FAILURE"
	// ErrKindDomainError covers bad input, content filtering and not-found.
	ErrKindDomainError ErrorKind = "DOMAIN_ERROR"
	// ErrKindSystemError is the catch-all; the only retryable kind.
	ErrKindSystemError ErrorKind = "SYSTEM_ERROR"
)

// Error is the structured error carried across the engine.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Agent   string    `json:"agent,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCause attaches a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithAgent tags the error with the agent that produced it.
func (e *Error) WithAgent(agent string) *Error {
	e.Agent = agent
	return e
}

// ClassifyError maps an arbitrary error to an ErrorKind using ordered
// substring checks over the message text. An already-classified *Error
// keeps its kind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrKindSystemError
	}
	if e, ok := err.(*Error); ok && e.Kind != "" {
		return e.Kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return ErrKindTimeout
	case strings.Contains(msg, "model") || strings.Contains(msg, "llm"):
		return ErrKindModelFailure
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "filter") ||
		strings.Contains(msg, "not found"):
		return ErrKindDomainError
	default:
		return ErrKindSystemError
	}
}

// MaxManualRetryAttempts is the ceiling for caller-driven turn retries.
const MaxManualRetryAttempts = 3

// RetryDecision tells the caller whether a failed turn may be re-invoked.
type RetryDecision struct {
	NeedsRetry             bool      `json:"needs_retry"`
	ReachRetryAttemptLimit bool      `json:"reach_retry_attempt_limit"`
	Kind                   ErrorKind `json:"kind"`
}

// DecideRetry applies the retry policy: only SYSTEM_ERROR is retryable, and
// only while the caller-supplied attempt counter is below the ceiling. Once
// the ceiling is reached no further retry is offered regardless of kind.
func DecideRetry(kind ErrorKind, attempts int) RetryDecision {
	if attempts >= MaxManualRetryAttempts {
		return RetryDecision{NeedsRetry: false, ReachRetryAttemptLimit: true, Kind: kind}
	}
	return RetryDecision{
		NeedsRetry: kind == ErrKindSystemError,
		Kind:       kind,
	}
}

// Apology returns the user-visible failure message for a classified kind.
func Apology(kind ErrorKind) string {
	switch kind {
	case ErrKindTimeout:
		return "I'm sorry, that took longer than expected. Please try again in a moment."
	case ErrKindModelFailure:
		return "I'm sorry, I had trouble generating a response. Please try rephrasing your request."
	case ErrKindDomainError:
		return "I'm sorry, I couldn't process that request. Could you check the details and try again?"
	default:
		return "I'm sorry, something went wrong on our side. Please try again."
	}
}
