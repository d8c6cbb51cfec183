// Package llm defines the language-model collaborator contract consumed by
// the orchestration engine, plus resilience wrappers (retry, rate limiting).
//
// The engine treats the model as an opaque, fallible, retryable dependency:
// it never inspects provider-specific response shapes, only Content.
package llm

import (
	"context"

	"github.com/connectcareer/careerflow/types"
)

// ChatOptions carries per-call generation parameters.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}

// Response is the provider-agnostic model output.
type Response struct {
	Content string `json:"content"`
}

// Client is the language-model collaborator interface.
//
// ChatStream is optional in spirit: implementations that cannot stream
// should return a single-element channel carrying the full completion.
type Client interface {
	// Chat sends a message sequence and returns the full completion.
	Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (*Response, error)

	// Generate sends a bare prompt and returns the full completion.
	Generate(ctx context.Context, prompt string) (*Response, error)

	// ChatStream sends a message sequence and returns completion chunks.
	// The channel is closed when the stream ends; callers must drain it.
	ChatStream(ctx context.Context, messages []types.Message, opts ChatOptions) (<-chan string, error)
}
