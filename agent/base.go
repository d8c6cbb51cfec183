package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// Base carries the identity fields and helpers every concrete agent shares.
// Concrete agents embed it and implement Execute, CanHandle, Tools, and
// RequiredMemory themselves.
type Base struct {
	name         string
	description  string
	capabilities []string

	llm    llm.Client
	logger *zap.Logger
}

// NewBase creates the shared agent base.
func NewBase(name, description string, capabilities []string, client llm.Client, logger *zap.Logger) Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Base{
		name:         name,
		description:  description,
		capabilities: capabilities,
		llm:          client,
		logger:       logger.With(zap.String("agent", name)),
	}
}

// Name implements Agent.
func (b *Base) Name() string { return b.name }

// Description implements Agent.
func (b *Base) Description() string { return b.description }

// Capabilities implements Agent.
func (b *Base) Capabilities() []string { return b.capabilities }

// CallOptions tunes a single model call made through the base.
type CallOptions struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// callLLM runs one chat completion with an optional system prompt.
func (b *Base) callLLM(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 2048
	}

	messages := make([]types.Message, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, types.NewSystemMessage(opts.SystemPrompt))
	}
	messages = append(messages, types.NewUserMessage(prompt))

	resp, err := b.llm.Chat(ctx, messages, llm.ChatOptions{
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		b.logger.Error("model call failed", zap.Error(err))
		return "", err
	}
	return resp.Content, nil
}

// successResult builds a successful AgentResult stamped with the agent name.
func (b *Base) successResult(data any, explanation string, nextSteps ...string) *types.AgentResult {
	return &types.AgentResult{
		Success:     true,
		Data:        data,
		Explanation: explanation,
		NextSteps:   nextSteps,
		AgentName:   b.name,
	}
}

// errorResult builds an unsuccessful AgentResult stamped with the agent name.
func (b *Base) errorResult(explanation string, errs ...error) *types.AgentResult {
	return &types.AgentResult{
		Success:     false,
		Explanation: explanation,
		Errors:      errs,
		AgentName:   b.name,
	}
}
