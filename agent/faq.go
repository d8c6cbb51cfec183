package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// FAQ answers general questions that need no specialist.
type FAQ struct {
	Base
}

// NewFAQ creates the FAQ agent.
func NewFAQ(client llm.Client, logger *zap.Logger) *FAQ {
	return &FAQ{
		Base: NewBase(
			"faq",
			"Answers general questions about the platform and careers",
			[]string{types.IntentFAQ, "general_question"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *FAQ) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	prompt := fmt.Sprintf(`Answer the user's question directly and concisely.

Question: %s`, agentCtx.Task)

	answer, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a helpful career assistant. Answer plainly; say so when you are unsure.",
		Temperature:  0.5,
	})
	if err != nil {
		return a.errorResult("Failed to answer the question.", err), nil
	}

	return a.successResult(map[string]any{"answer": answer}, answer), nil
}

// CanHandle implements Agent.
func (a *FAQ) CanHandle(intent string, entities map[string]any) bool {
	return intent == types.IntentFAQ || intent == "general_question"
}

// Tools implements Agent.
func (a *FAQ) Tools() []types.ToolSchema { return nil }

// RequiredMemory implements Agent.
func (a *FAQ) RequiredMemory() []types.MemoryCategory { return nil }
