package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// Comparison compares jobs, companies, or offers side by side.
type Comparison struct {
	Base
}

// NewComparison creates the comparison agent.
func NewComparison(client llm.Client, logger *zap.Logger) *Comparison {
	return &Comparison{
		Base: NewBase(
			"comparison",
			"Compares jobs, companies, or offers side by side",
			[]string{types.IntentComparison},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *Comparison) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	prompt := fmt.Sprintf(`Compare the options in the user's request.

Request: %s
Entities: %s

Produce a dimension-by-dimension comparison (compensation, growth, culture,
stability where applicable) and finish with a recommendation and the single
biggest trade-off.`,
		agentCtx.Task, mustJSON(agentCtx.Entities))

	comparison, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a career advisor comparing opportunities objectively.",
	})
	if err != nil {
		return a.errorResult("Failed to build the comparison.", err), nil
	}

	return a.successResult(
		map[string]any{"comparison": comparison},
		comparison,
		"Drill into one option", "Add another option to compare",
	), nil
}

// CanHandle implements Agent.
func (a *Comparison) CanHandle(intent string, entities map[string]any) bool {
	return intent == types.IntentComparison
}

// Tools implements Agent.
func (a *Comparison) Tools() []types.ToolSchema { return nil }

// RequiredMemory implements Agent.
func (a *Comparison) RequiredMemory() []types.MemoryCategory { return nil }
