package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// InformationGathering collects context for broad or underspecified
// requests. It is the workflow engine's fallback when decomposition fails.
type InformationGathering struct {
	Base
}

// NewInformationGathering creates the information gathering agent.
func NewInformationGathering(client llm.Client, logger *zap.Logger) *InformationGathering {
	return &InformationGathering{
		Base: NewBase(
			"information_gathering",
			"Gathers information and clarifies underspecified requests",
			[]string{"information_gathering", "research"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *InformationGathering) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	prompt := fmt.Sprintf(`Gather the information needed to act on this request.

Request: %s
Entities: %s

Summarize what is already known, what is missing, and the clarifying
questions worth asking the user.`,
		agentCtx.Task, mustJSON(agentCtx.Entities))

	findings, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a research assistant gathering context before action.",
	})
	if err != nil {
		return a.errorResult("Failed to gather information.", err), nil
	}

	return a.successResult(map[string]any{"findings": findings}, findings), nil
}

// CanHandle implements Agent.
func (a *InformationGathering) CanHandle(intent string, entities map[string]any) bool {
	return intent == "information_gathering" || intent == "research"
}

// Tools implements Agent.
func (a *InformationGathering) Tools() []types.ToolSchema { return nil }

// RequiredMemory implements Agent.
func (a *InformationGathering) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemoryEpisodic}
}
