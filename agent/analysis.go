package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// Analysis turns gathered data into insights. Workflow decompositions use
// it as the synthesis step after gathering tasks.
type Analysis struct {
	Base
}

// NewAnalysis creates the analysis agent.
func NewAnalysis(client llm.Client, logger *zap.Logger) *Analysis {
	return &Analysis{
		Base: NewBase(
			"analysis",
			"Analyzes data and provides insights",
			[]string{"analysis", types.IntentTalentAnalytics, "insight_generation"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *Analysis) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	prompt := fmt.Sprintf(`Analyze the following request and any attached data.

Request: %s
Entities: %s
Prior results: %s

Surface the key findings first, then supporting detail, then recommended
actions.`,
		agentCtx.Task, mustJSON(agentCtx.Entities), mustJSON(agentCtx.Metadata["workflow_results"]))

	analysis, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a data analyst producing clear, actionable findings.",
	})
	if err != nil {
		return a.errorResult("Failed to analyze the data.", err), nil
	}

	return a.successResult(map[string]any{"analysis": analysis}, analysis), nil
}

// CanHandle implements Agent.
func (a *Analysis) CanHandle(intent string, entities map[string]any) bool {
	switch intent {
	case "analysis", types.IntentTalentAnalytics, "insight_generation":
		return true
	}
	return strings.Contains(intent, "analy")
}

// Tools implements Agent.
func (a *Analysis) Tools() []types.ToolSchema { return nil }

// RequiredMemory implements Agent.
func (a *Analysis) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemorySemantic}
}
