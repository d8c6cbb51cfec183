package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// CompanyInsights answers questions about companies and their culture.
type CompanyInsights struct {
	Base
}

// NewCompanyInsights creates the company insights agent.
func NewCompanyInsights(client llm.Client, logger *zap.Logger) *CompanyInsights {
	return &CompanyInsights{
		Base: NewBase(
			"company_insights",
			"Provides company information, culture insights, and research",
			[]string{types.IntentCompanyResearch, "company_insights", "organization_culture"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *CompanyInsights) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	prompt := fmt.Sprintf(`Answer the user's company research question.

Question: %s
Entities: %s

Cover culture, growth signals, and interview reputation where relevant,
and be explicit about what is general knowledge versus speculation.`,
		agentCtx.Task, mustJSON(agentCtx.Entities))

	insights, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a company research analyst advising job seekers.",
	})
	if err != nil {
		return a.errorResult("Failed to research the company.", err), nil
	}

	return a.successResult(
		map[string]any{"insights": insights},
		insights,
		"Compare with another company", "See open roles at this company",
	), nil
}

// CanHandle implements Agent.
func (a *CompanyInsights) CanHandle(intent string, entities map[string]any) bool {
	switch intent {
	case types.IntentCompanyResearch, "company_insights", "organization_culture":
		return true
	}
	return false
}

// Tools implements Agent.
func (a *CompanyInsights) Tools() []types.ToolSchema {
	return []types.ToolSchema{
		{Name: "lookup_company", Description: "Fetch a company profile by name"},
	}
}

// RequiredMemory implements Agent.
func (a *CompanyInsights) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemorySemantic}
}
