package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// CVEnhancement reviews CVs and suggests improvements.
type CVEnhancement struct {
	Base
}

// NewCVEnhancement creates the CV enhancement agent.
func NewCVEnhancement(client llm.Client, logger *zap.Logger) *CVEnhancement {
	return &CVEnhancement{
		Base: NewBase(
			"cv_enhancement",
			"Reviews and improves CVs and resumes with targeted feedback",
			[]string{types.IntentCVReview, "cv_enhancement", "resume_review"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *CVEnhancement) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	prompt := fmt.Sprintf(`Review the user's CV request and give concrete, prioritized feedback.

Request: %s
Entities: %s

Provide:
1. The three highest-impact improvements
2. Section-by-section notes where material is available
3. Keywords to add for the roles the user targets`,
		agentCtx.Task, mustJSON(agentCtx.Entities))

	feedback, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a professional CV reviewer with deep knowledge of applicant tracking systems.",
	})
	if err != nil {
		return a.errorResult("Failed to review the CV.", err), nil
	}

	return a.successResult(
		map[string]any{"feedback": feedback},
		feedback,
		"Apply suggested edits", "Request a rewrite of a section",
	), nil
}

// CanHandle implements Agent.
func (a *CVEnhancement) CanHandle(intent string, entities map[string]any) bool {
	switch intent {
	case types.IntentCVReview, "cv_enhancement", "resume_review":
		return true
	}
	return false
}

// Tools implements Agent.
func (a *CVEnhancement) Tools() []types.ToolSchema {
	return []types.ToolSchema{
		{Name: "parse_cv", Description: "Extract structured sections from an uploaded CV"},
	}
}

// RequiredMemory implements Agent.
func (a *CVEnhancement) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemorySemantic}
}
