package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// LearningPath suggests learning resources and upskilling plans.
type LearningPath struct {
	Base
}

// NewLearningPath creates the learning path agent.
func NewLearningPath(client llm.Client, logger *zap.Logger) *LearningPath {
	return &LearningPath{
		Base: NewBase(
			"learning_path",
			"Builds learning plans and suggests courses for skill gaps",
			[]string{types.IntentLearningPath, types.IntentSkillGap, types.IntentCareerPath},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *LearningPath) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	procedures := agentCtx.Memory[types.MemoryProcedural]

	prompt := fmt.Sprintf(`Design a learning plan for the user's goal.

Goal: %s
Entities: %s
Known procedures: %s

Provide a staged plan: what to learn first, recommended resource types per
stage, and a realistic timeline. Flag prerequisites explicitly.`,
		agentCtx.Task, mustJSON(agentCtx.Entities), mustJSON(procedures))

	plan, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a learning advisor building practical upskilling plans.",
	})
	if err != nil {
		return a.errorResult("Failed to build a learning plan.", err), nil
	}

	return a.successResult(
		map[string]any{"plan": plan},
		plan,
		"Start the first stage", "Adjust the timeline",
	), nil
}

// CanHandle implements Agent.
func (a *LearningPath) CanHandle(intent string, entities map[string]any) bool {
	switch intent {
	case types.IntentLearningPath, types.IntentSkillGap, types.IntentCareerPath:
		return true
	}
	return false
}

// Tools implements Agent.
func (a *LearningPath) Tools() []types.ToolSchema { return nil }

// RequiredMemory implements Agent.
func (a *LearningPath) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemorySemantic, types.MemoryProcedural}
}
