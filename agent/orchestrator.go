package agent

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// WorkflowRunner decomposes a broad goal into tasks and executes them in
// dependency order. Satisfied by the workflow engine.
type WorkflowRunner interface {
	Run(ctx context.Context, goal string, agentCtx types.AgentContext) (*types.WorkflowResult, error)
}

// Orchestrator coordinates multi-step goals that no single agent covers.
// It is also the router's fallback for unmatched intents.
type Orchestrator struct {
	Base
	workflow WorkflowRunner
}

// NewOrchestrator creates the orchestrating agent.
func NewOrchestrator(client llm.Client, workflow WorkflowRunner, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Base: NewBase(
			OrchestratorName,
			"Orchestrates complex multi-step tasks by decomposing them and coordinating multiple agents",
			[]string{"orchestration", "task_decomposition", "workflow_management"},
			client, logger,
		),
		workflow: workflow,
	}
}

// Execute implements Agent.
func (a *Orchestrator) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	if a.workflow == nil {
		return a.errorResult("Orchestration is not available.",
			errors.New("no workflow runner configured")), nil
	}

	result, err := a.workflow.Run(ctx, agentCtx.Task, agentCtx)
	if err != nil {
		return a.errorResult("Orchestration failed.", err), nil
	}
	if !result.Success {
		return a.errorResult("Workflow execution completed with errors.", result.Errors...), nil
	}
	return a.successResult(result.FinalOutput, "Task completed through an orchestrated workflow."), nil
}

// CanHandle implements Agent. The orchestrator accepts intents that signal
// a compound request; everything else reaches it only via router fallback.
func (a *Orchestrator) CanHandle(intent string, entities map[string]any) bool {
	switch intent {
	case "complex_query", "multi_step", "workflow", "orchestration":
		return true
	}
	return strings.Contains(intent, "and")
}

// Tools implements Agent.
func (a *Orchestrator) Tools() []types.ToolSchema { return nil }

// RequiredMemory implements Agent.
func (a *Orchestrator) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemoryEpisodic, types.MemoryProcedural}
}
