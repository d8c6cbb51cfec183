// Package workflow decomposes compound goals into dependency-ordered tasks
// and executes them across the agent registry, tolerating partial failure.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/agent"
	"github.com/connectcareer/careerflow/internal/metrics"
	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// fallbackAgent receives the single catch-all task when decomposition fails.
const fallbackAgent = "information_gathering"

// Engine runs workflows: decompose, order, execute, synthesize. Tasks run
// strictly one at a time in topological order; independent tasks are not
// fanned out, which keeps result ordering reproducible.
type Engine struct {
	router  *agent.Router
	llm     llm.Client
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewEngine creates a workflow engine over the given registry.
func NewEngine(router *agent.Router, client llm.Client, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		router: router,
		llm:    client,
		logger: logger.With(zap.String("component", "workflow_engine")),
	}
}

// WithMetrics attaches a collector recording per-task outcomes.
func (e *Engine) WithMetrics(collector *metrics.Collector) *Engine {
	e.metrics = collector
	return e
}

func (e *Engine) recordTask(status string) {
	if e.metrics != nil {
		e.metrics.RecordWorkflowTask(status)
	}
}

// Run decomposes the goal and executes the resulting tasks. Satisfies
// agent.WorkflowRunner.
func (e *Engine) Run(ctx context.Context, goal string, agentCtx types.AgentContext) (*types.WorkflowResult, error) {
	tasks := e.Decompose(ctx, goal, agentCtx)
	return e.Execute(ctx, tasks, agentCtx), nil
}

// Decompose asks the model to split the goal into tasks. On any model or
// parse failure it degrades to a single task for the information gathering
// agent, so a workflow run always has work to do.
func (e *Engine) Decompose(ctx context.Context, goal string, agentCtx types.AgentContext) []types.Task {
	fallback := []types.Task{{
		ID:         "task1",
		Type:       nonEmpty(agentCtx.Intent, "information_gathering"),
		Agent:      fallbackAgent,
		Parameters: agentCtx.Entities,
	}}

	var catalog strings.Builder
	for _, a := range e.router.Agents() {
		fmt.Fprintf(&catalog, "- %s: %s\n", a.Name(), a.Description())
	}

	prompt := fmt.Sprintf(`Decompose the following task into smaller, actionable subtasks that can be handled by specialized agents.

Task: %s
Intent: %s
Entities: %s

Available agents:
%s
Return a JSON array of tasks with this structure:
[
  {
    "id": "task1",
    "type": "job_search",
    "agent": "job_discovery",
    "parameters": {},
    "dependencies": []
  }
]`, goal, nonEmpty(agentCtx.Intent, "unknown"), mustJSON(agentCtx.Entities), catalog.String())

	resp, err := e.llm.Chat(ctx, []types.Message{
		types.NewSystemMessage("You are a task decomposition expert. Break down complex tasks into atomic, executable subtasks."),
		types.NewUserMessage(prompt),
	}, llm.ChatOptions{Temperature: 0.3, MaxTokens: 1024})
	if err != nil {
		e.logger.Warn("decomposition model call failed, using single-task fallback", zap.Error(err))
		return fallback
	}

	var tasks []types.Task
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &tasks); err != nil || len(tasks) == 0 {
		e.logger.Warn("failed to parse decomposition output, using single-task fallback", zap.Error(err))
		return fallback
	}
	return tasks
}

// Execute walks the tasks in dependency order. A task with unmet
// dependencies is skipped with a warning; a task whose agent is missing or
// whose execution fails is recorded as failed; remaining tasks still run.
// Success means no task failed.
func (e *Engine) Execute(ctx context.Context, tasks []types.Task, agentCtx types.AgentContext) *types.WorkflowResult {
	state := types.WorkflowState{
		TotalSteps: len(tasks),
		Results:    make(map[string]any),
	}
	taskMap := make(map[string]*types.Task, len(tasks))
	for i := range tasks {
		tasks[i].Status = types.TaskPending
		state.PendingTasks = append(state.PendingTasks, tasks[i].ID)
		taskMap[tasks[i].ID] = &tasks[i]
	}

	results := make(map[string]types.AgentResult)
	var errs []error

	for _, taskID := range sortTasks(tasks) {
		task, ok := taskMap[taskID]
		if !ok {
			continue
		}

		if !allCompleted(task.Dependencies, state.CompletedTasks) {
			e.logger.Warn("task has unmet dependencies, skipping", zap.String("task", taskID))
			e.recordTask("skipped")
			continue
		}

		task.Status = types.TaskInProgress
		state.CurrentStep++

		executor, ok := e.router.Get(task.Agent)
		if !ok {
			task.Status = types.TaskFailed
			err := fmt.Errorf("agent %s not found", task.Agent)
			e.logger.Error("task failed", zap.String("task", taskID), zap.Error(err))
			e.recordTask("failed")
			errs = append(errs, err)
			continue
		}

		taskCtx := agentCtx
		taskCtx.Task = task.Type
		taskCtx.Intent = task.Type
		taskCtx.Entities = task.Parameters

		result, err := executor.Execute(ctx, taskCtx)
		if err != nil {
			task.Status = types.TaskFailed
			e.logger.Error("task failed", zap.String("task", taskID), zap.Error(err))
			e.recordTask("failed")
			errs = append(errs, err)
			continue
		}

		results[taskID] = *result
		if result.Success {
			task.Status = types.TaskCompleted
			state.CompletedTasks = append(state.CompletedTasks, taskID)
			state.Results[taskID] = result.Data
			e.recordTask("completed")
		} else {
			task.Status = types.TaskFailed
			errs = append(errs, result.Errors...)
			e.recordTask("failed")
		}
	}

	return &types.WorkflowResult{
		Success:     len(errs) == 0,
		Results:     results,
		FinalOutput: synthesize(results, state, sortTasks(tasks)),
		Errors:      errs,
	}
}

// sortTasks orders task IDs so every task follows its dependencies. The
// traversal keeps a visiting set: re-entering a node already on the path
// means a cycle, which truncates that branch silently instead of erroring.
// Non-cyclic tasks are unaffected.
func sortTasks(tasks []types.Task) []string {
	byID := make(map[string]*types.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	sorted := make([]string, 0, len(tasks))
	visited := make(map[string]bool, len(tasks))
	visiting := make(map[string]bool, len(tasks))

	type frame struct {
		id       string
		expanded bool
	}

	for _, t := range tasks {
		if visited[t.ID] {
			continue
		}
		stack := []frame{{id: t.ID}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.expanded {
				stack = stack[:len(stack)-1]
				delete(visiting, top.id)
				if !visited[top.id] {
					visited[top.id] = true
					sorted = append(sorted, top.id)
				}
				continue
			}
			top.expanded = true
			visiting[top.id] = true
			if task, ok := byID[top.id]; ok {
				// Push in reverse so dependencies are visited in
				// declaration order.
				for i := len(task.Dependencies) - 1; i >= 0; i-- {
					dep := task.Dependencies[i]
					if visited[dep] || visiting[dep] {
						continue
					}
					stack = append(stack, frame{id: dep})
				}
			}
		}
	}
	return sorted
}

func allCompleted(deps, completed []string) bool {
	for _, dep := range deps {
		found := false
		for _, done := range completed {
			if done == dep {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// synthesize combines successful task outputs in execution order.
func synthesize(results map[string]types.AgentResult, state types.WorkflowState, order []string) types.WorkflowOutput {
	outputs := make([]types.TaskOutput, 0, len(results))
	for _, taskID := range order {
		result, ok := results[taskID]
		if !ok || !result.Success {
			continue
		}
		outputs = append(outputs, types.TaskOutput{
			TaskID:      taskID,
			Data:        result.Data,
			Explanation: result.Explanation,
		})
	}
	return types.WorkflowOutput{
		TasksCompleted: len(state.CompletedTasks),
		TasksTotal:     state.TotalSteps,
		Results:        outputs,
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func mustJSON(v any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// stripCodeFences removes a markdown fence wrapping model JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
