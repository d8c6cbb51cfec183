package types

// TaskStatus tracks a workflow task through its lifecycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one unit of a decomposed workflow, owned by the workflow engine
// for the lifetime of a single run.
type Task struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Agent        string         `json:"agent"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Status       TaskStatus     `json:"status,omitempty"`
}

// WorkflowState is mutated monotonically as tasks complete; failed tasks
// are recorded, never rolled back or retried in place.
type WorkflowState struct {
	CurrentStep    int            `json:"current_step"`
	TotalSteps     int            `json:"total_steps"`
	CompletedTasks []string       `json:"completed_tasks"`
	PendingTasks   []string       `json:"pending_tasks"`
	Results        map[string]any `json:"results"`
}

// TaskOutput is one successful task's contribution to the synthesized
// workflow output.
type TaskOutput struct {
	TaskID      string `json:"task_id"`
	Data        any    `json:"data,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// WorkflowOutput is the synthesized final output of a workflow run.
type WorkflowOutput struct {
	TasksCompleted int          `json:"tasks_completed"`
	TasksTotal     int          `json:"tasks_total"`
	Results        []TaskOutput `json:"results"`
}

// WorkflowResult reports a full workflow run. Partial success is a
// first-class outcome: Success is true only when no task failed, but
// Results always carries whatever did succeed.
type WorkflowResult struct {
	Success     bool                   `json:"success"`
	Results     map[string]AgentResult `json:"results"`
	FinalOutput WorkflowOutput         `json:"final_output"`
	Errors      []error                `json:"-"`
}
