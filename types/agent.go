package types

import "time"

// AgentContext is the per-turn execution context handed to an agent's
// Execute. It is built fresh for every turn and must be treated as
// immutable once passed in.
type AgentContext struct {
	UserID              string         `json:"user_id"`
	SessionID           string         `json:"session_id"`
	Task                string         `json:"task"`
	Intent              string         `json:"intent,omitempty"`
	Entities            map[string]any `json:"entities,omitempty"`
	ConversationHistory []Message      `json:"conversation_history,omitempty"`
	Memory              map[MemoryCategory]any
	Metadata            map[string]any `json:"metadata,omitempty"`
}

// HasMemory reports whether the context's memory bag carries the category.
func (c AgentContext) HasMemory(category MemoryCategory) bool {
	if c.Memory == nil {
		return false
	}
	_, ok := c.Memory[category]
	return ok
}

// LastUserMessage returns the content of the most recent user message, or
// the task text when the history carries none.
func (c AgentContext) LastUserMessage() string {
	for i := len(c.ConversationHistory) - 1; i >= 0; i-- {
		if c.ConversationHistory[i].Role == RoleUser {
			return c.ConversationHistory[i].Content
		}
	}
	return c.Task
}

// AgentResult is produced once per agent invocation and never mutated
// after return.
type AgentResult struct {
	Success         bool           `json:"success"`
	Data            any            `json:"data,omitempty"`
	Explanation     string         `json:"explanation,omitempty"`
	NextSteps       []string       `json:"next_steps,omitempty"`
	Errors          []error        `json:"-"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	AgentName       string         `json:"agent_name,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms,omitempty"`
}

// WithTiming stamps the result with the invocation duration and agent name.
func (r AgentResult) WithTiming(agentName string, started time.Time) AgentResult {
	r.AgentName = agentName
	r.ExecutionTimeMs = time.Since(started).Milliseconds()
	return r
}
