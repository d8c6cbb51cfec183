package stream

import "time"

// EventType tags a streaming event for the transport layer.
type EventType string

const (
	EventThinking    EventType = "thinking"
	EventChunk       EventType = "chunk"
	EventSuggestions EventType = "suggestions"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// EventData is the envelope payload. Fields are populated per event type;
// terminal events carry the retry decision.
type EventData struct {
	Content                string         `json:"content,omitempty"`
	Node                   string         `json:"node,omitempty"`
	Agent                  string         `json:"agent,omitempty"`
	Intent                 string         `json:"intent,omitempty"`
	Entities               map[string]any `json:"entities,omitempty"`
	Suggestions            []string       `json:"suggestions,omitempty"`
	IsDone                 bool           `json:"isDone"`
	IsError                bool           `json:"isError"`
	NeedsRetry             bool           `json:"needsRetry,omitempty"`
	ReachRetryAttemptLimit bool           `json:"reachRetryAttemptLimit,omitempty"`
	ErrorType              string         `json:"errorType,omitempty"`
	MessageID              string         `json:"messageId,omitempty"`
	CompletedAt            *time.Time     `json:"completedAt,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
}

// Event is one unit of the turn's output stream. Exactly one complete or
// error event terminates a stream.
type Event struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
