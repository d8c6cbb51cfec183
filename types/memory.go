package types

import "time"

// MemoryCategory identifies one of the memory collaborators an agent may
// declare as required.
type MemoryCategory string

const (
	// MemoryEpisodic holds event-based conversation history.
	MemoryEpisodic MemoryCategory = "episodic"
	// MemorySemantic holds searchable factual knowledge.
	MemorySemantic MemoryCategory = "semantic"
	// MemoryProcedural holds stored how-to procedures.
	MemoryProcedural MemoryCategory = "procedural"
)

// MemoryEvent is a single episodic record.
type MemoryEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// MemoryHit is one scored result of a memory search.
type MemoryHit struct {
	Category MemoryCategory `json:"category"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
