// Package stream carries a turn's output to the transport boundary: a
// dual-channel accumulator separating the live UI snapshot from the durable
// record, and a pull-based event producer with backpressure.
package stream

import (
	"strings"
	"sync"
)

// Accumulator maintains four slots: live thinking, persisted thinking, live
// answer, persisted answer. Live slots hold the latest snapshot (replace
// semantics, may shrink); persisted slots are append-only, so the durable
// record is the exact concatenation of chunks in arrival order.
type Accumulator struct {
	mu sync.Mutex

	liveThinking      string
	persistedThinking strings.Builder
	liveAnswer        string
	persistedAnswer   strings.Builder

	seenNodes map[string]bool
}

// NewAccumulator creates an empty accumulator for one turn.
func NewAccumulator() *Accumulator {
	return &Accumulator{seenNodes: make(map[string]bool)}
}

// NodeThinking records a progress update for a pipeline node. The first
// update per distinct node name replaces the live slot, appends to the
// persisted slot, and returns true; repeats are dropped.
func (a *Accumulator) NodeThinking(node, text string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seenNodes[node] {
		return false
	}
	a.seenNodes[node] = true
	a.liveThinking = text
	if a.persistedThinking.Len() > 0 {
		a.persistedThinking.WriteString("\n")
	}
	a.persistedThinking.WriteString(text)
	return true
}

// ReplaceLiveAnswer sets the live answer to the full text so far. The live
// slot may shrink or change arbitrarily between calls.
func (a *Accumulator) ReplaceLiveAnswer(full string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.liveAnswer = full
}

// AppendAnswer appends one chunk to the persisted answer. The persisted
// answer is monotonically non-decreasing in length.
func (a *Accumulator) AppendAnswer(chunk string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persistedAnswer.WriteString(chunk)
}

// LiveAnswer returns the current live snapshot.
func (a *Accumulator) LiveAnswer() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveAnswer
}

// FinalAnswer prefers the persisted answer, falling back to the live slot
// when persistence never accumulated content.
func (a *Accumulator) FinalAnswer() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.persistedAnswer.Len() > 0 {
		return a.persistedAnswer.String()
	}
	return a.liveAnswer
}

// FinalThinking returns the persisted thinking log, falling back to the
// live slot.
func (a *Accumulator) FinalThinking() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.persistedThinking.Len() > 0 {
		return a.persistedThinking.String()
	}
	return a.liveThinking
}
