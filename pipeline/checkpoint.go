package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrNoCheckpoint is returned when no checkpoint exists for a thread.
var ErrNoCheckpoint = errors.New("no checkpoint for thread")

// CheckpointStore persists pipeline state between stages, keyed by the
// conversation thread ID. The pipeline writes after every stage; a crashed
// turn resumes from the last write.
type CheckpointStore interface {
	Save(ctx context.Context, threadID string, state *State) error
	Load(ctx context.Context, threadID string) (*State, error)
	Delete(ctx context.Context, threadID string) error
}

// MemoryCheckpointStore keeps checkpoints in process memory. For
// development and tests.
type MemoryCheckpointStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryCheckpointStore creates an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{states: make(map[string][]byte)}
}

// Save implements CheckpointStore.
func (s *MemoryCheckpointStore) Save(ctx context.Context, threadID string, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[threadID] = data
	return nil
}

// Load implements CheckpointStore.
func (s *MemoryCheckpointStore) Load(ctx context.Context, threadID string) (*State, error) {
	s.mu.RLock()
	data, ok := s.states[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoCheckpoint
	}
	return decodeState(data)
}

// Delete implements CheckpointStore.
func (s *MemoryCheckpointStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, threadID)
	return nil
}
