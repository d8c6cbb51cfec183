package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryConversationStore is an in-process ConversationStore. Suitable for
// development and tests; data is lost on restart.
type MemoryConversationStore struct {
	mu       sync.RWMutex
	records  map[string]*ConversationRecord
	sessions map[string][]string // sessionID -> record IDs in creation order
	users    map[string][]string // userID -> record IDs in creation order
	turnKeys map[string]struct{} // sessionID+"\x00"+turnKey
	closed   bool
}

// NewMemoryConversationStore creates an empty in-memory store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		records:  make(map[string]*ConversationRecord),
		sessions: make(map[string][]string),
		users:    make(map[string][]string),
		turnKeys: make(map[string]struct{}),
	}
}

// Ping implements Store.
func (s *MemoryConversationStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close implements Store.
func (s *MemoryConversationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Create implements ConversationStore.
func (s *MemoryConversationStore) Create(ctx context.Context, rec *ConversationRecord) error {
	if rec == nil {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if rec.TurnKey != "" {
		key := rec.SessionID + "\x00" + rec.TurnKey
		if _, seen := s.turnKeys[key]; seen {
			return nil
		}
		s.turnKeys[key] = struct{}{}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	clone := *rec
	s.records[rec.ID] = &clone
	s.sessions[rec.SessionID] = append(s.sessions[rec.SessionID], rec.ID)
	s.users[rec.UserID] = append(s.users[rec.UserID], rec.ID)
	return nil
}

// FindByID implements ConversationStore.
func (s *MemoryConversationStore) FindByID(ctx context.Context, id string) (*ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

// FindBySessionID implements ConversationStore.
func (s *MemoryConversationStore) FindBySessionID(ctx context.Context, sessionID string) ([]*ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	ids := s.sessions[sessionID]
	out := make([]*ConversationRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

// FindByUserID implements ConversationStore.
func (s *MemoryConversationStore) FindByUserID(ctx context.Context, userID string, limit int) ([]*ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	ids := s.users[userID]
	out := make([]*ConversationRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			clone := *rec
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update implements ConversationStore.
func (s *MemoryConversationStore) Update(ctx context.Context, rec *ConversationRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.records[rec.ID]; !ok {
		return ErrNotFound
	}
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

// Delete implements ConversationStore.
func (s *MemoryConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.records, id)

	s.sessions[rec.SessionID] = removeID(s.sessions[rec.SessionID], id)
	s.users[rec.UserID] = removeID(s.users[rec.UserID], id)
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
