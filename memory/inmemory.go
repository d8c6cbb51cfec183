package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/connectcareer/careerflow/types"
)

// InMemoryEpisodic is an in-process Episodic implementation. Suitable for
// development and tests; data is lost on restart.
type InMemoryEpisodic struct {
	mu     sync.RWMutex
	events map[string][]types.MemoryEvent // userID -> events
}

// NewInMemoryEpisodic creates an empty episodic store.
func NewInMemoryEpisodic() *InMemoryEpisodic {
	return &InMemoryEpisodic{events: make(map[string][]types.MemoryEvent)}
}

// StoreEvent implements Episodic.
func (s *InMemoryEpisodic) StoreEvent(ctx context.Context, userID string, event types.MemoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[userID] = append(s.events[userID], event)
	return nil
}

// RetrieveEvents implements Episodic.
func (s *InMemoryEpisodic) RetrieveEvents(ctx context.Context, userID string) ([]types.MemoryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[userID]
	out := make([]types.MemoryEvent, len(events))
	copy(out, events)
	return out, nil
}

// Search implements Episodic with case-insensitive substring scoring.
func (s *InMemoryEpisodic) Search(ctx context.Context, userID, query string, limit int) ([]types.MemoryHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var hits []types.MemoryHit
	for _, ev := range s.events[userID] {
		if q == "" || strings.Contains(strings.ToLower(ev.Content), q) {
			hits = append(hits, types.MemoryHit{
				Category: types.MemoryEpisodic,
				Content:  ev.Content,
				Score:    0.5,
				Metadata: ev.Metadata,
			})
		}
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// InMemorySemantic is an in-process Semantic implementation.
type InMemorySemantic struct {
	mu       sync.RWMutex
	concepts map[string]semanticEntry
}

type semanticEntry struct {
	content  string
	metadata map[string]any
}

// NewInMemorySemantic creates an empty semantic store.
func NewInMemorySemantic() *InMemorySemantic {
	return &InMemorySemantic{concepts: make(map[string]semanticEntry)}
}

// Store implements Semantic.
func (s *InMemorySemantic) Store(ctx context.Context, concept, content string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concepts[concept] = semanticEntry{content: content, metadata: metadata}
	return nil
}

// Search implements Semantic. Concept-name matches score above content
// matches so exact knowledge wins over incidental mentions.
func (s *InMemorySemantic) Search(ctx context.Context, query string, limit int) ([]types.MemoryHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var hits []types.MemoryHit
	for concept, entry := range s.concepts {
		score := 0.0
		if strings.Contains(strings.ToLower(concept), q) {
			score = 0.9
		} else if strings.Contains(strings.ToLower(entry.content), q) {
			score = 0.6
		}
		if score > 0 {
			hits = append(hits, types.MemoryHit{
				Category: types.MemorySemantic,
				Content:  entry.content,
				Score:    score,
				Metadata: entry.metadata,
			})
		}
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// InMemoryProcedural is an in-process Procedural implementation.
type InMemoryProcedural struct {
	mu         sync.RWMutex
	procedures map[string][]string
}

// NewInMemoryProcedural creates an empty procedural store.
func NewInMemoryProcedural() *InMemoryProcedural {
	return &InMemoryProcedural{procedures: make(map[string][]string)}
}

// StoreProcedure implements Procedural.
func (s *InMemoryProcedural) StoreProcedure(ctx context.Context, name string, steps []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(steps))
	copy(out, steps)
	s.procedures[name] = out
	return nil
}

// RetrieveProcedure implements Procedural.
func (s *InMemoryProcedural) RetrieveProcedure(ctx context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps, ok := s.procedures[name]
	if !ok {
		return nil, types.NewError(types.ErrKindDomainError, "procedure not found: "+name)
	}
	out := make([]string, len(steps))
	copy(out, steps)
	return out, nil
}
