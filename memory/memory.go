// Package memory defines the episodic, semantic and procedural memory
// collaborators consumed by the orchestration engine.
//
// The engine only ever talks to these through the generic
// store/retrieve/search contract; storage and ranking are the
// implementation's business.
package memory

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/connectcareer/careerflow/types"
)

// Episodic stores and retrieves event-based conversation memory.
type Episodic interface {
	StoreEvent(ctx context.Context, userID string, event types.MemoryEvent) error
	RetrieveEvents(ctx context.Context, userID string) ([]types.MemoryEvent, error)
	Search(ctx context.Context, userID, query string, limit int) ([]types.MemoryHit, error)
}

// Semantic stores and searches factual knowledge.
type Semantic interface {
	Store(ctx context.Context, concept, content string, metadata map[string]any) error
	Search(ctx context.Context, query string, limit int) ([]types.MemoryHit, error)
}

// Procedural stores and retrieves named how-to procedures.
type Procedural interface {
	StoreProcedure(ctx context.Context, name string, steps []string) error
	RetrieveProcedure(ctx context.Context, name string) ([]string, error)
}

// Bag bundles the three collaborators for one turn. Nil members mean the
// corresponding memory kind is unavailable.
type Bag struct {
	Episodic   Episodic
	Semantic   Semantic
	Procedural Procedural
}

// Categories lists the memory kinds present in the bag, in the shape the
// router's required-memory check consumes.
func (b Bag) Categories() map[types.MemoryCategory]any {
	out := make(map[types.MemoryCategory]any, 3)
	if b.Episodic != nil {
		out[types.MemoryEpisodic] = b.Episodic
	}
	if b.Semantic != nil {
		out[types.MemorySemantic] = b.Semantic
	}
	if b.Procedural != nil {
		out[types.MemoryProcedural] = b.Procedural
	}
	return out
}

// SearchRelevant fans the query out to the searchable memories and merges
// the hits by descending score, truncated to limit.
func (b Bag) SearchRelevant(ctx context.Context, userID, query string, limit int) ([]types.MemoryHit, error) {
	var (
		mu   sync.Mutex
		hits []types.MemoryHit
	)

	g, gctx := errgroup.WithContext(ctx)
	if b.Episodic != nil {
		g.Go(func() error {
			res, err := b.Episodic.Search(gctx, userID, query, limit)
			if err != nil {
				return err
			}
			mu.Lock()
			hits = append(hits, res...)
			mu.Unlock()
			return nil
		})
	}
	if b.Semantic != nil {
		g.Go(func() error {
			res, err := b.Semantic.Search(gctx, query, limit)
			if err != nil {
				return err
			}
			mu.Lock()
			hits = append(hits, res...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
