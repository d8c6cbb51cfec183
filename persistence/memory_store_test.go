package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndFind(t *testing.T) {
	t.Parallel()

	store := NewMemoryConversationStore()
	ctx := context.Background()

	rec := &ConversationRecord{
		UserID:    "user-1",
		SessionID: "session-1",
		Role:      "user",
		Message:   "find me a remote backend job",
	}
	require.NoError(t, store.Create(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := store.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "find me a remote backend job", got.Message)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SessionOrderPreserved(t *testing.T) {
	t.Parallel()

	store := NewMemoryConversationStore()
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, store.Create(ctx, &ConversationRecord{
			UserID:    "user-1",
			SessionID: "session-1",
			Role:      "user",
			Message:   msg,
		}))
	}

	recs, err := store.FindBySessionID(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "first", recs[0].Message)
	assert.Equal(t, "third", recs[2].Message)
}

func TestMemoryStore_FindByUserIDLimitsAndSorts(t *testing.T) {
	t.Parallel()

	store := NewMemoryConversationStore()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, &ConversationRecord{
			UserID:    "user-1",
			SessionID: "session-1",
			Role:      "user",
			Message:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := store.FindByUserID(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "e", recs[0].Message)
	assert.Equal(t, "d", recs[1].Message)
}

func TestMemoryStore_TurnKeyDedup(t *testing.T) {
	t.Parallel()

	store := NewMemoryConversationStore()
	ctx := context.Background()

	first := &ConversationRecord{
		UserID:    "user-1",
		SessionID: "session-1",
		Role:      "assistant",
		Message:   "original answer",
		TurnKey:   "turn-42",
	}
	require.NoError(t, store.Create(ctx, first))

	replay := &ConversationRecord{
		UserID:    "user-1",
		SessionID: "session-1",
		Role:      "assistant",
		Message:   "replayed answer",
		TurnKey:   "turn-42",
	}
	require.NoError(t, store.Create(ctx, replay))

	recs, err := store.FindBySessionID(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "original answer", recs[0].Message)

	// Same turn key in a different session is a distinct turn.
	other := &ConversationRecord{
		UserID:    "user-1",
		SessionID: "session-2",
		Role:      "assistant",
		Message:   "other session",
		TurnKey:   "turn-42",
	}
	require.NoError(t, store.Create(ctx, other))
	recs, err = store.FindBySessionID(ctx, "session-2")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMemoryStore_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryConversationStore()
	ctx := context.Background()

	rec := &ConversationRecord{UserID: "u", SessionID: "s", Role: "user", Message: "before"}
	require.NoError(t, store.Create(ctx, rec))

	rec.Message = "after"
	require.NoError(t, store.Update(ctx, rec))
	got, err := store.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Message)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.FindByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, rec.ID), ErrNotFound)

	recs, err := store.FindBySessionID(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMemoryStore_ClosedStoreRejectsOperations(t *testing.T) {
	t.Parallel()

	store := NewMemoryConversationStore()
	require.NoError(t, store.Close())

	ctx := context.Background()
	assert.ErrorIs(t, store.Ping(ctx), ErrStoreClosed)
	assert.ErrorIs(t, store.Create(ctx, &ConversationRecord{}), ErrStoreClosed)
	_, err := store.FindByID(ctx, "x")
	assert.ErrorIs(t, err, ErrStoreClosed)
}
