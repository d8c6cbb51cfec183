package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectcareer/careerflow/types"
)

func checkpointRoundTrip(t *testing.T, store CheckpointStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "thread-1")
	assert.ErrorIs(t, err, ErrNoCheckpoint)

	state := &State{
		ThreadID: "thread-1",
		TurnID:   "turn-1",
		Role:     types.RoleCandidate,
		Messages: []types.Message{types.NewUserMessage("find me a job")},
		Intent:   &types.IntentResult{Intent: "job_search", Confidence: 0.9},
	}
	state.MarkCompleted(StageRoleDetector)
	state.MarkCompleted(StageIntentRouter)
	require.NoError(t, store.Save(ctx, "thread-1", state))

	loaded, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleCandidate, loaded.Role)
	assert.True(t, loaded.HasCompleted(StageIntentRouter))
	assert.False(t, loaded.HasCompleted(StageContextBuilder))
	require.NotNil(t, loaded.Intent)
	assert.Equal(t, "job_search", loaded.Intent.Intent)

	// Overwrite keeps the latest snapshot.
	state.MarkCompleted(StageContextBuilder)
	require.NoError(t, store.Save(ctx, "thread-1", state))
	loaded, err = store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.True(t, loaded.HasCompleted(StageContextBuilder))

	require.NoError(t, store.Delete(ctx, "thread-1"))
	_, err = store.Load(ctx, "thread-1")
	assert.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestMemoryCheckpointStore(t *testing.T) {
	t.Parallel()
	checkpointRoundTrip(t, NewMemoryCheckpointStore())
}

func TestRedisCheckpointStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checkpointRoundTrip(t, NewRedisCheckpointStore(client, "test", 0))
}

func TestSQLiteCheckpointStore(t *testing.T) {
	t.Parallel()

	store, err := NewSQLiteCheckpointStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	checkpointRoundTrip(t, store)
}
