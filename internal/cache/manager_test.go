package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	manager, err := NewManager(Config{
		Addr:       mr.Addr(),
		DefaultTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return mr, manager
}

func TestManager_SetAndGet(t *testing.T) {
	_, manager := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "greeting", "hello", time.Minute))

	value, err := manager.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestManager_GetMissing(t *testing.T) {
	_, manager := setupTestCache(t)

	_, err := manager.Get(context.Background(), "absent")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_Delete(t *testing.T) {
	_, manager := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "doomed", "value", time.Minute))
	require.NoError(t, manager.Delete(ctx, "doomed"))

	_, err := manager.Get(ctx, "doomed")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	_, manager := setupTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, manager.SetJSON(ctx, "payload", payload{Name: "roles", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, manager.GetJSON(ctx, "payload", &got))
	assert.Equal(t, "roles", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestManager_GetJSONInvalid(t *testing.T) {
	_, manager := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "broken", "not json", time.Minute))

	var got map[string]any
	assert.Error(t, manager.GetJSON(ctx, "broken", &got))
}

func TestManager_TTLExpiry(t *testing.T) {
	mr, manager := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "fleeting", "value", 100*time.Millisecond))

	value, err := manager.Get(ctx, "fleeting")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	mr.FastForward(200 * time.Millisecond)

	_, err = manager.Get(ctx, "fleeting")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_DefaultTTLApplied(t *testing.T) {
	mr, manager := setupTestCache(t)
	ctx := context.Background()

	// Zero TTL falls back to the configured default rather than no expiry.
	require.NoError(t, manager.Set(ctx, "defaulted", "value", 0))

	mr.FastForward(2 * time.Minute)

	_, err := manager.Get(ctx, "defaulted")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ClosedRejectsOperations(t *testing.T) {
	_, manager := setupTestCache(t)

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, err := manager.Get(context.Background(), "any")
	assert.Error(t, err)
	assert.Error(t, manager.Set(context.Background(), "any", "v", time.Minute))
}
