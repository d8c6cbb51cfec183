package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCheckpointStore keeps checkpoints in Redis with an optional TTL, for
// deployments where a turn may resume on another node.
type RedisCheckpointStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCheckpointStore wraps an existing Redis client.
func NewRedisCheckpointStore(client *redis.Client, prefix string, ttl time.Duration) *RedisCheckpointStore {
	if prefix == "" {
		prefix = "careerflow"
	}
	return &RedisCheckpointStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisCheckpointStore) key(threadID string) string {
	return fmt.Sprintf("%s:checkpoint:%s", s.prefix, threadID)
}

// Save implements CheckpointStore.
func (s *RedisCheckpointStore) Save(ctx context.Context, threadID string, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(threadID), data, s.ttl).Err()
}

// Load implements CheckpointStore.
func (s *RedisCheckpointStore) Load(ctx context.Context, threadID string) (*State, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

// Delete implements CheckpointStore.
func (s *RedisCheckpointStore) Delete(ctx context.Context, threadID string) error {
	return s.client.Del(ctx, s.key(threadID)).Err()
}
