package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConversationStore is a Redis-backed ConversationStore. Records are
// stored as JSON blobs; session and user indexes are sorted sets scored by
// creation time.
type RedisConversationStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisConversationStore connects to Redis and verifies the connection.
func NewRedisConversationStore(cfg RedisConfig) (*RedisConversationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "careerflow"
	}
	return &RedisConversationStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// NewRedisConversationStoreFromClient wraps an existing client, used by
// tests running against miniredis.
func NewRedisConversationStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisConversationStore {
	if prefix == "" {
		prefix = "careerflow"
	}
	return &RedisConversationStore{client: client, prefix: prefix, ttl: ttl}
}

// Ping implements Store.
func (s *RedisConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisConversationStore) Close() error {
	return s.client.Close()
}

// Create implements ConversationStore.
func (s *RedisConversationStore) Create(ctx context.Context, rec *ConversationRecord) error {
	if rec == nil {
		return ErrInvalidInput
	}

	if rec.TurnKey != "" {
		ok, err := s.client.SAdd(ctx, s.turnSetKey(rec.SessionID), rec.TurnKey).Result()
		if err != nil {
			return err
		}
		if ok == 0 {
			// Replayed write after a resume.
			return nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.client.Set(ctx, s.recordKey(rec.ID), data, s.ttl).Err(); err != nil {
		return err
	}

	score := float64(rec.CreatedAt.UnixNano())
	if err := s.client.ZAdd(ctx, s.sessionKey(rec.SessionID), redis.Z{Score: score, Member: rec.ID}).Err(); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, s.userKey(rec.UserID), redis.Z{Score: score, Member: rec.ID}).Err()
}

// FindByID implements ConversationStore.
func (s *RedisConversationStore) FindByID(ctx context.Context, id string) (*ConversationRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec ConversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// FindBySessionID implements ConversationStore.
func (s *RedisConversationStore) FindBySessionID(ctx context.Context, sessionID string) ([]*ConversationRecord, error) {
	ids, err := s.client.ZRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.loadAll(ctx, ids)
}

// FindByUserID implements ConversationStore.
func (s *RedisConversationStore) FindByUserID(ctx context.Context, userID string, limit int) ([]*ConversationRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, s.userKey(userID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	return s.loadAll(ctx, ids)
}

// Update implements ConversationStore.
func (s *RedisConversationStore) Update(ctx context.Context, rec *ConversationRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidInput
	}
	if _, err := s.FindByID(ctx, rec.ID); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return s.client.Set(ctx, s.recordKey(rec.ID), data, s.ttl).Err()
}

// Delete implements ConversationStore.
func (s *RedisConversationStore) Delete(ctx context.Context, id string) error {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.recordKey(id)).Err(); err != nil {
		return err
	}
	if err := s.client.ZRem(ctx, s.sessionKey(rec.SessionID), id).Err(); err != nil {
		return err
	}
	return s.client.ZRem(ctx, s.userKey(rec.UserID), id).Err()
}

func (s *RedisConversationStore) loadAll(ctx context.Context, ids []string) ([]*ConversationRecord, error) {
	out := make([]*ConversationRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // expired blob still indexed
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisConversationStore) recordKey(id string) string {
	return fmt.Sprintf("%s:conv:%s", s.prefix, id)
}

func (s *RedisConversationStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, sessionID)
}

func (s *RedisConversationStore) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

func (s *RedisConversationStore) turnSetKey(sessionID string) string {
	return fmt.Sprintf("%s:turns:%s", s.prefix, sessionID)
}
