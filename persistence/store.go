// Package persistence provides the conversation persistence collaborator:
// session/message records behind a CRUD contract. The orchestration core
// never issues raw queries; it only consumes ConversationStore.
package persistence

import (
	"context"
	"errors"
	"time"
)

// Common store errors.
var (
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("record not found")
)

// Store is the base contract every backing store implements.
type Store interface {
	// Ping checks whether the store is reachable and healthy.
	Ping(ctx context.Context) error
	// Close releases the store's resources.
	Close() error
}

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// MongoConfig configures the MongoDB-backed store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}
