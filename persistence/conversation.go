package persistence

import (
	"context"
	"time"

	"github.com/connectcareer/careerflow/types"
)

// ConversationRecord is one durably persisted conversation message.
type ConversationRecord struct {
	ID        string         `json:"id" bson:"_id"`
	UserID    string         `json:"user_id" bson:"user_id"`
	SessionID string         `json:"session_id" bson:"session_id"`
	Role      types.Role     `json:"role" bson:"role"`
	Message   string         `json:"message" bson:"message"`
	Intent    string         `json:"intent,omitempty" bson:"intent,omitempty"`
	Entities  map[string]any `json:"entities,omitempty" bson:"entities,omitempty"`
	AgentName string         `json:"agent_name,omitempty" bson:"agent_name,omitempty"`
	// TurnKey dedupes writes replayed after a checkpoint resume: a record
	// with an already-seen (SessionID, TurnKey) pair is dropped by Create.
	TurnKey   string         `json:"turn_key,omitempty" bson:"turn_key,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// ConversationStore is the persistence collaborator contract.
type ConversationStore interface {
	Store

	// Create persists a record, assigning ID and CreatedAt when unset.
	// Records whose (SessionID, TurnKey) pair was already written are
	// ignored, which makes turn replays after a resume idempotent.
	Create(ctx context.Context, rec *ConversationRecord) error

	// FindByID retrieves a record by ID.
	FindByID(ctx context.Context, id string) (*ConversationRecord, error)

	// FindBySessionID retrieves all records for a session in creation order.
	FindBySessionID(ctx context.Context, sessionID string) ([]*ConversationRecord, error)

	// FindByUserID retrieves up to limit most recent records for a user.
	FindByUserID(ctx context.Context, userID string, limit int) ([]*ConversationRecord, error)

	// Update replaces a record's mutable fields.
	Update(ctx context.Context, rec *ConversationRecord) error

	// Delete removes a record by ID.
	Delete(ctx context.Context, id string) error
}
