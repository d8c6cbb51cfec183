package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConversationStore is a MongoDB-backed ConversationStore for
// multi-node deployments where Redis TTL semantics are not wanted.
type MongoConversationStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoConversationStore connects to MongoDB and ensures the indexes
// the query paths rely on.
func NewMongoConversationStore(ctx context.Context, cfg MongoConfig) (*MongoConversationStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	db := cfg.Database
	if db == "" {
		db = "careerflow"
	}
	collName := cfg.Collection
	if collName == "" {
		collName = "conversations"
	}
	coll := client.Database(db).Collection(collName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "turn_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.D{{Key: "turn_key", Value: bson.D{{Key: "$type", Value: "string"}}}},
			),
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &MongoConversationStore{client: client, coll: coll}, nil
}

// Ping implements Store.
func (s *MongoConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close implements Store.
func (s *MongoConversationStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Create implements ConversationStore. The unique partial index on
// (session_id, turn_key) makes replayed writes after a resume no-ops.
func (s *MongoConversationStore) Create(ctx context.Context, rec *ConversationRecord) error {
	if rec == nil {
		return ErrInvalidInput
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// FindByID implements ConversationStore.
func (s *MongoConversationStore) FindByID(ctx context.Context, id string) (*ConversationRecord, error) {
	var rec ConversationRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindBySessionID implements ConversationStore.
func (s *MongoConversationStore) FindBySessionID(ctx context.Context, sessionID string) ([]*ConversationRecord, error) {
	cursor, err := s.coll.Find(ctx,
		bson.D{{Key: "session_id", Value: sessionID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var out []*ConversationRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByUserID implements ConversationStore.
func (s *MongoConversationStore) FindByUserID(ctx context.Context, userID string, limit int) ([]*ConversationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	var out []*ConversationRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update implements ConversationStore.
func (s *MongoConversationStore) Update(ctx context.Context, rec *ConversationRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidInput
	}
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, rec)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements ConversationStore.
func (s *MongoConversationStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
