package guard

import (
	"context"
	"fmt"
	"time"

	"slotkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "slot_guards"

// MongoGuard stores guards as documents keyed by the guard key; the unique
// _id makes a concurrent insert fail. A TTL index on expires_at (created by
// the migrations) removes abandoned guards, and expired ones are also
// replaced on Acquire since the TTL monitor runs only once a minute.
type MongoGuard struct {
	collection *mongo.Collection
}

func NewMongoGuard(db *mongo.Database) *MongoGuard {
	return &MongoGuard{collection: db.Collection(CollectionName)}
}

func (g *MongoGuard) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	guard := model.SlotGuard{ID: key, Owner: owner, ExpiresAt: now.Add(ttl)}

	_, err := g.collection.InsertOne(ctx, guard)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to acquire slot guard: %w", err)
	}

	result, err := g.collection.ReplaceOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		guard,
	)
	if err != nil {
		return false, fmt.Errorf("failed to take over expired slot guard: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (g *MongoGuard) Release(ctx context.Context, key, owner string) error {
	if _, err := g.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release slot guard: %w", err)
	}
	return nil
}
