package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mainmast/fleet-ledger/internal/models"
)

// JournalCollection defines the interface for journal entry operations.
// The journal is append-only: there is deliberately no update or delete.
type JournalCollection interface {
	InsertEntry(ctx context.Context, entry models.JournalEntry) error
	FindByTrip(ctx context.Context, tripID string) ([]models.JournalEntry, error)
	FindByTripAndKind(ctx context.Context, tripID string, kind models.JournalKind) ([]models.JournalEntry, error)
}

// MongoJournalCollection implements JournalCollection for MongoDB
type MongoJournalCollection struct {
	Collection *mongo.Collection
}

// InsertEntry appends a journal entry, stamping its creation time.
func (c *MongoJournalCollection) InsertEntry(ctx context.Context, entry models.JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := c.Collection.InsertOne(ctx, entry)
	return translateErr(err)
}

// FindByTrip returns all journal entries for a trip in insertion order.
func (c *MongoJournalCollection) FindByTrip(ctx context.Context, tripID string) ([]models.JournalEntry, error) {
	return c.find(ctx, bson.M{"trip_id": tripID})
}

// FindByTripAndKind returns a trip's entries of one kind in insertion order.
func (c *MongoJournalCollection) FindByTripAndKind(ctx context.Context, tripID string, kind models.JournalKind) ([]models.JournalEntry, error) {
	return c.find(ctx, bson.M{"trip_id": tripID, "kind": kind})
}

func (c *MongoJournalCollection) find(ctx context.Context, filter bson.M) ([]models.JournalEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
