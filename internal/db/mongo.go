package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mainmast/fleet-ledger/internal/models"
)

// Collection names
const (
	CollVehicles = "vehicles"
	CollTrips    = "trips"
	CollJournal  = "journal_entries"
	CollAccounts = "accounts"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness index.
	ErrDuplicate = errors.New("duplicate record")
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the ledger invariants depend on. The
// partial unique index on trips is what actually guarantees at most one
// active trip per vehicle; the application-level pre-check only exists
// for a friendlier error message.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(CollTrips).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "vehicle_id", Value: 1}},
		Options: options.Index().
			SetName("one_active_trip_per_vehicle").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": string(models.TripStatusActive)}),
	})
	if err != nil {
		return fmt.Errorf("failed to create trip index: %w", err)
	}

	_, err = database.Collection(CollVehicles).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "plate_number", Value: 1}},
		Options: options.Index().SetName("unique_plate_number").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create vehicle index: %w", err)
	}

	_, err = database.Collection(CollAccounts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identity", Value: 1}},
		Options: options.Index().SetName("unique_identity").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create account index: %w", err)
	}

	_, err = database.Collection(CollJournal).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "trip_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("journal_by_trip"),
	})
	if err != nil {
		return fmt.Errorf("failed to create journal index: %w", err)
	}

	return nil
}

// translateErr maps driver errors to the package sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
