package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mainmast/fleet-ledger/internal/models"
)

// TripCollection defines the interface for trip database operations
type TripCollection interface {
	InsertTrip(ctx context.Context, trip models.Trip) error
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	FindActiveTripByVehicle(ctx context.Context, vehicleID string) (*models.Trip, error)
	FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error)
	IncrementAdvance(ctx context.Context, id string, amount float64) (bool, error)
	CompleteTrip(ctx context.Context, id string, endKm, totalFreight, driverBata float64) (bool, error)
	DeleteTrip(ctx context.Context, id string) error
}

// MongoTripCollection implements TripCollection for MongoDB
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a new trip. An insert that violates the partial
// unique index (another active trip for the same vehicle) returns
// ErrDuplicate.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip models.Trip) error {
	_, err := c.Collection.InsertOne(ctx, trip)
	return translateErr(err)
}

// FindTripByID finds a trip by its ID. A malformed ID behaves like a
// missing record.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var trip models.Trip
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		return nil, translateErr(err)
	}
	return &trip, nil
}

// FindActiveTripByVehicle finds the single active trip for a vehicle, if any.
func (c *MongoTripCollection) FindActiveTripByVehicle(ctx context.Context, vehicleID string) (*models.Trip, error) {
	var trip models.Trip
	err := c.Collection.FindOne(ctx, bson.M{
		"vehicle_id": vehicleID,
		"status":     models.TripStatusActive,
	}).Decode(&trip)
	if err != nil {
		return nil, translateErr(err)
	}
	return &trip, nil
}

// FindTrips queries trips matching the given filter, newest first.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// IncrementAdvance atomically bumps the advance total of a trip that is
// still active. Returns false if no active trip matched, which the
// caller disambiguates into not-found vs already-completed.
func (c *MongoTripCollection) IncrementAdvance(ctx context.Context, id string, amount float64) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": models.TripStatusActive},
		bson.M{
			"$inc": bson.M{"advance_total": amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// CompleteTrip performs the terminal transition: all four closing fields
// and the status flip in one atomic update, filtered on the trip still
// being active. A trip can therefore never be observed as completed with
// a nil end_km, and a replayed completion matches nothing.
func (c *MongoTripCollection) CompleteTrip(ctx context.Context, id string, endKm, totalFreight, driverBata float64) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": models.TripStatusActive},
		bson.M{"$set": bson.M{
			"status":        models.TripStatusCompleted,
			"end_km":        endKm,
			"total_freight": totalFreight,
			"driver_bata":   driverBata,
			"updated_at":    time.Now(),
		}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// DeleteTrip removes a trip outright. Only used to roll back a trip
// whose opening could not be fully persisted; completed trips are
// never deleted.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}
