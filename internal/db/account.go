package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mainmast/fleet-ledger/internal/models"
)

// AccountCollection defines the interface for account database operations
type AccountCollection interface {
	InsertAccount(ctx context.Context, account models.Account) error
	FindAccountByIdentity(ctx context.Context, identity string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// MongoAccountCollection implements AccountCollection for MongoDB
type MongoAccountCollection struct {
	Collection *mongo.Collection
}

// InsertAccount inserts a new account. A duplicate identity returns ErrDuplicate.
func (c *MongoAccountCollection) InsertAccount(ctx context.Context, account models.Account) error {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.IsActive = true

	_, err := c.Collection.InsertOne(ctx, account)
	return translateErr(err)
}

// FindAccountByIdentity finds an account by its identity string.
func (c *MongoAccountCollection) FindAccountByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	var account models.Account
	err := c.Collection.FindOne(ctx, bson.M{"identity": identity}).Decode(&account)
	if err != nil {
		return nil, translateErr(err)
	}
	return &account, nil
}

// UpdateLastLogin updates the last login time for an account
func (c *MongoAccountCollection) UpdateLastLogin(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return err
}
