package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a fleet truck. Vehicles are created administratively
// and are only referenced, never owned, by trips.
type Vehicle struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlateNumber string             `bson:"plate_number" json:"plate_number"`
	Make        string             `bson:"make,omitempty" json:"make,omitempty"`
	Model       string             `bson:"model,omitempty" json:"model,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// NormalizePlate strips all whitespace from a plate number and uppercases
// it, so "ka 01 ab 1234" and "KA01AB1234" key the same vehicle.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}
