package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus is the lifecycle state of a trip. A trip is created active
// and moves to completed exactly once; there is no cancel or reopen.
type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
)

// Trip represents one vehicle journey from start odometer to end odometer
// with its associated cash flows. The closing fields (EndKm, TotalFreight,
// DriverBata) stay nil until the trip is completed and are always set
// together with the status flip.
type Trip struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID    string             `bson:"vehicle_id" json:"vehicle_id"`
	DriverName   string             `bson:"driver_name" json:"driver_name"`
	FromLocation string             `bson:"from_location" json:"from_location"`
	ToLocation   string             `bson:"to_location" json:"to_location"`
	StartKm      float64            `bson:"start_km" json:"start_km"`
	EndKm        *float64           `bson:"end_km,omitempty" json:"end_km,omitempty"`
	AdvanceTotal float64            `bson:"advance_total" json:"advance_total"`
	TotalFreight *float64           `bson:"total_freight,omitempty" json:"total_freight,omitempty"`
	DriverBata   *float64           `bson:"driver_bata,omitempty" json:"driver_bata,omitempty"`
	Status       TripStatus         `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the trip is still open for ledger writes.
func (t *Trip) IsActive() bool {
	return t.Status == TripStatusActive
}
