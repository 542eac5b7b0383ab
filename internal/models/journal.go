package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JournalKind partitions journal entries into the two cash-movement kinds.
type JournalKind string

const (
	JournalKindExpense JournalKind = "expense"
	JournalKindAdvance JournalKind = "advance"
)

// ExpenseCategory is the closed set of expense categories.
type ExpenseCategory string

const (
	CategoryDiesel ExpenseCategory = "Diesel"
	CategoryAdBlue ExpenseCategory = "AdBlue"
	CategoryOther  ExpenseCategory = "Other"
)

// ExpenseSubtype is the closed set of subtypes for the Other category.
// SubtypeCustom additionally requires a free-text description.
type ExpenseSubtype string

const (
	SubtypeToll           ExpenseSubtype = "Toll"
	SubtypeGrease         ExpenseSubtype = "Grease"
	SubtypeTireRetreading ExpenseSubtype = "Tire Retreading"
	SubtypeCustom         ExpenseSubtype = "Custom"
)

// IsValidCategory checks if an expense category is one of the known values.
func IsValidCategory(c ExpenseCategory) bool {
	switch c {
	case CategoryDiesel, CategoryAdBlue, CategoryOther:
		return true
	default:
		return false
	}
}

// IsValidSubtype checks if an Other-expense subtype is one of the known values.
func IsValidSubtype(s ExpenseSubtype) bool {
	switch s {
	case SubtypeToll, SubtypeGrease, SubtypeTireRetreading, SubtypeCustom:
		return true
	default:
		return false
	}
}

// JournalEntry is one immutable cash movement against an active trip.
// Entries are append-only; totals are always re-derivable by folding over
// a trip's entries rather than trusting a cached aggregate.
type JournalEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TripID      string             `bson:"trip_id" json:"trip_id"`
	Kind        JournalKind        `bson:"kind" json:"kind"`
	Category    ExpenseCategory    `bson:"category,omitempty" json:"category,omitempty"`
	Subtype     ExpenseSubtype     `bson:"subtype,omitempty" json:"subtype,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Amount      float64            `bson:"amount" json:"amount"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
