package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/events"
	"github.com/mainmast/fleet-ledger/internal/journal"
	"github.com/mainmast/fleet-ledger/internal/models"
)

var (
	// ErrValidation covers malformed or out-of-range input; the caller
	// should correct and resubmit.
	ErrValidation = errors.New("validation failed")
	// ErrTripNotFound is returned when the referenced trip does not exist.
	ErrTripNotFound = errors.New("trip not found")
	// ErrVehicleNotFound is returned when the referenced vehicle does not exist.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrTripNotActive is returned for ledger writes against a completed
	// trip. Completion is terminal; a replayed operation is rejected here
	// rather than double-applied.
	ErrTripNotActive = errors.New("trip is not active")
	// ErrActiveTripExists is returned when starting a trip would violate
	// the one-active-trip-per-vehicle invariant.
	ErrActiveTripExists = errors.New("an active trip already exists for this vehicle")
	// ErrForbidden is returned when a driver session acts on a vehicle
	// other than its own.
	ErrForbidden = errors.New("session is not permitted to act on this vehicle")
)

// Ledger enforces the trip lifecycle state machine and its financial
// invariants. Every operation takes the caller's session explicitly.
type Ledger struct {
	trips    db.TripCollection
	vehicles db.VehicleCollection
	journal  *journal.Journal
	events   events.Publisher
}

// New creates a ledger over the given collaborators.
func New(trips db.TripCollection, vehicles db.VehicleCollection, jnl *journal.Journal, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Ledger{
		trips:    trips,
		vehicles: vehicles,
		journal:  jnl,
		events:   publisher,
	}
}

// StartTripInput carries the fields needed to open a trip.
type StartTripInput struct {
	VehicleID      string
	DriverName     string
	FromLocation   string
	ToLocation     string
	StartKm        float64
	InitialAdvance float64
}

func (in StartTripInput) validate() error {
	if strings.TrimSpace(in.DriverName) == "" {
		return fmt.Errorf("%w: driver name is required", ErrValidation)
	}
	if strings.TrimSpace(in.FromLocation) == "" {
		return fmt.Errorf("%w: from location is required", ErrValidation)
	}
	if strings.TrimSpace(in.ToLocation) == "" {
		return fmt.Errorf("%w: to location is required", ErrValidation)
	}
	if in.StartKm < 0 {
		return fmt.Errorf("%w: start odometer must not be negative", ErrValidation)
	}
	if in.InitialAdvance < 0 {
		return fmt.Errorf("%w: initial advance must not be negative", ErrValidation)
	}
	return nil
}

// StartTrip opens a trip for a vehicle. The one-active-trip-per-vehicle
// invariant is guaranteed by the store's partial unique index; the
// pre-check below only produces a friendlier error on the common path.
func (l *Ledger) StartTrip(ctx context.Context, session models.Session, in StartTripInput) (*models.Trip, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	vehicle, err := l.vehicles.FindVehicleByID(ctx, in.VehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	if err := l.authorize(session, vehicle.PlateNumber); err != nil {
		return nil, err
	}

	if _, err := l.trips.FindActiveTripByVehicle(ctx, in.VehicleID); err == nil {
		return nil, ErrActiveTripExists
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	trip := models.Trip{
		ID:           primitive.NewObjectID(),
		VehicleID:    in.VehicleID,
		DriverName:   strings.TrimSpace(in.DriverName),
		FromLocation: strings.TrimSpace(in.FromLocation),
		ToLocation:   strings.TrimSpace(in.ToLocation),
		StartKm:      in.StartKm,
		Status:       models.TripStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.trips.InsertTrip(ctx, trip); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			// Lost the race against a concurrent StartTrip; the index held.
			return nil, ErrActiveTripExists
		}
		return nil, err
	}

	// The initial advance goes through the same increment-then-append
	// path as RecordAdvance, so the cached total never disagrees with
	// the journal. If either step fails the freshly inserted trip is
	// deleted and the opening reports failure with no state left behind.
	if in.InitialAdvance > 0 {
		if _, err := l.trips.IncrementAdvance(ctx, trip.ID.Hex(), in.InitialAdvance); err != nil {
			l.rollbackOpen(ctx, trip.ID.Hex())
			return nil, err
		}
		entry := models.JournalEntry{
			TripID:    trip.ID.Hex(),
			Kind:      models.JournalKindAdvance,
			Amount:    in.InitialAdvance,
			CreatedAt: now,
		}
		if err := l.journal.Append(ctx, entry); err != nil {
			log.WithError(err).WithField("trip_id", trip.ID.Hex()).
				Error("failed to journal initial advance")
			l.rollbackOpen(ctx, trip.ID.Hex())
			return nil, err
		}
		trip.AdvanceTotal = in.InitialAdvance
	}

	log.WithFields(log.Fields{
		"trip_id":    trip.ID.Hex(),
		"vehicle_id": trip.VehicleID,
		"driver":     trip.DriverName,
	}).Info("trip started")
	l.events.TripStarted(&trip)

	return &trip, nil
}

// rollbackOpen removes a trip whose opening could not be fully persisted.
func (l *Ledger) rollbackOpen(ctx context.Context, tripID string) {
	if err := l.trips.DeleteTrip(ctx, tripID); err != nil {
		log.WithError(err).WithField("trip_id", tripID).
			Error("failed to roll back trip opening")
	}
}

// RecordAdvance appends an advance journal entry and bumps the trip's
// advance total with a filtered atomic increment, never a blind
// overwrite. The increment only matches a still-active trip, so the
// total is frozen the moment the trip completes.
func (l *Ledger) RecordAdvance(ctx context.Context, session models.Session, tripID string, amount float64) (*models.Trip, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: advance amount must be greater than zero", ErrValidation)
	}

	trip, err := l.loadAuthorized(ctx, session, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsActive() {
		return nil, ErrTripNotActive
	}

	matched, err := l.trips.IncrementAdvance(ctx, tripID, amount)
	if err != nil {
		return nil, err
	}
	if !matched {
		// Completed between the read above and the increment.
		return nil, ErrTripNotActive
	}

	entry := models.JournalEntry{
		TripID:    tripID,
		Kind:      models.JournalKindAdvance,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := l.journal.Append(ctx, entry); err != nil {
		// Keep the cached total consistent with the journal.
		if _, derr := l.trips.IncrementAdvance(ctx, tripID, -amount); derr != nil {
			log.WithError(derr).WithField("trip_id", tripID).
				Error("failed to roll back advance increment")
		}
		return nil, err
	}

	log.WithFields(log.Fields{"trip_id": tripID, "amount": amount}).Info("advance recorded")

	return l.trips.FindTripByID(ctx, tripID)
}

// ExpenseInput carries the fields needed to record an expense.
type ExpenseInput struct {
	Category    models.ExpenseCategory
	Subtype     models.ExpenseSubtype
	Description string
	Amount      float64
}

func (in ExpenseInput) validate() error {
	if !models.IsValidCategory(in.Category) {
		return fmt.Errorf("%w: unknown expense category %q", ErrValidation, in.Category)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: expense amount must be greater than zero", ErrValidation)
	}
	if in.Category == models.CategoryOther {
		if !models.IsValidSubtype(in.Subtype) {
			return fmt.Errorf("%w: a subtype is required for Other expenses", ErrValidation)
		}
		if in.Subtype == models.SubtypeCustom && strings.TrimSpace(in.Description) == "" {
			return fmt.Errorf("%w: a description is required for Custom expenses", ErrValidation)
		}
	}
	return nil
}

// RecordExpense appends an expense journal entry against an active trip.
func (l *Ledger) RecordExpense(ctx context.Context, session models.Session, tripID string, in ExpenseInput) (*models.JournalEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	trip, err := l.loadAuthorized(ctx, session, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsActive() {
		return nil, ErrTripNotActive
	}

	entry := models.JournalEntry{
		TripID:    tripID,
		Kind:      models.JournalKindExpense,
		Category:  in.Category,
		Amount:    in.Amount,
		CreatedAt: time.Now(),
	}
	if in.Category == models.CategoryOther {
		entry.Subtype = in.Subtype
		if in.Subtype == models.SubtypeCustom {
			entry.Description = strings.TrimSpace(in.Description)
		}
	}

	if err := l.journal.Append(ctx, entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"trip_id":  tripID,
		"category": in.Category,
		"amount":   in.Amount,
	}).Info("expense recorded")

	return &entry, nil
}

// EndTripInput carries the closing fields of a trip.
type EndTripInput struct {
	EndKm        float64
	TotalFreight float64
	DriverBata   float64
}

// EndTrip performs the terminal transition to completed. All closing
// fields are written atomically with the status flip; once completed the
// trip is frozen and the vehicle returns to idle.
func (l *Ledger) EndTrip(ctx context.Context, session models.Session, tripID string, in EndTripInput) (*models.Trip, error) {
	trip, err := l.loadAuthorized(ctx, session, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsActive() {
		return nil, ErrTripNotActive
	}

	if in.EndKm <= trip.StartKm {
		return nil, fmt.Errorf("%w: end odometer must be greater than start odometer (%.1f)", ErrValidation, trip.StartKm)
	}
	if in.TotalFreight < 0 {
		return nil, fmt.Errorf("%w: total freight must not be negative", ErrValidation)
	}
	if in.DriverBata < 0 {
		return nil, fmt.Errorf("%w: driver bata must not be negative", ErrValidation)
	}

	matched, err := l.trips.CompleteTrip(ctx, tripID, in.EndKm, in.TotalFreight, in.DriverBata)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrTripNotActive
	}

	closed, err := l.trips.FindTripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"trip_id":    tripID,
		"vehicle_id": closed.VehicleID,
		"end_km":     in.EndKm,
	}).Info("trip completed")
	l.events.TripCompleted(closed)

	return closed, nil
}

// ActiveTrip returns the active trip for a vehicle, or ErrTripNotFound
// when the vehicle is idle.
func (l *Ledger) ActiveTrip(ctx context.Context, session models.Session, vehicleID string) (*models.Trip, error) {
	vehicle, err := l.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	if err := l.authorize(session, vehicle.PlateNumber); err != nil {
		return nil, err
	}

	trip, err := l.trips.FindActiveTripByVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

// VehicleForSession resolves the vehicle a driver session belongs to.
func (l *Ledger) VehicleForSession(ctx context.Context, session models.Session) (*models.Vehicle, error) {
	if session.VehiclePlate == "" {
		return nil, ErrVehicleNotFound
	}
	vehicle, err := l.vehicles.FindVehicleByPlate(ctx, session.VehiclePlate)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return vehicle, nil
}

// ListTrips returns trips visible to the session. Drivers are scoped to
// their own vehicle; admins may filter by vehicle and status.
func (l *Ledger) ListTrips(ctx context.Context, session models.Session, vehicleID string, status models.TripStatus) ([]models.Trip, error) {
	if !session.IsAdmin() {
		vehicle, err := l.VehicleForSession(ctx, session)
		if err != nil {
			return nil, err
		}
		vehicleID = vehicle.ID.Hex()
	}

	filter := bson.M{}
	if vehicleID != "" {
		filter["vehicle_id"] = vehicleID
	}
	if status != "" {
		filter["status"] = status
	}
	return l.trips.FindTrips(ctx, filter)
}

// Trip returns a single trip if the session may see it.
func (l *Ledger) Trip(ctx context.Context, session models.Session, tripID string) (*models.Trip, error) {
	return l.loadAuthorized(ctx, session, tripID)
}

// loadAuthorized loads a trip and checks the session may act on its vehicle.
func (l *Ledger) loadAuthorized(ctx context.Context, session models.Session, tripID string) (*models.Trip, error) {
	trip, err := l.trips.FindTripByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if !session.IsAdmin() {
		vehicle, err := l.vehicles.FindVehicleByID(ctx, trip.VehicleID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, ErrVehicleNotFound
			}
			return nil, err
		}
		if err := l.authorize(session, vehicle.PlateNumber); err != nil {
			return nil, err
		}
	}

	return trip, nil
}

func (l *Ledger) authorize(session models.Session, plate string) error {
	if session.IsAdmin() {
		return nil
	}
	if session.VehiclePlate != models.NormalizePlate(plate) {
		return ErrForbidden
	}
	return nil
}
