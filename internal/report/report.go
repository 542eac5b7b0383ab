package report

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/journal"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// ErrForbidden is returned when a non-admin session requests a report
// outside its own vehicle.
var ErrForbidden = errors.New("session is not permitted to view this report")

// ProfitPolicy selects how advances reconcile against freight when
// deriving net profit. The raw sums are always exposed alongside, so any
// other formula can be composed without re-deriving data.
type ProfitPolicy string

const (
	// PolicyFreightMinusCosts nets freight against expenses and bata.
	PolicyFreightMinusCosts ProfitPolicy = "freight_minus_costs"
	// PolicyDeductAdvances additionally treats disbursed advances as
	// unrecovered cash out.
	PolicyDeductAdvances ProfitPolicy = "deduct_advances"
)

// Net applies the policy to the raw sums.
func (p ProfitPolicy) Net(freight, expenses, bata, advances float64) float64 {
	net := freight - expenses - bata
	if p == PolicyDeductAdvances {
		net -= advances
	}
	return net
}

// Filter narrows a summary to a vehicle, date range, or trip status.
// An empty status means completed trips only; callers wanting current
// exposure ask for active trips explicitly.
type Filter struct {
	VehicleID string
	From      time.Time
	To        time.Time
	Status    models.TripStatus
}

// Service is a read-only projection over the ledger's trip history and
// journal. It never mutates state.
type Service struct {
	trips    db.TripCollection
	vehicles db.VehicleCollection
	journal  *journal.Journal
	policy   ProfitPolicy
}

// New creates a report service with the given profit policy.
func New(trips db.TripCollection, vehicles db.VehicleCollection, jnl *journal.Journal, policy ProfitPolicy) *Service {
	if policy == "" {
		policy = PolicyFreightMinusCosts
	}
	return &Service{trips: trips, vehicles: vehicles, journal: jnl, policy: policy}
}

// Summarize folds the matching trips and their journals into raw
// financial sums plus the policy-derived net profit.
func (s *Service) Summarize(ctx context.Context, session models.Session, filter Filter) (*models.Summary, error) {
	if err := s.scope(ctx, session, &filter); err != nil {
		return nil, err
	}

	trips, err := s.trips.FindTrips(ctx, buildTripFilter(filter, "created_at"))
	if err != nil {
		return nil, err
	}
	return s.fold(ctx, trips)
}

// Monthly buckets a year's completed trips into per-month summaries,
// keyed by the month the trip closed. The year window therefore also
// applies to the close time, so a trip started in December and closed
// in January lands in January's bucket of the later year.
func (s *Service) Monthly(ctx context.Context, session models.Session, year int, vehicleID string) ([]models.MonthlySummary, error) {
	filter := Filter{
		VehicleID: vehicleID,
		From:      time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:    models.TripStatusCompleted,
	}
	if err := s.scope(ctx, session, &filter); err != nil {
		return nil, err
	}

	trips, err := s.trips.FindTrips(ctx, buildTripFilter(filter, "updated_at"))
	if err != nil {
		return nil, err
	}

	buckets := make(map[time.Month][]models.Trip)
	for _, trip := range trips {
		buckets[trip.UpdatedAt.Month()] = append(buckets[trip.UpdatedAt.Month()], trip)
	}

	var out []models.MonthlySummary
	for month := time.January; month <= time.December; month++ {
		monthTrips, ok := buckets[month]
		if !ok {
			continue
		}
		summary, err := s.fold(ctx, monthTrips)
		if err != nil {
			return nil, err
		}
		out = append(out, models.MonthlySummary{
			Year:    year,
			Month:   int(month),
			Summary: *summary,
		})
	}
	return out, nil
}

// scope forces driver sessions onto their own vehicle.
func (s *Service) scope(ctx context.Context, session models.Session, filter *Filter) error {
	if session.IsAdmin() {
		return nil
	}
	if session.VehiclePlate == "" {
		return ErrForbidden
	}
	vehicle, err := s.vehicles.FindVehicleByPlate(ctx, session.VehiclePlate)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	vehicleID := vehicle.ID.Hex()
	if filter.VehicleID != "" && filter.VehicleID != vehicleID {
		return ErrForbidden
	}
	filter.VehicleID = vehicleID
	return nil
}

// buildTripFilter turns a Filter into a mongo query. timeField selects
// which timestamp the From/To window applies to.
func buildTripFilter(filter Filter, timeField string) bson.M {
	query := bson.M{}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	status := filter.Status
	if status == "" {
		status = models.TripStatusCompleted
	}
	query["status"] = status
	if !filter.From.IsZero() || !filter.To.IsZero() {
		window := bson.M{}
		if !filter.From.IsZero() {
			window["$gte"] = filter.From
		}
		if !filter.To.IsZero() {
			window["$lt"] = filter.To
		}
		query[timeField] = window
	}
	return query
}

func (s *Service) fold(ctx context.Context, trips []models.Trip) (*models.Summary, error) {
	summary := &models.Summary{
		TripCount:          len(trips),
		ExpensesByCategory: make(map[models.ExpenseCategory]float64),
	}

	for _, trip := range trips {
		if trip.TotalFreight != nil {
			summary.TotalFreight += *trip.TotalFreight
		}
		if trip.DriverBata != nil {
			summary.TotalBata += *trip.DriverBata
		}

		advances, err := s.journal.AdvanceTotal(ctx, trip.ID.Hex())
		if err != nil {
			return nil, err
		}
		summary.TotalAdvances += advances

		byCategory, err := s.journal.SumByCategory(ctx, trip.ID.Hex())
		if err != nil {
			return nil, err
		}
		for category, amount := range byCategory {
			summary.ExpensesByCategory[category] += amount
			summary.TotalExpenses += amount
		}
	}

	summary.NetProfit = s.policy.Net(
		summary.TotalFreight,
		summary.TotalExpenses,
		summary.TotalBata,
		summary.TotalAdvances,
	)
	return summary, nil
}
