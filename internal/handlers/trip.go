package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mainmast/fleet-ledger/internal/journal"
	"github.com/mainmast/fleet-ledger/internal/ledger"
	"github.com/mainmast/fleet-ledger/internal/middleware"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// TripHandler handles trip lifecycle requests
type TripHandler struct {
	ledger  *ledger.Ledger
	journal *journal.Journal
}

// NewTripHandler creates a new trip handler
func NewTripHandler(ldg *ledger.Ledger, jnl *journal.Journal) *TripHandler {
	return &TripHandler{ledger: ldg, journal: jnl}
}

type startTripRequest struct {
	VehicleID      string  `json:"vehicle_id"`
	DriverName     string  `json:"driver_name"`
	FromLocation   string  `json:"from_location"`
	ToLocation     string  `json:"to_location"`
	StartKm        float64 `json:"start_km"`
	InitialAdvance float64 `json:"initial_advance"`
}

// Start opens a trip for a vehicle
func (h *TripHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	var req startTripRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Drivers may omit the vehicle ID; it resolves from their plate.
	if req.VehicleID == "" && !session.IsAdmin() {
		vehicle, err := h.ledger.VehicleForSession(r.Context(), session)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		req.VehicleID = vehicle.ID.Hex()
	}

	trip, err := h.ledger.StartTrip(r.Context(), session, ledger.StartTripInput{
		VehicleID:      req.VehicleID,
		DriverName:     req.DriverName,
		FromLocation:   req.FromLocation,
		ToLocation:     req.ToLocation,
		StartKm:        req.StartKm,
		InitialAdvance: req.InitialAdvance,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

type advanceRequest struct {
	Amount float64 `json:"amount"`
}

// Advance records a cash advance against an active trip
func (h *TripHandler) Advance(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	var req advanceRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trip, err := h.ledger.RecordAdvance(r.Context(), session, r.PathValue("id"), req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

type expenseRequest struct {
	Category    models.ExpenseCategory `json:"category"`
	Subtype     models.ExpenseSubtype  `json:"subtype,omitempty"`
	Description string                 `json:"description,omitempty"`
	Amount      float64                `json:"amount"`
}

// Expense records an expense against an active trip
func (h *TripHandler) Expense(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.ledger.RecordExpense(r.Context(), session, r.PathValue("id"), ledger.ExpenseInput{
		Category:    req.Category,
		Subtype:     req.Subtype,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

type endTripRequest struct {
	EndKm        float64 `json:"end_km"`
	TotalFreight float64 `json:"total_freight"`
	DriverBata   float64 `json:"driver_bata"`
}

// End performs the terminal close of a trip
func (h *TripHandler) End(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	var req endTripRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trip, err := h.ledger.EndTrip(r.Context(), session, r.PathValue("id"), ledger.EndTripInput{
		EndKm:        req.EndKm,
		TotalFreight: req.TotalFreight,
		DriverBata:   req.DriverBata,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// Active returns the session vehicle's active trip, if any
func (h *TripHandler) Active(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		vehicle, err := h.ledger.VehicleForSession(r.Context(), session)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		vehicleID = vehicle.ID.Hex()
	}

	trip, err := h.ledger.ActiveTrip(r.Context(), session, vehicleID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// List returns trips visible to the session
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	trips, err := h.ledger.ListTrips(
		r.Context(),
		session,
		r.URL.Query().Get("vehicle_id"),
		models.TripStatus(r.URL.Query().Get("status")),
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	if trips == nil {
		trips = []models.Trip{}
	}
	writeJSON(w, http.StatusOK, trips)
}

// Journal returns a trip's journal entries with per-category sums and
// the re-derived advance total
func (h *TripHandler) Journal(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	tripID := r.PathValue("id")

	// Authorization rides on the trip lookup.
	if _, err := h.ledger.Trip(r.Context(), session, tripID); err != nil {
		writeLedgerError(w, err)
		return
	}

	entries, err := h.journal.EntriesByTrip(r.Context(), tripID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	sums, err := h.journal.SumByCategory(r.Context(), tripID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	advanceTotal, err := h.journal.AdvanceTotal(r.Context(), tripID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":          entries,
		"sums_by_category": sums,
		"advance_total":    advanceTotal,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
