package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/middleware"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// VehicleHandler handles the administrative vehicle registry
type VehicleHandler struct {
	vehicles db.VehicleCollection
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicles db.VehicleCollection) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type createVehicleRequest struct {
	PlateNumber string `json:"plate_number"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Create registers a new vehicle. Admin only.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}
	if !session.IsAdmin() {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	var req createVehicleRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plate := models.NormalizePlate(req.PlateNumber)
	if plate == "" {
		http.Error(w, "Plate number is required", http.StatusBadRequest)
		return
	}

	vehicle := models.Vehicle{
		ID:          primitive.NewObjectID(),
		PlateNumber: plate,
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
	}

	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			http.Error(w, "A vehicle with this plate already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, vehicle)
}

// List returns all registered vehicles. Admin only.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}
	if !session.IsAdmin() {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}
