package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/ledger"
	"github.com/mainmast/fleet-ledger/internal/report"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeLedgerError maps the ledger error taxonomy to HTTP status codes.
// Unrecognized errors are store failures and surface verbatim; the
// caller may safely retry them because completed trips reject replays.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrTripNotFound),
		errors.Is(err, ledger.ErrVehicleNotFound),
		errors.Is(err, db.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrActiveTripExists),
		errors.Is(err, ledger.ErrTripNotActive),
		errors.Is(err, db.ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrForbidden), errors.Is(err, report.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
