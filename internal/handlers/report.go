package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mainmast/fleet-ledger/internal/middleware"
	"github.com/mainmast/fleet-ledger/internal/models"
	"github.com/mainmast/fleet-ledger/internal/report"
)

// ReportHandler exposes the financial aggregator
type ReportHandler struct {
	reports *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary returns aggregated financials over completed trips, optionally
// filtered by vehicle and date range. Passing status=active includes the
// current exposure of open trips instead.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	filter := report.Filter{
		VehicleID: r.URL.Query().Get("vehicle_id"),
		Status:    models.TripStatus(r.URL.Query().Get("status")),
	}

	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			http.Error(w, "Invalid 'from' timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		filter.From = parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			http.Error(w, "Invalid 'to' timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		filter.To = parsed
	}

	summary, err := h.reports.Summarize(r.Context(), session, filter)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Monthly returns a per-month profit and loss breakdown for a year
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}

	year := time.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	months, err := h.reports.Monthly(r.Context(), session, year, r.URL.Query().Get("vehicle_id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	if months == nil {
		months = []models.MonthlySummary{}
	}
	writeJSON(w, http.StatusOK, months)
}
