package journal

import (
	"context"

	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// Journal is the append-only record of cash movements underlying ledger
// totals. Totals are always computed by folding over a trip's entries,
// so the cached advance_total on a trip stays re-derivable and auditable.
type Journal struct {
	entries db.JournalCollection
}

// New creates a journal over the given entry collection.
func New(entries db.JournalCollection) *Journal {
	return &Journal{entries: entries}
}

// Append records one immutable entry.
func (j *Journal) Append(ctx context.Context, entry models.JournalEntry) error {
	return j.entries.InsertEntry(ctx, entry)
}

// EntriesByTrip returns all entries for a trip in insertion order.
func (j *Journal) EntriesByTrip(ctx context.Context, tripID string) ([]models.JournalEntry, error) {
	return j.entries.FindByTrip(ctx, tripID)
}

// SumByCategory folds a trip's expense entries into per-category totals.
func (j *Journal) SumByCategory(ctx context.Context, tripID string) (map[models.ExpenseCategory]float64, error) {
	entries, err := j.entries.FindByTripAndKind(ctx, tripID, models.JournalKindExpense)
	if err != nil {
		return nil, err
	}

	sums := make(map[models.ExpenseCategory]float64)
	for _, e := range entries {
		sums[e.Category] += e.Amount
	}
	return sums, nil
}

// AdvanceTotal folds a trip's advance entries into their running total.
func (j *Journal) AdvanceTotal(ctx context.Context, tripID string) (float64, error) {
	entries, err := j.entries.FindByTripAndKind(ctx, tripID, models.JournalKindAdvance)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	return total, nil
}
