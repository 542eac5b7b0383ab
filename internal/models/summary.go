package models

// Summary holds the raw financial sums over a set of trips. All figures
// are exposed independently so any netting formula can be composed over
// them; NetProfit is derived from the configured profit policy.
type Summary struct {
	TripCount          int                         `json:"trip_count"`
	TotalFreight       float64                     `json:"total_freight"`
	TotalBata          float64                     `json:"total_bata"`
	TotalAdvances      float64                     `json:"total_advances"`
	TotalExpenses      float64                     `json:"total_expenses"`
	ExpensesByCategory map[ExpenseCategory]float64 `json:"expenses_by_category"`
	NetProfit          float64                     `json:"net_profit"`
}

// MonthlySummary is one month's bucket of a yearly profit-and-loss report.
type MonthlySummary struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Summary
}
