package models

import "time"

// SplitEvent is one stock split. Ratio is new shares per old share:
// 4 for a 4-for-1 split, 0.1 for a 1-for-10 consolidation.
type SplitEvent struct {
	Symbol        string    `json:"symbol"`
	EffectiveDate time.Time `json:"effective_date"`
	Ratio         float64   `json:"ratio"`
	Source        string    `json:"source"` // "csv" or "provider"
}

// Split event source constants
const (
	SplitSourceCSV      = "csv"
	SplitSourceProvider = "provider"
)

// SplitReport summarizes one adjustment pass.
type SplitReport struct {
	Events          []SplitEvent `json:"events"`           // events applied, in application order
	TradesAdjusted  int          `json:"trades_adjusted"`  // trades scaled at least once
	AdjustedSymbols []string     `json:"adjusted_symbols"` // sorted, deduplicated
}
