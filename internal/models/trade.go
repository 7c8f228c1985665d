// Package models defines data structures for the portfolio analyzer
package models

import (
	"fmt"
	"strings"
	"time"
)

// Trade is one canonical ledger row. Proceeds carries the broker sign
// convention: negative for purchases, positive for sales. Quantity is
// positive for buys and negative for sells, Fee is always non-negative.
type Trade struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Proceeds   float64   `json:"proceeds"`
	Fee        float64   `json:"fee"`
	RealizedPL float64   `json:"realized_pl"`       // 0 when the source file has no Realized p/l column
	Currency   string    `json:"currency"`          // ISO 4217 code of Proceeds
	Source     string    `json:"source"`            // input file the row came from

	// Set by the currency normalizer. Nil means no conversion was
	// performed (rate unavailable or stage not run).
	NormalizedProceeds *float64 `json:"normalized_proceeds"`
}

// NetCash is the trade's contribution to the symbol's cash-flow series:
// market proceeds less commission. Negative for buys, positive for sells.
func (t Trade) NetCash() float64 {
	return t.Proceeds - t.Fee
}

// ReportProceeds returns the normalized amount when conversion succeeded,
// otherwise the native amount.
func (t Trade) ReportProceeds() float64 {
	if t.NormalizedProceeds != nil {
		return *t.NormalizedProceeds
	}
	return t.Proceeds
}

// FileReport captures per-file ingest outcomes.
type FileReport struct {
	File    string `json:"file"`
	Rows    int    `json:"rows"`    // data rows seen (header excluded)
	Loaded  int    `json:"loaded"`  // rows admitted to the ledger
	Dropped int    `json:"dropped"` // rows rejected by field-level parsing
}

// IngestResult is the ledger normalizer's output: the merged,
// time-ordered ledger plus per-file accounting.
type IngestResult struct {
	Trades  []Trade       `json:"trades"`
	Files   []FileReport  `json:"files"`
	Skipped []SchemaError `json:"skipped,omitempty"` // files rejected at schema level (continue-on-error mode)
}

// SchemaError reports a file whose header row is missing required
// columns. The whole file is rejected; no rows from it enter the ledger.
type SchemaError struct {
	File    string   `json:"file"`
	Missing []string `json:"missing"`
	Found   []string `json:"found"`
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns [%s] (found: %s)",
		e.File, strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}
