package models

import "time"

// RunDiagnostics aggregates everything that went sideways during a run
// without aborting it. One instance per pipeline execution.
type RunDiagnostics struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	Files        []FileReport `json:"files"`
	SchemaErrors []string     `json:"schema_errors,omitempty"` // rendered SchemaError messages
	RowsDropped  int          `json:"rows_dropped"`

	SplitEventsApplied int `json:"split_events_applied"`
	SplitRowsDropped   int `json:"split_rows_dropped"` // unparseable splits-CSV rows
	TradesAdjusted     int `json:"trades_adjusted"`

	RateMisses int `json:"rate_misses"` // no rate published for pair+date
	RateErrors int `json:"rate_errors"` // provider call failed

	SymbolsSkipped  []string          `json:"symbols_skipped,omitempty"`  // fewer than two trades
	SymbolsFailed   map[string]string `json:"symbols_failed,omitempty"`   // symbol -> failure reason
	TerminalMissing []string          `json:"terminal_missing,omitempty"` // open positions valued at 0
}

// RunResult is the pipeline's full output.
type RunResult struct {
	Trades      []Trade            `json:"trades"`
	Splits      SplitReport        `json:"splits"`
	Conversions []ConversionRecord `json:"conversions"`
	Results     []Result           `json:"results"`
	Holdings    []HoldingSummary   `json:"holdings"`
	Stats       PortfolioStats     `json:"stats"`
	Diagnostics RunDiagnostics     `json:"diagnostics"`
}
