// Package interfaces defines service contracts for the portfolio analyzer
package interfaces

import (
	"context"

	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// LedgerService normalizes raw trade exports into the canonical ledger.
type LedgerService interface {
	// LoadFiles parses the given CSVs into one time-ordered ledger.
	// Schema-level rejections either abort (fail-fast policy) or are
	// collected into the result's Skipped list.
	LoadFiles(ctx context.Context, paths []string) (*models.IngestResult, error)
}

// SplitService loads split events and applies them retroactively.
type SplitService interface {
	// LoadEvents reads the splits CSV. A missing file yields an empty
	// set; unparseable rows are dropped and counted.
	LoadEvents(path string) ([]models.SplitEvent, int, error)

	// FetchProviderEvents merges provider-known splits for the given
	// symbols into events. CSV events win on duplicate symbol+date.
	FetchProviderEvents(ctx context.Context, symbols []string, events []models.SplitEvent) []models.SplitEvent

	// Apply adjusts quantities and prices of trades executed strictly
	// before each event's effective date. The input slice is not
	// modified.
	Apply(trades []models.Trade, events []models.SplitEvent) ([]models.Trade, models.SplitReport)
}

// CurrencyService converts trade proceeds into the target currency.
type CurrencyService interface {
	// Normalize sets NormalizedProceeds on each trade where a rate is
	// available and emits one audit record per trade, in ledger order.
	Normalize(ctx context.Context, trades []models.Trade) ([]models.Trade, []models.ConversionRecord, error)
}

// ReturnsService computes per-symbol annualized money-weighted returns.
type ReturnsService interface {
	// Compute builds each symbol's cash-flow series and solves for its
	// rate. Symbols with fewer than two trades are skipped and listed
	// in the report. Result order follows first appearance in trades.
	Compute(ctx context.Context, trades []models.Trade) ([]models.Result, *models.ReturnsReport, error)
}

// ReportService aggregates outcomes and writes delimited exports.
type ReportService interface {
	// Summarize computes per-symbol holdings and portfolio stats.
	Summarize(trades []models.Trade, results []models.Result) ([]models.HoldingSummary, models.PortfolioStats)

	// ExportAll writes the ledger, conversion audit, results and
	// holdings CSVs into dir. Returns the written paths.
	ExportAll(dir string, run *models.RunResult) ([]string, error)
}
