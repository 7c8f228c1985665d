// Package interfaces defines service contracts for the portfolio analyzer
package interfaces

import (
	"context"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// RateProvider supplies historical exchange rates.
type RateProvider interface {
	// GetRate returns the rate converting one unit of from into to on
	// the given date. Returns models.ErrRateUnavailable when no rate
	// is published for that pair and date; other errors indicate the
	// lookup itself failed.
	GetRate(ctx context.Context, from, to string, date time.Time) (float64, error)
}

// PriceProvider supplies end-of-day close prices.
type PriceProvider interface {
	// GetPriceOn returns the close price for symbol on date, falling
	// back to the nearest earlier trading day inside lookbackDays.
	// Returns models.ErrPriceUnavailable when the window is empty.
	GetPriceOn(ctx context.Context, symbol string, date time.Time, lookbackDays int) (float64, error)
}

// SplitProvider supplies historical stock split events.
type SplitProvider interface {
	// GetSplits returns all known splits for symbol, oldest first.
	GetSplits(ctx context.Context, symbol string) ([]models.SplitEvent, error)
}
