package models

import (
	"errors"
	"time"
)

// ErrInsufficientData means the cash-flow series cannot define an
// annualized return: fewer than two flows, or all flows on one date.
var ErrInsufficientData = errors.New("insufficient data")

// ErrNoConvergence means a return may exist but the solver could not
// find it, or no root exists (all flows share one sign).
var ErrNoConvergence = errors.New("no convergence")

// Failure reason strings rendered in exports
const (
	ReasonInsufficientData = "insufficient_data"
	ReasonNoConvergence    = "no_convergence"
)

// FailureReason maps a computation error to its export string.
// Returns "" for nil.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, ErrNoConvergence):
		return ReasonNoConvergence
	default:
		return err.Error()
	}
}

// CashFlow is one dated amount in an XIRR series. Negative amounts are
// outflows (purchases), positive are inflows (sales, terminal value).
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Result is the per-symbol XIRR outcome. Rate is meaningful only when
// Err is nil; Err is ErrInsufficientData or ErrNoConvergence.
type Result struct {
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
	Err    error   `json:"-"`
	Reason string  `json:"reason,omitempty"` // FailureReason(Err), kept for serialization
}

// ReturnsReport carries the computation's side observations.
type ReturnsReport struct {
	Skipped         []string `json:"skipped,omitempty"`          // symbols with fewer than two trades
	TerminalMissing []string `json:"terminal_missing,omitempty"` // open positions with no mark price, valued at 0
}
