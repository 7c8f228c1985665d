package returns

import (
	"math"
	"sort"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

const (
	newtonSeed    = 0.10
	newtonMaxIter = 100
	newtonTol     = 1e-7
	bisectMaxIter = 200
	bisectTol     = 1e-6
	minRate       = -0.999
	maxRate       = 100.0
)

// Xirr solves for the annualized rate r such that the net present value of
// the dated flows is zero:
//
//	sum(amount_i / (1+r)^(days_i/365)) = 0
//
// Day counts are taken against the earliest flow, with timestamps truncated
// to calendar days. The returned rate is a decimal (0.10 = 10%).
//
// Failure modes are distinguished: fewer than two flows, or flows that all
// fall on the same day, yield models.ErrInsufficientData; flows that admit
// no root (all the same sign) or defeat both solvers yield
// models.ErrNoConvergence.
func Xirr(flows []models.CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, models.ErrInsufficientData
	}

	sorted := make([]models.CashFlow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// Day counts relative to the first flow. Sorted ascending, so all
	// flows share one day iff the last offset is zero.
	anchor := dayOf(sorted[0].Date)
	years := make([]float64, len(sorted))
	for i, f := range sorted {
		days := dayOf(f.Date).Sub(anchor).Hours() / 24
		years[i] = days / 365.0
	}
	if years[len(years)-1] == 0 {
		return 0, models.ErrInsufficientData
	}

	hasNeg, hasPos := false, false
	for _, f := range sorted {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		// XNPV is strictly one-signed; no root exists.
		return 0, models.ErrNoConvergence
	}

	if rate, ok := newton(sorted, years); ok {
		return rate, nil
	}
	if rate, ok := bisect(sorted, years); ok {
		return rate, nil
	}
	return 0, models.ErrNoConvergence
}

// newton runs Newton-Raphson with the analytic XNPV derivative. The rate is
// clamped to (minRate, maxRate] each step so the discount base stays
// positive.
func newton(flows []models.CashFlow, years []float64) (float64, bool) {
	rate := newtonSeed
	for iter := 0; iter < newtonMaxIter; iter++ {
		base := 1 + rate
		if base <= 0 {
			rate = minRate
			base = 1 + rate
		}

		npv := 0.0
		dnpv := 0.0
		for i, f := range flows {
			discount := math.Pow(base, years[i])
			npv += f.Amount / discount
			dnpv -= years[i] * f.Amount / (discount * base)
		}
		if math.IsNaN(npv) || math.IsInf(npv, 0) {
			return 0, false
		}
		if math.Abs(npv) < newtonTol {
			return rate, true
		}
		if dnpv == 0 || math.IsNaN(dnpv) || math.IsInf(dnpv, 0) {
			return 0, false
		}

		next := rate - npv/dnpv
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if next <= minRate {
			next = minRate + 1e-9
		}
		if next > maxRate {
			next = maxRate
		}
		rate = next
	}
	return 0, false
}

// bisect is the fallback when Newton diverges or oscillates. It brackets
// the root on [-0.99, 10] and halves until the NPV is within tolerance.
func bisect(flows []models.CashFlow, years []float64) (float64, bool) {
	npvAt := func(rate float64) float64 {
		base := 1 + rate
		if base <= 0 {
			return math.NaN()
		}
		npv := 0.0
		for i, f := range flows {
			npv += f.Amount / math.Pow(base, years[i])
		}
		return npv
	}

	lo, hi := -0.99, 10.0
	npvLo := npvAt(lo)
	npvHi := npvAt(hi)
	if math.IsNaN(npvLo) || math.IsNaN(npvHi) {
		return 0, false
	}
	if npvLo*npvHi > 0 {
		// Root lies outside the bracket.
		return 0, false
	}

	for iter := 0; iter < bisectMaxIter; iter++ {
		mid := (lo + hi) / 2
		npvMid := npvAt(mid)
		if math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < bisectTol {
			return mid, true
		}
		if npvLo*npvMid < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}
	return (lo + hi) / 2, true
}

// dayOf truncates a timestamp to its calendar day in UTC.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
