package models

import (
	"errors"
	"time"
)

// ErrRateUnavailable is returned by rate providers when no rate is
// published for the requested currency pair and date. Transport and
// HTTP-level failures are returned as their own error types, never
// collapsed into this one.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ErrPriceUnavailable is returned by price providers when no close
// price exists inside the lookup window.
var ErrPriceUnavailable = errors.New("price unavailable")

// ConversionStatus classifies the outcome of one row's normalization.
type ConversionStatus string

const (
	ConversionStatusConverted   ConversionStatus = "converted"   // rate found, amount converted
	ConversionStatusIdentity    ConversionStatus = "identity"    // trade already in target currency
	ConversionStatusUnavailable ConversionStatus = "unavailable" // provider has no rate for the date
	ConversionStatusError       ConversionStatus = "error"       // provider call failed (transport, HTTP)
)

// ConversionRecord is one audit-log entry. Exactly one is emitted per
// processed trade, in ledger order.
type ConversionRecord struct {
	Symbol    string           `json:"symbol"`
	Date      time.Time        `json:"date"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Rate      float64          `json:"rate"` // 0 when unavailable
	Available bool             `json:"available"`
	Status    ConversionStatus `json:"status"`
}
