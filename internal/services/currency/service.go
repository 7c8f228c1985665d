// Package currency normalizes trade proceeds into a single target
// currency using point-in-time exchange rates.
package currency

import (
	"context"
	"errors"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// Compile-time interface check
var _ interfaces.CurrencyService = (*Service)(nil)

// Service implements CurrencyService
type Service struct {
	provider interfaces.RateProvider // optional
	target   string
	logger   *common.Logger
}

// NewService creates a new currency service. provider may be nil, in
// which case only same-currency trades are normalized.
func NewService(provider interfaces.RateProvider, target string, logger *common.Logger) *Service {
	return &Service{
		provider: provider,
		target:   target,
		logger:   logger,
	}
}

// Normalize converts each trade's proceeds at its trade-date rate and
// emits one audit record per trade, in ledger order. A trade already
// in the target currency is recorded at rate 1 without a provider
// call. Rows with no published rate and rows whose lookup failed keep
// NormalizedProceeds nil; the two cases carry distinct statuses.
func (s *Service) Normalize(ctx context.Context, trades []models.Trade) ([]models.Trade, []models.ConversionRecord, error) {
	out := make([]models.Trade, len(trades))
	copy(out, trades)

	records := make([]models.ConversionRecord, 0, len(out))
	misses, failures := 0, 0

	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		tr := &out[i]
		date := dateOf(tr.Timestamp)
		rec := models.ConversionRecord{
			Symbol: tr.Symbol,
			Date:   date,
			From:   tr.Currency,
			To:     s.target,
		}

		switch {
		case tr.Currency == s.target:
			v := tr.Proceeds
			tr.NormalizedProceeds = &v
			rec.Rate = 1
			rec.Available = true
			rec.Status = models.ConversionStatusIdentity

		case s.provider == nil:
			rec.Status = models.ConversionStatusUnavailable
			misses++

		default:
			rate, err := s.provider.GetRate(ctx, tr.Currency, s.target, date)
			switch {
			case err == nil:
				v := tr.Proceeds * rate
				tr.NormalizedProceeds = &v
				rec.Rate = rate
				rec.Available = true
				rec.Status = models.ConversionStatusConverted

			case errors.Is(err, models.ErrRateUnavailable):
				rec.Status = models.ConversionStatusUnavailable
				misses++
				s.logger.Debug().
					Str("symbol", tr.Symbol).
					Str("from", tr.Currency).
					Time("date", date).
					Msg("No exchange rate for trade date")

			case ctx.Err() != nil:
				return nil, nil, ctx.Err()

			default:
				rec.Status = models.ConversionStatusError
				failures++
				s.logger.Warn().Err(err).
					Str("symbol", tr.Symbol).
					Str("from", tr.Currency).
					Time("date", date).
					Msg("Rate lookup failed")
			}
		}

		records = append(records, rec)
	}

	s.logger.Info().
		Int("trades", len(out)).
		Int("rate_misses", misses).
		Int("rate_errors", failures).
		Str("target", s.target).
		Msg("Currency normalization complete")

	return out, records, nil
}

// dateOf truncates a trade timestamp to its calendar day; published
// rates are daily.
func dateOf(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
