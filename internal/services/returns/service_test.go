package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

type fakePriceProvider struct {
	prices       map[string]float64
	err          error
	calls        int
	lastSymbol   string
	lastDate     time.Time
	lastLookback int
}

func (f *fakePriceProvider) GetPriceOn(_ context.Context, symbol string, date time.Time, lookbackDays int) (float64, error) {
	f.calls++
	f.lastSymbol = symbol
	f.lastDate = date
	f.lastLookback = lookbackDays
	if f.err != nil {
		return 0, f.err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return 0, models.ErrPriceUnavailable
	}
	return price, nil
}

func newTestService(provider *fakePriceProvider) *Service {
	cfg := common.ReturnsConfig{Workers: 2}
	if provider == nil {
		return NewService(nil, cfg, common.NewSilentLogger())
	}
	return NewService(provider, cfg, common.NewSilentLogger())
}

func buyTrade(symbol string, date time.Time, qty, price float64) models.Trade {
	return models.Trade{
		Symbol:    symbol,
		Timestamp: date,
		Quantity:  qty,
		Price:     price,
		Proceeds:  -(qty * price),
		Currency:  "USD",
	}
}

func sellTrade(symbol string, date time.Time, qty, price float64) models.Trade {
	return models.Trade{
		Symbol:    symbol,
		Timestamp: date,
		Quantity:  -qty,
		Price:     price,
		Proceeds:  qty * price,
		Currency:  "USD",
	}
}

func TestCompute_ClosedPositionNeedsNoPrice(t *testing.T) {
	provider := &fakePriceProvider{prices: map[string]float64{"AAPL": 999}}
	svc := newTestService(provider)

	trades := []models.Trade{
		buyTrade("AAPL", day(2024, 1, 1), 10, 10),
		sellTrade("AAPL", day(2024, 12, 31), 10, 11),
	}

	results, report, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, results[0].Err)
	assert.InDelta(t, 0.10, results[0].Rate, 1e-4)
	assert.Equal(t, 0, provider.calls, "closed position must not trigger a price lookup")
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.TerminalMissing)
}

func TestCompute_SkipsSingleTradeSymbols(t *testing.T) {
	svc := newTestService(nil)

	trades := []models.Trade{
		buyTrade("ONE", day(2024, 1, 1), 10, 10),
		buyTrade("TWO", day(2024, 1, 1), 10, 10),
		sellTrade("TWO", day(2024, 6, 1), 10, 12),
	}

	results, report, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "TWO", results[0].Symbol)
	assert.Equal(t, []string{"ONE"}, report.Skipped)
}

func TestCompute_OpenPositionUsesTerminalPrice(t *testing.T) {
	provider := &fakePriceProvider{prices: map[string]float64{"VAS": 12}}
	svc := newTestService(provider)

	trades := []models.Trade{
		buyTrade("VAS", day(2024, 1, 1), 10, 10),
		buyTrade("VAS", day(2024, 7, 1), 10, 11),
	}

	results, report, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	// 20 units at 12 = 240 received on the last trade date against
	// outflows of 100 and 110.
	assert.InDelta(t, 0.692, results[0].Rate, 0.01)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "VAS", provider.lastSymbol)
	assert.Equal(t, day(2024, 7, 1), provider.lastDate)
	assert.Equal(t, 7, provider.lastLookback)
	assert.Empty(t, report.TerminalMissing)
}

func TestCompute_TerminalPriceMissingValuesAtZero(t *testing.T) {
	provider := &fakePriceProvider{prices: map[string]float64{}}
	svc := newTestService(provider)

	trades := []models.Trade{
		buyTrade("GONE", day(2024, 1, 1), 10, 10),
		sellTrade("GONE", day(2024, 12, 31), 5, 10),
	}

	results, report, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	// Half the position sold for 50 against 100 in; the unpriced
	// remainder counts for nothing, so the year cost -50%.
	assert.InDelta(t, -0.50, results[0].Rate, 1e-3)
	assert.Equal(t, []string{"GONE"}, report.TerminalMissing)
}

func TestCompute_NilProviderValuesOpenPositionsAtZero(t *testing.T) {
	svc := newTestService(nil)

	trades := []models.Trade{
		buyTrade("HODL", day(2024, 1, 1), 10, 10),
		sellTrade("HODL", day(2024, 12, 31), 5, 10),
	}

	results, report, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.InDelta(t, -0.50, results[0].Rate, 1e-3)
	assert.Equal(t, []string{"HODL"}, report.TerminalMissing)
}

func TestCompute_FailureReasonsAreDistinct(t *testing.T) {
	svc := newTestService(nil)

	trades := []models.Trade{
		// Two trades on one day: not enough distinct dates.
		buyTrade("SAME", day(2024, 3, 5), 10, 10),
		sellTrade("SAME", day(2024, 3, 5), 10, 11),
		// Buys only with no terminal value: no sign change, no root.
		buyTrade("SINK", day(2024, 1, 1), 10, 10),
		buyTrade("SINK", day(2024, 6, 1), 10, 10),
	}

	results, report, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, results, 2)

	bySymbol := make(map[string]models.Result)
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	assert.ErrorIs(t, bySymbol["SAME"].Err, models.ErrInsufficientData)
	assert.Equal(t, models.ReasonInsufficientData, bySymbol["SAME"].Reason)

	assert.ErrorIs(t, bySymbol["SINK"].Err, models.ErrNoConvergence)
	assert.Equal(t, models.ReasonNoConvergence, bySymbol["SINK"].Reason)

	assert.Equal(t, []string{"SINK"}, report.TerminalMissing)
}

func TestCompute_ResultOrderFollowsFirstSeen(t *testing.T) {
	svc := newTestService(nil)

	trades := []models.Trade{
		buyTrade("CCC", day(2024, 1, 1), 10, 10),
		buyTrade("AAA", day(2024, 1, 2), 10, 10),
		sellTrade("CCC", day(2024, 6, 1), 10, 12),
		buyTrade("BBB", day(2024, 1, 3), 10, 10),
		sellTrade("AAA", day(2024, 6, 1), 10, 12),
		sellTrade("BBB", day(2024, 6, 1), 10, 12),
	}

	results, _, err := svc.Compute(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, results, 3)

	got := []string{results[0].Symbol, results[1].Symbol, results[2].Symbol}
	assert.Equal(t, []string{"CCC", "AAA", "BBB"}, got)
}

func TestCompute_CancelledContext(t *testing.T) {
	svc := newTestService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trades := []models.Trade{
		buyTrade("AAPL", day(2024, 1, 1), 10, 10),
		sellTrade("AAPL", day(2024, 12, 31), 10, 11),
	}

	_, _, err := svc.Compute(ctx, trades)
	assert.ErrorIs(t, err, context.Canceled)
}
