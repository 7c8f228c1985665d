package returns

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// Compile-time interface check
var _ interfaces.ReturnsService = (*Service)(nil)

// Service computes per-symbol annualized returns from the normalized ledger.
// Open positions are valued at the last trade date via the price provider;
// a nil provider leaves them at a zero placeholder.
type Service struct {
	provider interfaces.PriceProvider
	config   common.ReturnsConfig
	logger   *common.Logger
}

// NewService creates a returns service. provider may be nil.
func NewService(provider interfaces.PriceProvider, config common.ReturnsConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &Service{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Compute groups trades by symbol and solves XIRR for each group across a
// bounded worker pool. Results come back in the order symbols first appear
// in the input. Symbols with fewer than two trades are skipped and listed
// in the report rather than failed.
func (s *Service) Compute(ctx context.Context, trades []models.Trade) ([]models.Result, *models.ReturnsReport, error) {
	order := make([]string, 0)
	groups := make(map[string][]models.Trade)
	for _, trade := range trades {
		if _, ok := groups[trade.Symbol]; !ok {
			order = append(order, trade.Symbol)
		}
		groups[trade.Symbol] = append(groups[trade.Symbol], trade)
	}

	report := &models.ReturnsReport{}
	eligible := make([]string, 0, len(order))
	for _, symbol := range order {
		if len(groups[symbol]) < 2 {
			report.Skipped = append(report.Skipped, symbol)
			s.logger.Debug().
				Str("symbol", symbol).
				Int("trades", len(groups[symbol])).
				Msg("Skipping symbol with fewer than two trades")
			continue
		}
		eligible = append(eligible, symbol)
	}

	results := make([]models.Result, len(eligible))
	workers := s.config.GetWorkers()
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, symbol := range eligible {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().
						Str("symbol", sym).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(debug.Stack())).
						Msg("Recovered from panic in returns worker")
					err := fmt.Errorf("panic: %v", r)
					results[idx] = models.Result{Symbol: sym, Err: err, Reason: models.FailureReason(err)}
				}
			}()
			results[idx] = s.computeSymbol(ctx, sym, groups[sym], report, &mu)
		}(i, symbol)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info().
		Int("symbols", len(eligible)).
		Int("skipped", len(report.Skipped)).
		Int("failed", failed).
		Int("workers", workers).
		Msg("Return computation complete")

	return results, report, nil
}

// computeSymbol builds the cash flow series for one symbol and solves it.
// Trades count their native proceeds net of fees; an open position adds a
// terminal flow at the last trade date valued by the price provider.
func (s *Service) computeSymbol(ctx context.Context, symbol string, trades []models.Trade, report *models.ReturnsReport, mu *sync.Mutex) models.Result {
	flows := make([]models.CashFlow, 0, len(trades)+1)
	netQty := 0.0
	var last time.Time
	for _, trade := range trades {
		flows = append(flows, models.CashFlow{Date: trade.Timestamp, Amount: trade.NetCash()})
		netQty += trade.Quantity
		if trade.Timestamp.After(last) {
			last = trade.Timestamp
		}
	}

	if math.Abs(netQty) > 1e-9 {
		amount := 0.0
		price, err := s.terminalPrice(ctx, symbol, last)
		if err != nil {
			mu.Lock()
			report.TerminalMissing = append(report.TerminalMissing, symbol)
			mu.Unlock()
			s.logger.Warn().
				Str("symbol", symbol).
				Float64("net_quantity", netQty).
				Str("date", last.Format("2006-01-02")).
				Err(err).
				Msg("No terminal price for open position, valuing at zero")
		} else {
			amount = netQty * price
		}
		flows = append(flows, models.CashFlow{Date: last, Amount: amount})
	}

	rate, err := Xirr(flows)
	if err != nil {
		return models.Result{Symbol: symbol, Err: err, Reason: models.FailureReason(err)}
	}
	return models.Result{Symbol: symbol, Rate: rate}
}

func (s *Service) terminalPrice(ctx context.Context, symbol string, date time.Time) (float64, error) {
	if s.provider == nil {
		return 0, models.ErrPriceUnavailable
	}
	return s.provider.GetPriceOn(ctx, symbol, date, s.config.GetPriceLookback())
}
