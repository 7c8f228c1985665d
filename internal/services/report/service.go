// Package report aggregates the ledger into holdings and portfolio
// statistics and writes the run's delimited exports.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// Compile-time interface check
var _ interfaces.ReportService = (*Service)(nil)

// Service implements ReportService
type Service struct {
	logger *common.Logger
}

// NewService creates a new report service
func NewService(logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &Service{logger: logger}
}

// Summarize folds the ledger into per-symbol holdings (input first-seen
// order) and portfolio-level stats. Rate statistics cover converged
// results only; std-dev needs at least two samples.
func (s *Service) Summarize(trades []models.Trade, results []models.Result) ([]models.HoldingSummary, models.PortfolioStats) {
	order := make([]string, 0)
	agg := make(map[string]*models.HoldingSummary)
	for _, trade := range trades {
		h, ok := agg[trade.Symbol]
		if !ok {
			h = &models.HoldingSummary{Symbol: trade.Symbol}
			agg[trade.Symbol] = h
			order = append(order, trade.Symbol)
		}
		h.NetQuantity += trade.Quantity
		h.RealizedPL += trade.RealizedPL
		h.Trades++
	}

	holdings := make([]models.HoldingSummary, 0, len(order))
	stats := models.PortfolioStats{
		TotalTrades: len(trades),
		Symbols:     len(order),
	}
	for _, symbol := range order {
		h := *agg[symbol]
		holdings = append(holdings, h)
		stats.TotalRealizedPL += h.RealizedPL
	}

	stats.TopGainers = topByRealizedPL(holdings, true)
	stats.TopLosers = topByRealizedPL(holdings, false)

	rates := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			rates = append(rates, r.Rate)
		}
	}
	stats.RatesComputed = len(rates)
	if len(rates) > 0 {
		stats.RateMean = stat.Mean(rates, nil)
	}
	if len(rates) > 1 {
		stats.RateStdDev = stat.StdDev(rates, nil)
	}

	s.logger.Info().
		Int("symbols", stats.Symbols).
		Int("trades", stats.TotalTrades).
		Float64("realized_pl", stats.TotalRealizedPL).
		Int("rates_computed", stats.RatesComputed).
		Msg("Portfolio summarized")

	return holdings, stats
}

// topByRealizedPL ranks holdings by realized P/L and returns at most five.
// Gainers are strictly positive, losers strictly negative; a flat book
// yields empty lists.
func topByRealizedPL(holdings []models.HoldingSummary, gainers bool) []models.HoldingSummary {
	ranked := make([]models.HoldingSummary, 0, len(holdings))
	for _, h := range holdings {
		if (gainers && h.RealizedPL > 0) || (!gainers && h.RealizedPL < 0) {
			ranked = append(ranked, h)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if gainers {
			return ranked[i].RealizedPL > ranked[j].RealizedPL
		}
		return ranked[i].RealizedPL < ranked[j].RealizedPL
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return ranked
}

// ExportAll writes the run's artifacts into dir: the normalized ledger,
// the conversion audit log, per-symbol return results, and the holdings
// summary. Returns the paths written.
func (s *Service) ExportAll(dir string, run *models.RunResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	exports := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"ledger.csv", ledgerHeader, ledgerRows(run.Trades)},
		{"conversions.csv", conversionHeader, conversionRows(run.Conversions)},
		{"returns.csv", resultHeader, resultRows(run.Results)},
		{"holdings.csv", holdingHeader, holdingRows(run.Holdings)},
	}

	written := make([]string, 0, len(exports))
	for _, e := range exports {
		path := filepath.Join(dir, e.name)
		if err := writeCSV(path, e.header, e.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	s.logger.Info().
		Str("dir", dir).
		Int("files", len(written)).
		Msg("Exports written")

	return written, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

var (
	ledgerHeader     = []string{"symbol", "timestamp", "quantity", "price", "proceeds", "fee", "realized_pl", "currency", "normalized_proceeds", "source"}
	conversionHeader = []string{"symbol", "date", "from", "to", "rate", "available", "status"}
	resultHeader     = []string{"symbol", "rate", "reason"}
	holdingHeader    = []string{"symbol", "net_quantity", "realized_pl", "trades"}
)

func ledgerRows(trades []models.Trade) [][]string {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		normalized := ""
		if t.NormalizedProceeds != nil {
			normalized = formatFloat(*t.NormalizedProceeds)
		}
		rows = append(rows, []string{
			t.Symbol,
			t.Timestamp.Format("2006-01-02 15:04:05"),
			formatFloat(t.Quantity),
			formatFloat(t.Price),
			formatFloat(t.Proceeds),
			formatFloat(t.Fee),
			formatFloat(t.RealizedPL),
			t.Currency,
			normalized,
			t.Source,
		})
	}
	return rows
}

func conversionRows(records []models.ConversionRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Symbol,
			r.Date.Format("2006-01-02"),
			r.From,
			r.To,
			formatFloat(r.Rate),
			strconv.FormatBool(r.Available),
			string(r.Status),
		})
	}
	return rows
}

func resultRows(results []models.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rate := ""
		if r.Err == nil {
			rate = formatFloat(r.Rate)
		}
		rows = append(rows, []string{r.Symbol, rate, r.Reason})
	}
	return rows
}

func holdingRows(holdings []models.HoldingSummary) [][]string {
	rows := make([][]string, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, []string{
			h.Symbol,
			formatFloat(h.NetQuantity),
			formatFloat(h.RealizedPL),
			strconv.Itoa(h.Trades),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
