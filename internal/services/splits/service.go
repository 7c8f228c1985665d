// Package splits applies retroactive stock-split adjustments to the
// trade ledger.
package splits

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// Compile-time interface check
var _ interfaces.SplitService = (*Service)(nil)

// Service implements SplitService
type Service struct {
	provider interfaces.SplitProvider // optional
	logger   *common.Logger
}

// NewService creates a new split service. provider may be nil.
func NewService(provider interfaces.SplitProvider, logger *common.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Splits CSV columns
const (
	colSymbol = "Symbol"
	colDate   = "Date"
	colRatio  = "Split Ratio"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// LoadEvents reads the splits CSV. A missing file yields an empty set.
// Rows with bad dates or non-positive ratios are dropped and counted.
func (s *Service) LoadEvents(path string) ([]models.SplitEvent, int, error) {
	if path == "" {
		return nil, 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("file", path).Msg("No splits file, skipping adjustment")
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open splits file %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, want := range []string{colSymbol, colDate, colRatio} {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		found := make([]string, 0, len(cols))
		for name := range cols {
			found = append(found, name)
		}
		return nil, 0, models.SchemaError{File: source, Missing: missing, Found: found}
	}

	var events []models.SplitEvent
	dropped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}

		ev, ok := parseEventRow(row, cols)
		if !ok {
			dropped++
			s.logger.Debug().Str("file", source).Strs("row", row).Msg("Dropping unparseable split row")
			continue
		}
		events = append(events, ev)
	}

	s.logger.Info().
		Str("file", source).
		Int("events", len(events)).
		Int("dropped", dropped).
		Msg("Split events loaded")

	return events, dropped, nil
}

func parseEventRow(row []string, cols map[string]int) (models.SplitEvent, bool) {
	get := func(name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	symbol := get(colSymbol)
	if symbol == "" {
		return models.SplitEvent{}, false
	}

	var date time.Time
	var err error
	for _, layout := range dateLayouts {
		if date, err = time.Parse(layout, get(colDate)); err == nil {
			break
		}
	}
	if err != nil {
		return models.SplitEvent{}, false
	}

	ratio, err := strconv.ParseFloat(strings.ReplaceAll(get(colRatio), ",", ""), 64)
	if err != nil || ratio <= 0 {
		return models.SplitEvent{}, false
	}

	return models.SplitEvent{
		Symbol:        symbol,
		EffectiveDate: date,
		Ratio:         ratio,
		Source:        models.SplitSourceCSV,
	}, true
}

// FetchProviderEvents merges provider-known splits for the given
// symbols into events. CSV events win on duplicate symbol+date.
// Provider failures are logged and skipped; nothing here is fatal.
func (s *Service) FetchProviderEvents(ctx context.Context, symbols []string, events []models.SplitEvent) []models.SplitEvent {
	if s.provider == nil {
		return events
	}

	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		seen[eventKey(ev.Symbol, ev.EffectiveDate)] = true
	}

	merged := events
	for _, symbol := range symbols {
		provided, err := s.provider.GetSplits(ctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Split provider lookup failed")
			continue
		}
		for _, ev := range provided {
			key := eventKey(ev.Symbol, ev.EffectiveDate)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, ev)
		}
	}

	return merged
}

func eventKey(symbol string, date time.Time) string {
	return symbol + "|" + date.Format("2006-01-02")
}

// Apply adjusts every trade executed strictly before each event's
// effective date: quantity multiplied by the ratio, price divided by
// it, and proceeds re-derived as -(quantity x price) so the invariant
// holds exactly after repeated adjustment. Events apply in effective-
// date order, making multi-split compounding independent of input
// order. The input slice is not modified.
func (s *Service) Apply(trades []models.Trade, events []models.SplitEvent) ([]models.Trade, models.SplitReport) {
	out := make([]models.Trade, len(trades))
	copy(out, trades)

	if len(events) == 0 {
		return out, models.SplitReport{}
	}

	ordered := make([]models.SplitEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].EffectiveDate.Equal(ordered[j].EffectiveDate) {
			return ordered[i].Symbol < ordered[j].Symbol
		}
		return ordered[i].EffectiveDate.Before(ordered[j].EffectiveDate)
	})

	touched := make(map[int]bool)
	symbols := make(map[string]bool)

	for _, ev := range ordered {
		if ev.Ratio <= 0 {
			s.logger.Debug().Str("symbol", ev.Symbol).Float64("ratio", ev.Ratio).Msg("Ignoring non-positive split ratio")
			continue
		}
		for i := range out {
			if out[i].Symbol != ev.Symbol || !out[i].Timestamp.Before(ev.EffectiveDate) {
				continue
			}
			out[i].Quantity *= ev.Ratio
			out[i].Price /= ev.Ratio
			out[i].Proceeds = -(out[i].Quantity * out[i].Price)
			touched[i] = true
			symbols[ev.Symbol] = true
		}
	}

	report := models.SplitReport{
		Events:         ordered,
		TradesAdjusted: len(touched),
	}
	for symbol := range symbols {
		report.AdjustedSymbols = append(report.AdjustedSymbols, symbol)
	}
	sort.Strings(report.AdjustedSymbols)

	if report.TradesAdjusted > 0 {
		s.logger.Info().
			Int("events", len(ordered)).
			Int("trades_adjusted", report.TradesAdjusted).
			Strs("symbols", report.AdjustedSymbols).
			Msg("Split adjustment applied")
	}

	return out, report
}
