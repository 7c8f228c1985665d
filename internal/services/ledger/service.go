// Package ledger normalizes raw brokerage trade exports into a single
// canonical, time-ordered trade ledger.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// Compile-time interface check
var _ interfaces.LedgerService = (*Service)(nil)

// Service implements LedgerService
type Service struct {
	defaultCurrency       string
	continueOnSchemaError bool
	logger                *common.Logger
}

// NewService creates a new ledger service
func NewService(cfg common.LedgerConfig, logger *common.Logger) *Service {
	return &Service{
		defaultCurrency:       cfg.DefaultCurrency,
		continueOnSchemaError: cfg.ContinueOnSchemaError,
		logger:                logger,
	}
}

// LoadFiles parses the given CSVs into one merged ledger sorted by
// timestamp ascending, ties keeping input order. Under the fail-fast
// policy (default) the first schema rejection aborts; otherwise the
// file is skipped and listed in the result.
func (s *Service) LoadFiles(ctx context.Context, paths []string) (*models.IngestResult, error) {
	result := &models.IngestResult{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trades, report, err := s.loadFile(path)
		if err != nil {
			var schemaErr models.SchemaError
			if errors.As(err, &schemaErr) && s.continueOnSchemaError {
				s.logger.Warn().Str("file", path).Strs("missing", schemaErr.Missing).Msg("Skipping file with rejected schema")
				result.Skipped = append(result.Skipped, schemaErr)
				continue
			}
			return nil, err
		}

		result.Trades = append(result.Trades, trades...)
		result.Files = append(result.Files, report)
	}

	// Stable: same-timestamp trades keep file and row order
	sort.SliceStable(result.Trades, func(i, j int) bool {
		return result.Trades[i].Timestamp.Before(result.Trades[j].Timestamp)
	})

	s.logger.Info().
		Int("files", len(result.Files)).
		Int("trades", len(result.Trades)).
		Int("skipped_files", len(result.Skipped)).
		Msg("Ledger loaded")

	return result, nil
}

// loadFile parses a single export. Row-level failures drop the row and
// count it; only unreadable files and schema rejections return errors.
func (s *Service) loadFile(path string) ([]models.Trade, models.FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.FileReport{}, fmt.Errorf("failed to open trade export %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // broker exports are occasionally ragged
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, models.FileReport{}, models.SchemaError{File: source, Missing: requiredColumns}
		}
		return nil, models.FileReport{}, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	cols := canonicalize(header)
	if err := checkSchema(source, cols); err != nil {
		return nil, models.FileReport{}, err
	}

	report := models.FileReport{File: source}
	var trades []models.Trade

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Rows++
			report.Dropped++
			s.logger.Debug().Str("file", source).Err(err).Msg("Dropping malformed CSV row")
			continue
		}

		report.Rows++
		trade, err := parseRow(row, cols, s.defaultCurrency, source)
		if err != nil {
			report.Dropped++
			s.logger.Debug().Str("file", source).Err(err).Msg("Dropping unparseable row")
			continue
		}

		trades = append(trades, trade)
		report.Loaded++
	}

	s.logger.Debug().
		Str("file", source).
		Int("rows", report.Rows).
		Int("loaded", report.Loaded).
		Int("dropped", report.Dropped).
		Msg("Trade export parsed")

	return trades, report, nil
}
