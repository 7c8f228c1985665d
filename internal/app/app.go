// Package app wires configuration, clients, and services into the
// one-shot analysis pipeline used by cmd/analyzer.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vimal2645/portfolio-analyzer/internal/clients/eodhd"
	"github.com/vimal2645/portfolio-analyzer/internal/clients/frankfurter"
	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
	"github.com/vimal2645/portfolio-analyzer/internal/services/currency"
	"github.com/vimal2645/portfolio-analyzer/internal/services/ledger"
	"github.com/vimal2645/portfolio-analyzer/internal/services/report"
	"github.com/vimal2645/portfolio-analyzer/internal/services/returns"
	"github.com/vimal2645/portfolio-analyzer/internal/services/splits"
	"github.com/vimal2645/portfolio-analyzer/internal/storage/ratecache"
)

// App holds all initialized clients and services.
type App struct {
	Config *common.Config
	Logger *common.Logger

	RateProvider  interfaces.RateProvider
	PriceProvider interfaces.PriceProvider
	SplitProvider interfaces.SplitProvider
	RateCache     *ratecache.Store // nil when caching is disabled

	LedgerService   interfaces.LedgerService
	SplitService    interfaces.SplitService
	CurrencyService interfaces.CurrencyService
	ReturnsService  interfaces.ReturnsService
	ReportService   interfaces.ReportService

	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes all clients and services.
// configPath may be empty, in which case ANALYZER_CONFIG, then the binary
// directory, then config/analyzer.toml are tried.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	if configPath == "" {
		configPath = os.Getenv("ANALYZER_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "analyzer.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/analyzer.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig initializes clients and services from an already
// loaded configuration. Providers are optional: without an FX source the
// currency stage converts identity rows only, and without an EODHD key
// open positions are valued at zero.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	var rateProvider interfaces.RateProvider
	switch config.Currency.Provider {
	case "frankfurter":
		rateProvider = frankfurter.NewClient(
			frankfurter.WithBaseURL(config.Clients.Frankfurter.BaseURL),
			frankfurter.WithLogger(logger),
			frankfurter.WithRateLimit(config.Clients.Frankfurter.RateLimit),
			frankfurter.WithTimeout(config.Clients.Frankfurter.GetTimeout()),
		)
	case "", "none":
		logger.Warn().Msg("No FX provider configured - only identity conversions will be available")
	default:
		return nil, fmt.Errorf("unknown currency provider: %s", config.Currency.Provider)
	}

	var rateCache *ratecache.Store
	if config.Currency.CacheDir != "" {
		store, err := ratecache.NewStore(config.Currency.CacheDir, rateProvider, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate cache: %w", err)
		}
		rateCache = store
		rateProvider = store
	}

	var priceProvider interfaces.PriceProvider
	var splitProvider interfaces.SplitProvider
	if key := config.Clients.EODHD.APIKey; key != "" {
		client := eodhd.NewClient(key,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		)
		priceProvider = client
		splitProvider = client
	} else {
		logger.Warn().Msg("EODHD API key not configured - terminal prices and provider splits unavailable")
	}

	a := &App{
		Config: config,
		Logger: logger,

		RateProvider:  rateProvider,
		PriceProvider: priceProvider,
		SplitProvider: splitProvider,
		RateCache:     rateCache,

		LedgerService:   ledger.NewService(config.Ledger, logger),
		SplitService:    splits.NewService(splitProvider, logger),
		CurrencyService: currency.NewService(rateProvider, config.Currency.Target, logger),
		ReturnsService:  returns.NewService(priceProvider, config.Returns, logger),
		ReportService:   report.NewService(logger),

		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Run executes the pipeline once: ledger → splits → currency → returns →
// report. Row- and symbol-level problems aggregate into the result's
// diagnostics; the returned error is reserved for config, IO, and schema
// failures.
func (a *App) Run(ctx context.Context) (*models.RunResult, error) {
	runID := uuid.New().String()[:8]
	started := time.Now()

	a.Logger.Info().
		Str("run_id", runID).
		Strs("inputs", a.Config.Inputs).
		Str("target_currency", a.Config.Currency.Target).
		Msg("Starting analysis run")

	if len(a.Config.Inputs) == 0 {
		return nil, fmt.Errorf("no input files configured")
	}

	ingest, err := a.LedgerService.LoadFiles(ctx, a.Config.Inputs)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	events, eventRowsDropped, err := a.SplitService.LoadEvents(a.Config.SplitsFile)
	if err != nil {
		return nil, fmt.Errorf("load split events: %w", err)
	}
	events = a.SplitService.FetchProviderEvents(ctx, symbolsOf(ingest.Trades), events)
	adjusted, splitReport := a.SplitService.Apply(ingest.Trades, events)

	normalized, conversions, err := a.CurrencyService.Normalize(ctx, adjusted)
	if err != nil {
		return nil, fmt.Errorf("normalize currencies: %w", err)
	}

	results, returnsReport, err := a.ReturnsService.Compute(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("compute returns: %w", err)
	}

	holdings, stats := a.ReportService.Summarize(normalized, results)

	finished := time.Now()
	run := &models.RunResult{
		Trades:      normalized,
		Splits:      splitReport,
		Conversions: conversions,
		Results:     results,
		Holdings:    holdings,
		Stats:       stats,
		Diagnostics: buildDiagnostics(runID, started, finished, ingest, eventRowsDropped, splitReport, conversions, results, returnsReport),
	}

	if dir := a.Config.Export.Dir; dir != "" {
		if _, err := a.ReportService.ExportAll(dir, run); err != nil {
			return run, fmt.Errorf("write exports: %w", err)
		}
	}

	a.Logger.Info().
		Str("run_id", runID).
		Int("trades", len(normalized)).
		Int("symbols", stats.Symbols).
		Int("rates_computed", stats.RatesComputed).
		Dur("elapsed", finished.Sub(started)).
		Msg("Analysis run complete")

	return run, nil
}

func buildDiagnostics(
	runID string,
	started, finished time.Time,
	ingest *models.IngestResult,
	eventRowsDropped int,
	splitReport models.SplitReport,
	conversions []models.ConversionRecord,
	results []models.Result,
	returnsReport *models.ReturnsReport,
) models.RunDiagnostics {
	diag := models.RunDiagnostics{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		DurationMS: finished.Sub(started).Milliseconds(),

		Files: ingest.Files,

		SplitEventsApplied: len(splitReport.Events),
		SplitRowsDropped:   eventRowsDropped,
		TradesAdjusted:     splitReport.TradesAdjusted,

		SymbolsSkipped:  returnsReport.Skipped,
		TerminalMissing: returnsReport.TerminalMissing,
	}

	for _, se := range ingest.Skipped {
		diag.SchemaErrors = append(diag.SchemaErrors, se.Error())
	}
	for _, f := range ingest.Files {
		diag.RowsDropped += f.Dropped
	}
	for _, c := range conversions {
		switch c.Status {
		case models.ConversionStatusUnavailable:
			diag.RateMisses++
		case models.ConversionStatusError:
			diag.RateErrors++
		}
	}
	for _, r := range results {
		if r.Err != nil {
			if diag.SymbolsFailed == nil {
				diag.SymbolsFailed = make(map[string]string)
			}
			diag.SymbolsFailed[r.Symbol] = r.Reason
		}
	}
	return diag
}

// symbolsOf returns the distinct symbols in first-seen order.
func symbolsOf(trades []models.Trade) []string {
	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, t := range trades {
		if _, ok := seen[t.Symbol]; !ok {
			seen[t.Symbol] = struct{}{}
			symbols = append(symbols, t.Symbol)
		}
	}
	return symbols
}
