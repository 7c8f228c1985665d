package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vimal2645/portfolio-analyzer/internal/app"
	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
	"github.com/vimal2645/portfolio-analyzer/internal/services/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to analyzer.toml (overrides ANALYZER_CONFIG)")
	showVersion := flag.Bool("version", false, "print version and exit")
	purgeRates := flag.Bool("purge-rates", false, "drop expired FX cache entries and exit")
	flag.Parse()

	if *showVersion {
		common.LoadVersionFromFile()
		fmt.Println("portfolio-analyzer " + common.GetFullVersion())
		return 0
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}

	// Positional arguments override the configured input list.
	if args := flag.Args(); len(args) > 0 {
		a.Config.Inputs = args
	}

	if *purgeRates {
		if a.RateCache == nil {
			a.Logger.Warn().Msg("Rate cache not configured, nothing to purge")
			return 0
		}
		removed := a.RateCache.Purge()
		a.Logger.Info().Int("removed", removed).Msg("Rate cache purged")
		return 0
	}

	common.PrintBanner(a.Config, a.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := a.Run(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Run failed")
		common.PrintCompletionBanner(a.Logger, runIDOf(result), false)
		var schemaErr models.SchemaError
		if errors.As(err, &schemaErr) {
			return 2
		}
		return 1
	}

	fmt.Print(report.FormatRunSummary(result))
	common.PrintCompletionBanner(a.Logger, result.Diagnostics.RunID, true)
	return 0
}

func runIDOf(result *models.RunResult) string {
	if result == nil {
		return "-"
	}
	return result.Diagnostics.RunID
}
