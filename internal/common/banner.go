package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	version := GetVersion()
	build := GetBuild()
	commit := GetGitCommit()

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 70
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` Y88b   d88P 8888888 8888888b.  8888888b.`,
		`  Y88b d88P    888   888   Y88b 888   Y88b`,
		`   Y88o88P     888   888    888 888    888`,
		`    Y888P      888   888   d88P 888   d88P`,
		`    d888b      888   8888888P'  8888888P'`,
		`   d88888b     888   888 T88b   888 T88b`,
		`  d88P Y88b    888   888  T88b  888  T88b`,
		` d88P   Y88b 8888888 888   T88b 888   T88b`,
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s  Trade Ledger Reconciliation & Annualized Returns%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	kvPad := 16
	kvLines := [][2]string{
		{"Version", version},
		{"Build", build},
		{"Commit", commit},
		{"Environment", config.Environment},
		{"Target currency", config.Currency.Target},
		{"Input files", fmt.Sprintf("%d", len(config.Inputs))},
		{"Output dir", config.Export.Dir},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("target_currency", config.Currency.Target).
		Int("inputs", len(config.Inputs)).
		Msg("Analyzer started")
}

// PrintCompletionBanner displays the end-of-run banner to stderr.
func PrintCompletionBanner(logger *Logger, runID string, ok bool) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	status := "COMPLETE"
	if !ok {
		lineColor = banner.ColorRed
		status = "FAILED"
	}
	width := 42
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  ANALYZER RUN %s — %s%s\n", textColor, runID, status, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().Str("run_id", runID).Bool("ok", ok).Msg("Analyzer finished")
}
