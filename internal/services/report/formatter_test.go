package report

import (
	"strings"
	"testing"

	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

func sampleRun() *models.RunResult {
	return &models.RunResult{
		Results: []models.Result{
			{Symbol: "VAS", Rate: 0.1234},
			{Symbol: "BHP", Err: models.ErrInsufficientData, Reason: "insufficient_data"},
		},
		Holdings: []models.HoldingSummary{
			{Symbol: "VAS", NetQuantity: 0, RealizedPL: 1250.50, Trades: 4},
			{Symbol: "BHP", NetQuantity: 10, RealizedPL: -300, Trades: 2},
		},
		Stats: models.PortfolioStats{
			TotalTrades:     6,
			Symbols:         2,
			TotalRealizedPL: 950.50,
			TopGainers:      []models.HoldingSummary{{Symbol: "VAS", RealizedPL: 1250.50}},
			TopLosers:       []models.HoldingSummary{{Symbol: "BHP", RealizedPL: -300}},
			RatesComputed:   1,
			RateMean:        0.1234,
		},
		Diagnostics: models.RunDiagnostics{
			RunID:           "ab12cd34",
			DurationMS:      42,
			Files:           []models.FileReport{{File: "trades.csv", Rows: 6, Loaded: 6}},
			RowsDropped:     1,
			RateMisses:      2,
			SymbolsSkipped:  []string{"ONE"},
			TerminalMissing: []string{"BHP"},
		},
	}
}

func TestFormatRunSummary_Sections(t *testing.T) {
	out := FormatRunSummary(sampleRun())

	for _, want := range []string{
		"# Portfolio Analysis (run ab12cd34)",
		"**Trades:** 6 across 2 symbols",
		"**Realized P/L:** +950.50",
		"## Annualized Returns (XIRR)",
		"## Holdings",
		"## Diagnostics",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestFormatRunSummary_ResultRows(t *testing.T) {
	out := FormatRunSummary(sampleRun())

	if !strings.Contains(out, "| VAS | 12.34% | |") {
		t.Errorf("converged row not rendered:\n%s", out)
	}
	if !strings.Contains(out, "| BHP | - | insufficient_data |") {
		t.Errorf("failed row should show a dash and the reason:\n%s", out)
	}
}

func TestFormatRunSummary_Diagnostics(t *testing.T) {
	out := FormatRunSummary(sampleRun())

	for _, want := range []string{
		"files loaded: 1, rows dropped: 1",
		"FX rate misses: 2",
		"symbols skipped (fewer than 2 trades): ONE",
		"open positions valued at zero: BHP",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostics missing %q\n%s", want, out)
		}
	}
}

func TestFormatRunSummary_OmitsEmptySections(t *testing.T) {
	run := &models.RunResult{
		Diagnostics: models.RunDiagnostics{RunID: "empty001"},
	}
	out := FormatRunSummary(run)

	for _, absent := range []string{
		"## Annualized Returns",
		"## Holdings",
		"## Top Movers",
		"symbols skipped",
		"split events",
	} {
		if strings.Contains(out, absent) {
			t.Errorf("empty run should omit %q\n%s", absent, out)
		}
	}
	if !strings.Contains(out, "## Diagnostics") {
		t.Errorf("diagnostics section should always render:\n%s", out)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[string]string{
		"950.50":     "950.50",
		"1250.50":    "1,250.50",
		"1234567.89": "1,234,567.89",
		"100":        "100",
		"1000":       "1,000",
	}
	for in, want := range cases {
		if got := groupThousands(in); got != want {
			t.Errorf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatSignedMoney(t *testing.T) {
	if got := formatSignedMoney(1250.5); got != "+1,250.50" {
		t.Errorf("positive: got %q", got)
	}
	if got := formatSignedMoney(-300); got != "-300.00" {
		t.Errorf("negative: got %q", got)
	}
	if got := formatSignedMoney(0); got != "+0.00" {
		t.Errorf("zero: got %q", got)
	}
}
