package report

import (
	"fmt"
	"strings"

	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// FormatRunSummary renders the run outcome as markdown-flavored text for
// the console. Sections with nothing to say are omitted.
func FormatRunSummary(run *models.RunResult) string {
	var sb strings.Builder

	diag := run.Diagnostics
	stats := run.Stats

	sb.WriteString(fmt.Sprintf("# Portfolio Analysis (run %s)\n\n", diag.RunID))
	sb.WriteString(fmt.Sprintf("**Trades:** %d across %d symbols\n", stats.TotalTrades, stats.Symbols))
	sb.WriteString(fmt.Sprintf("**Realized P/L:** %s\n", formatSignedMoney(stats.TotalRealizedPL)))
	if stats.RatesComputed > 0 {
		line := fmt.Sprintf("**Rates computed:** %d (mean %s", stats.RatesComputed, formatPct(stats.RateMean))
		if stats.RatesComputed > 1 {
			line += fmt.Sprintf(", std dev %s", formatPct(stats.RateStdDev))
		}
		sb.WriteString(line + ")\n")
	}
	sb.WriteString("\n")

	if len(run.Results) > 0 {
		sb.WriteString("## Annualized Returns (XIRR)\n\n")
		sb.WriteString("| Symbol | Rate | Note |\n")
		sb.WriteString("|--------|------|------|\n")
		for _, r := range run.Results {
			if r.Err != nil {
				sb.WriteString(fmt.Sprintf("| %s | - | %s |\n", r.Symbol, r.Reason))
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | |\n", r.Symbol, formatPct(r.Rate)))
		}
		sb.WriteString("\n")
	}

	if len(run.Holdings) > 0 {
		sb.WriteString("## Holdings\n\n")
		sb.WriteString("| Symbol | Net Qty | Realized P/L | Trades |\n")
		sb.WriteString("|--------|---------|--------------|--------|\n")
		for _, h := range run.Holdings {
			sb.WriteString(fmt.Sprintf("| %s | %.4g | %s | %d |\n",
				h.Symbol, h.NetQuantity, formatSignedMoney(h.RealizedPL), h.Trades))
		}
		sb.WriteString("\n")
	}

	if len(stats.TopGainers) > 0 || len(stats.TopLosers) > 0 {
		sb.WriteString("## Top Movers\n\n")
		for _, h := range stats.TopGainers {
			sb.WriteString(fmt.Sprintf("- gain %s: %s\n", h.Symbol, formatSignedMoney(h.RealizedPL)))
		}
		for _, h := range stats.TopLosers {
			sb.WriteString(fmt.Sprintf("- loss %s: %s\n", h.Symbol, formatSignedMoney(h.RealizedPL)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Diagnostics\n\n")
	sb.WriteString(fmt.Sprintf("- duration: %dms\n", diag.DurationMS))
	sb.WriteString(fmt.Sprintf("- files loaded: %d, rows dropped: %d\n", len(diag.Files), diag.RowsDropped))
	if len(diag.SchemaErrors) > 0 {
		sb.WriteString(fmt.Sprintf("- files rejected: %d\n", len(diag.SchemaErrors)))
		for _, msg := range diag.SchemaErrors {
			sb.WriteString(fmt.Sprintf("  - %s\n", msg))
		}
	}
	if diag.SplitEventsApplied > 0 {
		sb.WriteString(fmt.Sprintf("- split events applied: %d (trades adjusted: %d)\n",
			diag.SplitEventsApplied, diag.TradesAdjusted))
	}
	if diag.RateMisses > 0 || diag.RateErrors > 0 {
		sb.WriteString(fmt.Sprintf("- FX rate misses: %d, lookup failures: %d\n",
			diag.RateMisses, diag.RateErrors))
	}
	if len(diag.SymbolsSkipped) > 0 {
		sb.WriteString(fmt.Sprintf("- symbols skipped (fewer than 2 trades): %s\n",
			strings.Join(diag.SymbolsSkipped, ", ")))
	}
	if len(diag.TerminalMissing) > 0 {
		sb.WriteString(fmt.Sprintf("- open positions valued at zero: %s\n",
			strings.Join(diag.TerminalMissing, ", ")))
	}

	return sb.String()
}

// formatPct renders a decimal rate as a percentage.
func formatPct(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// formatSignedMoney renders an amount with an explicit sign and grouped
// thousands.
func formatSignedMoney(v float64) string {
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + groupThousands(fmt.Sprintf("%.2f", v))
}

// groupThousands inserts comma separators into the integer part of a
// plain fixed-point number.
func groupThousands(s string) string {
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + frac
	}
	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sb.String() + frac
}
