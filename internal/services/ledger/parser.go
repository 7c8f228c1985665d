package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// Canonical column names. Broker exports disagree on capitalization,
// so headers go through canonicalHeaders before the schema check.
const (
	colSymbol     = "Symbol"
	colDateTime   = "Date/time"
	colQuantity   = "Quantity"
	colPrice      = "T. price"
	colProceeds   = "Proceeds"
	colFee        = "Comm/fee"
	colRealizedPL = "Realized p/l"
	colCurrency   = "Currency"
)

// canonicalHeaders maps known header variants to canonical names.
// Unknown headers pass through trimmed but otherwise untouched.
var canonicalHeaders = map[string]string{
	"Date/Time":    colDateTime,
	"Comm/Fee":     colFee,
	"T. Price":     colPrice,
	"Realized P/L": colRealizedPL,
}

// requiredColumns must all be present after canonicalization or the
// file is rejected.
var requiredColumns = []string{colSymbol, colDateTime, colQuantity, colPrice, colProceeds, colFee}

// timestampLayouts are accepted Date/time formats, tried in order.
var timestampLayouts = []string{
	"2006-01-02, 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// canonicalize trims and renames a header row in place, returning a
// name -> column index map. The first occurrence wins on duplicates.
func canonicalize(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if canonical, ok := canonicalHeaders[name]; ok {
			name = canonical
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	return cols
}

// checkSchema validates that every required column is present.
func checkSchema(file string, cols map[string]int) error {
	var missing []string
	for _, want := range requiredColumns {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	found := make([]string, 0, len(cols))
	for name := range cols {
		found = append(found, name)
	}
	return models.SchemaError{File: file, Missing: missing, Found: found}
}

// cleanNumber strips thousands separators and converts parenthesized
// negatives ("(1,234.50)" -> -1234.50) before parsing.
func cleanNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

// parseTimestamp tries each accepted layout in order.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// field returns the row's value for a canonical column, or "" when the
// row is too short.
func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseRow converts one data row into a Trade. An error means the row
// is dropped; the Realized p/l and Currency columns never cause drops.
func parseRow(row []string, cols map[string]int, defaultCurrency, source string) (models.Trade, error) {
	symbol := strings.TrimSpace(field(row, cols, colSymbol))
	if symbol == "" {
		return models.Trade{}, fmt.Errorf("empty symbol")
	}

	ts, err := parseTimestamp(field(row, cols, colDateTime))
	if err != nil {
		return models.Trade{}, err
	}

	quantity, err := cleanNumber(field(row, cols, colQuantity))
	if err != nil {
		return models.Trade{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := cleanNumber(field(row, cols, colPrice))
	if err != nil {
		return models.Trade{}, fmt.Errorf("price: %w", err)
	}
	proceeds, err := cleanNumber(field(row, cols, colProceeds))
	if err != nil {
		return models.Trade{}, fmt.Errorf("proceeds: %w", err)
	}
	fee, err := cleanNumber(field(row, cols, colFee))
	if err != nil {
		return models.Trade{}, fmt.Errorf("fee: %w", err)
	}

	// Optional columns
	realized := 0.0
	if _, ok := cols[colRealizedPL]; ok {
		if v, err := cleanNumber(field(row, cols, colRealizedPL)); err == nil {
			realized = v
		}
	}
	currency := strings.ToUpper(strings.TrimSpace(field(row, cols, colCurrency)))
	if currency == "" {
		currency = defaultCurrency
	}

	if fee < 0 {
		fee = -fee
	}

	return models.Trade{
		Symbol:     symbol,
		Timestamp:  ts,
		Quantity:   quantity,
		Price:      price,
		Proceeds:   proceeds,
		Fee:        fee,
		RealizedPL: realized,
		Currency:   currency,
		Source:     source,
	}, nil
}
