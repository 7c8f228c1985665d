package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

func newTestService(continueOnError bool) *Service {
	return NewService(common.LedgerConfig{
		DefaultCurrency:       "USD",
		ContinueOnSchemaError: continueOnError,
	}, common.NewSilentLogger())
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFiles_CanonicalizesHeaderVariants(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "ibkr.csv", `Symbol,Date/Time,Quantity,T. Price,Proceeds,Comm/Fee,Realized P/L
AAPL,"2024-01-15, 10:30:00",10,185.50,-1855.00,-1.00,0
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	tr := result.Trades[0]
	assert.Equal(t, "AAPL", tr.Symbol)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), tr.Timestamp)
	assert.Equal(t, 10.0, tr.Quantity)
	assert.Equal(t, 185.50, tr.Price)
	assert.Equal(t, -1855.00, tr.Proceeds)
	assert.Equal(t, 1.00, tr.Fee, "fee is stored as an absolute value")
	assert.Equal(t, "USD", tr.Currency, "default currency applies without a Currency column")
	assert.Equal(t, "ibkr.csv", tr.Source)
	assert.Nil(t, tr.NormalizedProceeds)
}

func TestLoadFiles_MissingRequiredColumnRejectsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "broken.csv", `Symbol,Date/time,Quantity,T. price,Comm/fee
AAPL,2024-01-15,10,185.50,-1.00
`)

	svc := newTestService(false)
	_, err := svc.LoadFiles(context.Background(), []string{path})
	require.Error(t, err)

	var schemaErr models.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "broken.csv", schemaErr.File)
	assert.Contains(t, schemaErr.Missing, "Proceeds")
	assert.Contains(t, schemaErr.Found, "Symbol")
}

func TestLoadFiles_ContinueOnSchemaErrorSkipsFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeCSV(t, dir, "bad.csv", `Symbol,Quantity
AAPL,10
`)
	good := writeCSV(t, dir, "good.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee
MSFT,2024-02-01,5,400.00,-2000.00,-1.50
`)

	svc := newTestService(true)
	result, err := svc.LoadFiles(context.Background(), []string{bad, good})
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, "MSFT", result.Trades[0].Symbol)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "bad.csv", result.Skipped[0].File)
	require.Len(t, result.Files, 1)
}

func TestLoadFiles_DropsUnparseableRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "mixed.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee
AAPL,2024-01-15,10,185.50,-1855.00,-1.00
AAPL,not-a-date,10,185.50,-1855.00,-1.00
MSFT,2024-01-16,abc,400.00,-2000.00,-1.50
,2024-01-17,10,50.00,-500.00,-1.00
GOOG,2024-01-18,2,150.00,-300.00,-0.50
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Len(t, result.Trades, 2)
	require.Len(t, result.Files, 1)
	report := result.Files[0]
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 3, report.Dropped)
}

func TestLoadFiles_ParsesSeparatorsAndParentheses(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sep.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee
TSLA,2024-03-01,"1,000",250.00,"(250,000.00)","(12.50)"
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	tr := result.Trades[0]
	assert.Equal(t, 1000.0, tr.Quantity)
	assert.Equal(t, -250000.00, tr.Proceeds)
	assert.Equal(t, 12.50, tr.Fee)
}

func TestLoadFiles_MergeIsSortedAndStable(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee
AAA,2024-02-01,1,10.00,-10.00,0
SAME,2024-01-15,1,10.00,-10.00,0
`)
	b := writeCSV(t, dir, "b.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee
BBB,2024-01-01,1,10.00,-10.00,0
SAME2,2024-01-15,1,10.00,-10.00,0
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, result.Trades, 4)

	assert.Equal(t, "BBB", result.Trades[0].Symbol)
	// Tie on 2024-01-15: file a's row was seen first
	assert.Equal(t, "SAME", result.Trades[1].Symbol)
	assert.Equal(t, "SAME2", result.Trades[2].Symbol)
	assert.Equal(t, "AAA", result.Trades[3].Symbol)
}

func TestLoadFiles_CurrencyColumnOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "fx.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee,Currency
SAP,2024-01-15,10,150.00,-1500.00,-2.00,eur
BHP,2024-01-16,10,45.00,-450.00,-2.00,
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	assert.Equal(t, "EUR", result.Trades[0].Currency, "currency cell is upper-cased")
	assert.Equal(t, "USD", result.Trades[1].Currency, "empty cell falls back to the default")
}

func TestLoadFiles_RealizedPLOptional(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "rpl.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee,Realized p/l
AAPL,2024-01-15,-10,200.00,2000.00,-1.00,"145.00"
AAPL,2024-01-16,-10,201.00,2010.00,-1.00,n/a
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	assert.Equal(t, 145.00, result.Trades[0].RealizedPL)
	assert.Equal(t, 0.0, result.Trades[1].RealizedPL, "unparseable realized p/l keeps the row with 0")
}

func TestLoadFiles_HeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "empty.csv", `Symbol,Date/time,Quantity,T. price,Proceeds,Comm/fee
`)

	svc := newTestService(false)
	result, err := svc.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	require.Len(t, result.Files, 1)
	assert.Equal(t, 0, result.Files[0].Rows)
}

func TestLoadFiles_MissingFileFails(t *testing.T) {
	svc := newTestService(false)
	_, err := svc.LoadFiles(context.Background(), []string{"/nonexistent/trades.csv"})
	require.Error(t, err)
}
