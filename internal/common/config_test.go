package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Currency.Target != "USD" {
		t.Errorf("Currency.Target default = %q, want %q", cfg.Currency.Target, "USD")
	}
	if cfg.Currency.Provider != "frankfurter" {
		t.Errorf("Currency.Provider default = %q, want %q", cfg.Currency.Provider, "frankfurter")
	}
	if cfg.Ledger.ContinueOnSchemaError {
		t.Error("ContinueOnSchemaError should default to false")
	}
	if cfg.Returns.GetPriceLookback() != 7 {
		t.Errorf("GetPriceLookback() = %d, want 7", cfg.Returns.GetPriceLookback())
	}
}

func TestConfig_LoadMergesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analyzer.toml")
	content := `
inputs = ["trades_a.csv", "trades_b.csv"]
splits_file = "splits.csv"

[ledger]
default_currency = "aud"
continue_on_schema_error = true

[currency]
target = "eur"

[returns]
workers = 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if len(cfg.Inputs) != 2 {
		t.Fatalf("Inputs = %v, want 2 entries", cfg.Inputs)
	}
	if cfg.SplitsFile != "splits.csv" {
		t.Errorf("SplitsFile = %q, want %q", cfg.SplitsFile, "splits.csv")
	}
	if !cfg.Ledger.ContinueOnSchemaError {
		t.Error("ContinueOnSchemaError should be true from file")
	}
	if cfg.Ledger.DefaultCurrency != "AUD" {
		t.Errorf("DefaultCurrency = %q, want upper-cased %q", cfg.Ledger.DefaultCurrency, "AUD")
	}
	if cfg.Currency.Target != "EUR" {
		t.Errorf("Currency.Target = %q, want upper-cased %q", cfg.Currency.Target, "EUR")
	}
	if cfg.Returns.GetWorkers() != 2 {
		t.Errorf("GetWorkers() = %d, want 2", cfg.Returns.GetWorkers())
	}
}

func TestConfig_LoadSkipsMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() with missing file should not error, got %v", err)
	}
	if cfg.Currency.Target != "USD" {
		t.Errorf("Currency.Target = %q, want default %q", cfg.Currency.Target, "USD")
	}
}

func TestConfig_TargetCurrencyEnvOverride(t *testing.T) {
	t.Setenv("ANALYZER_TARGET_CURRENCY", "gbp")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Currency.Target != "GBP" {
		t.Errorf("Currency.Target = %q after env override, want %q", cfg.Currency.Target, "GBP")
	}
}

func TestConfig_EODHDKeyEnvOverride(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.EODHD.APIKey != "from-env" {
		t.Errorf("EODHD.APIKey = %q, want %q", cfg.Clients.EODHD.APIKey, "from-env")
	}
}

func TestConfig_EODHDKeyPrefixedEnvFallback(t *testing.T) {
	t.Setenv("ANALYZER_EODHD_API_KEY", "prefixed-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.EODHD.APIKey != "prefixed-env" {
		t.Errorf("EODHD.APIKey = %q, want %q", cfg.Clients.EODHD.APIKey, "prefixed-env")
	}
}

func TestConfig_WorkersEnvOverride(t *testing.T) {
	t.Setenv("ANALYZER_WORKERS", "8")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Returns.Workers != 8 {
		t.Errorf("Returns.Workers = %d after env override, want 8", cfg.Returns.Workers)
	}
}

func TestReturnsConfig_GetWorkers_AutoCapped(t *testing.T) {
	cfg := &ReturnsConfig{}
	n := cfg.GetWorkers()
	if n < 1 || n > 4 {
		t.Errorf("GetWorkers() auto = %d, want 1..4", n)
	}
}

func TestFrankfurterConfig_GetTimeout(t *testing.T) {
	cfg := &FrankfurterConfig{Timeout: "5s"}
	if d := cfg.GetTimeout(); d != 5*time.Second {
		t.Errorf("GetTimeout() = %v, want 5s", d)
	}

	cfg.Timeout = "not-a-duration"
	if d := cfg.GetTimeout(); d != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s (fallback for invalid)", d)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Environment: "Production"}
	if !cfg.IsProduction() {
		t.Error("IsProduction() should be true for 'Production'")
	}
	cfg.Environment = "development"
	if cfg.IsProduction() {
		t.Error("IsProduction() should be false for 'development'")
	}
}
