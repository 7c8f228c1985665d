// Package common provides shared utilities for the portfolio analyzer
package common

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the analyzer
type Config struct {
	Environment string `toml:"environment"`

	Inputs     []string `toml:"inputs"`      // trade export CSVs, processed in listed order
	SplitsFile string   `toml:"splits_file"` // optional splits CSV; missing file is not an error

	Ledger   LedgerConfig   `toml:"ledger"`
	Currency CurrencyConfig `toml:"currency"`
	Returns  ReturnsConfig  `toml:"returns"`
	Export   ExportConfig   `toml:"export"`
	Clients  ClientsConfig  `toml:"clients"`
	Logging  LoggingConfig  `toml:"logging"`
}

// LedgerConfig holds ingest behavior knobs
type LedgerConfig struct {
	DefaultCurrency       string `toml:"default_currency"`         // assumed when a file has no Currency column
	ContinueOnSchemaError bool   `toml:"continue_on_schema_error"` // false: first rejected file aborts the run
}

// CurrencyConfig holds normalization configuration
type CurrencyConfig struct {
	Target   string `toml:"target"`    // currency all proceeds are normalized to
	Provider string `toml:"provider"`  // "frankfurter" or "none"
	CacheDir string `toml:"cache_dir"` // rate cache location; empty disables caching
}

// ReturnsConfig holds XIRR computation configuration
type ReturnsConfig struct {
	Workers           int `toml:"workers"`             // 0 = auto
	PriceLookbackDays int `toml:"price_lookback_days"` // terminal valuation window
}

// GetWorkers resolves the worker count, capping the default at 4.
func (c *ReturnsConfig) GetWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := runtime.NumCPU()
	if n > 4 {
		n = 4
	}
	return n
}

// GetPriceLookback returns the terminal price window in days.
func (c *ReturnsConfig) GetPriceLookback() int {
	if c.PriceLookbackDays > 0 {
		return c.PriceLookbackDays
	}
	return 7
}

// ExportConfig holds output file configuration
type ExportConfig struct {
	Dir string `toml:"dir"` // empty disables file exports
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Frankfurter FrankfurterConfig `toml:"frankfurter"`
	EODHD       EODHDConfig       `toml:"eodhd"`
}

// FrankfurterConfig holds the FX rate API configuration
type FrankfurterConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FrankfurterConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"` // empty disables price and split lookups
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Ledger: LedgerConfig{
			DefaultCurrency: "USD",
		},
		Currency: CurrencyConfig{
			Target:   "USD",
			Provider: "frankfurter",
			CacheDir: "data/rates",
		},
		Returns: ReturnsConfig{
			PriceLookbackDays: 7,
		},
		Export: ExportConfig{
			Dir: "output",
		},
		Clients: ClientsConfig{
			Frankfurter: FrankfurterConfig{
				BaseURL:   "https://api.frankfurter.dev/v1",
				RateLimit: 10,
				Timeout:   "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	// Normalize currency codes
	validateCurrencies(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ANALYZER_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("ANALYZER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if target := os.Getenv("ANALYZER_TARGET_CURRENCY"); target != "" {
		config.Currency.Target = target
	}

	if dir := os.Getenv("ANALYZER_OUTPUT_DIR"); dir != "" {
		config.Export.Dir = dir
	}

	if dir := os.Getenv("ANALYZER_RATE_CACHE_DIR"); dir != "" {
		config.Currency.CacheDir = dir
	}

	if workers := os.Getenv("ANALYZER_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			config.Returns.Workers = n
		}
	}

	// API keys: bare name first, prefixed as fallback
	for _, name := range []string{"EODHD_API_KEY", "ANALYZER_EODHD_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			config.Clients.EODHD.APIKey = key
			break
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateCurrencies upper-cases currency codes and fills empty ones.
func validateCurrencies(config *Config) {
	config.Currency.Target = strings.ToUpper(strings.TrimSpace(config.Currency.Target))
	if config.Currency.Target == "" {
		config.Currency.Target = "USD"
	}
	config.Ledger.DefaultCurrency = strings.ToUpper(strings.TrimSpace(config.Ledger.DefaultCurrency))
	if config.Ledger.DefaultCurrency == "" {
		config.Ledger.DefaultCurrency = "USD"
	}
}
