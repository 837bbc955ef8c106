// Package config loads the fintrack YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the fintrack platform.
type Config struct {
	Storage   Storage         `yaml:"storage"`
	Server    Server          `yaml:"server"`
	Alpaca    Alpaca          `yaml:"alpaca"`
	Logging   Logging         `yaml:"logging"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Paper     PaperConfig     `yaml:"paper"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration for the dashboard API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FetchConfig controls the daily bar fetcher.
type FetchConfig struct {
	Symbols         []string `yaml:"symbols"`
	StartDate       string   `yaml:"start_date"`
	MaxWorkers      int      `yaml:"max_workers"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// BacktestConfig holds default parameters for backtest runs. Commission is a
// fractional rate (0.002 = 0.2% per trade).
type BacktestConfig struct {
	InitialCapital      float64 `yaml:"initial_capital"`
	MonthlyContribution float64 `yaml:"monthly_contribution"`
	Commission          float64 `yaml:"commission"`
}

// PortfolioConfig maps symbols to allocation categories and defines target
// percentages per category for the rebalance calculator.
type PortfolioConfig struct {
	TargetPct        map[string]float64 `yaml:"target_pct"`
	SymbolCategories map[string]string  `yaml:"symbol_categories"`
}

// BenchmarkConfig holds the macro rates used for real-return and Sharpe
// calculations. Both are annual fractional rates.
type BenchmarkConfig struct {
	InflationRate float64 `yaml:"inflation_rate"`
	RiskFreeRate  float64 `yaml:"risk_free_rate"`
}

// PaperConfig controls the paper trading bot.
type PaperConfig struct {
	StartBalance  float64  `yaml:"start_balance"`
	Symbols       []string `yaml:"symbols"`
	BuyThreshold  float64  `yaml:"buy_threshold"`
	SellThreshold float64  `yaml:"sell_threshold"`
	RiskPerTrade  float64  `yaml:"risk_per_trade"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at path, applies defaults and
// environment variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in values for fields the YAML left unset.
func applyDefaults(cfg *Config) {
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 1000
	}
	if cfg.Backtest.Commission == 0 {
		cfg.Backtest.Commission = 0.002
	}
	if cfg.Fetch.MaxWorkers == 0 {
		cfg.Fetch.MaxWorkers = 4
	}
	if cfg.Fetch.RateLimitPerMin == 0 {
		cfg.Fetch.RateLimitPerMin = 200
	}
	if cfg.Paper.StartBalance == 0 {
		cfg.Paper.StartBalance = 100000
	}
	if cfg.Paper.BuyThreshold == 0 {
		cfg.Paper.BuyThreshold = 80
	}
	if cfg.Paper.SellThreshold == 0 {
		cfg.Paper.SellThreshold = 40
	}
	if cfg.Paper.RiskPerTrade == 0 {
		cfg.Paper.RiskPerTrade = 0.10
	}
	if cfg.Benchmark.RiskFreeRate == 0 {
		cfg.Benchmark.RiskFreeRate = 0.40
	}
	if cfg.Benchmark.InflationRate == 0 {
		cfg.Benchmark.InflationRate = 0.45
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars used by the SDK take highest priority.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// validate rejects configurations the rest of the system cannot work with.
func validate(cfg *Config) error {
	if cfg.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive, got %v", cfg.Backtest.InitialCapital)
	}
	if cfg.Backtest.MonthlyContribution < 0 {
		return fmt.Errorf("backtest.monthly_contribution must be >= 0, got %v", cfg.Backtest.MonthlyContribution)
	}
	if cfg.Backtest.Commission < 0 || cfg.Backtest.Commission >= 1 {
		return fmt.Errorf("backtest.commission must be in [0, 1), got %v", cfg.Backtest.Commission)
	}
	var totalPct float64
	for _, pct := range cfg.Portfolio.TargetPct {
		if pct < 0 {
			return fmt.Errorf("portfolio.target_pct values must be >= 0")
		}
		totalPct += pct
	}
	if len(cfg.Portfolio.TargetPct) > 0 && (totalPct < 99.9 || totalPct > 100.1) {
		return fmt.Errorf("portfolio.target_pct must sum to 100, got %v", totalPct)
	}
	return nil
}
