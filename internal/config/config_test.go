package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fintrack.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

const fullConfig = `
storage:
  data_dir: "/tmp/fintrack/data"
  sqlite_path: "/tmp/fintrack/fintrack.db"
server:
  host: "0.0.0.0"
  port: 8080
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
fetch:
  symbols: ["AAPL", "MSFT", "GOOGL"]
  start_date: "2020-01-01"
  max_workers: 8
  rate_limit_per_min: 100
backtest:
  initial_capital: 1000
  monthly_contribution: 100
  commission: 0.002
portfolio:
  target_pct:
    tech: 45
    domestic: 30
    eurobond: 15
    commodity: 10
  symbol_categories:
    AAPL: tech
    MSFT: tech
benchmark:
  inflation_rate: 0.45
  risk_free_rate: 0.40
paper:
  start_balance: 100000
  symbols: ["AAPL"]
`

func TestLoadFullConfig(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "SQLITE_PATH", "ALPACA_API_KEY", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "LOG_LEVEL"} {
		os.Unsetenv(key)
	}

	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/fintrack/data" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("APIKey = %q", cfg.Alpaca.APIKey)
	}
	if len(cfg.Fetch.Symbols) != 3 {
		t.Errorf("Fetch.Symbols = %v, want 3 symbols", cfg.Fetch.Symbols)
	}
	if cfg.Backtest.MonthlyContribution != 100 {
		t.Errorf("MonthlyContribution = %v, want 100", cfg.Backtest.MonthlyContribution)
	}
	if cfg.Portfolio.TargetPct["tech"] != 45 {
		t.Errorf("TargetPct[tech] = %v, want 45", cfg.Portfolio.TargetPct["tech"])
	}
	if cfg.Portfolio.SymbolCategories["AAPL"] != "tech" {
		t.Errorf("SymbolCategories[AAPL] = %q, want tech", cfg.Portfolio.SymbolCategories["AAPL"])
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
storage:
  data_dir: "/tmp/d"
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Backtest.InitialCapital != 1000 {
		t.Errorf("default InitialCapital = %v, want 1000", cfg.Backtest.InitialCapital)
	}
	if cfg.Backtest.Commission != 0.002 {
		t.Errorf("default Commission = %v, want 0.002", cfg.Backtest.Commission)
	}
	if cfg.Paper.BuyThreshold != 80 || cfg.Paper.SellThreshold != 40 {
		t.Errorf("default paper thresholds = %v/%v, want 80/40",
			cfg.Paper.BuyThreshold, cfg.Paper.SellThreshold)
	}
	if cfg.Fetch.MaxWorkers != 4 {
		t.Errorf("default MaxWorkers = %d, want 4", cfg.Fetch.MaxWorkers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/override/data")
	t.Setenv("APCA_API_KEY_ID", "env-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/override/data" {
		t.Errorf("DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Alpaca.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadTargets(t *testing.T) {
	_, err := Load(writeConfig(t, `
portfolio:
  target_pct:
    tech: 45
    domestic: 30
`))
	if err == nil {
		t.Fatal("Load accepted target_pct summing to 75")
	}
	if !strings.Contains(err.Error(), "target_pct") {
		t.Errorf("error = %v, want mention of target_pct", err)
	}
}

func TestLoadRejectsNegativeContribution(t *testing.T) {
	_, err := Load(writeConfig(t, `
backtest:
  initial_capital: 1000
  monthly_contribution: -5
`))
	if err == nil {
		t.Fatal("Load accepted negative monthly_contribution")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of missing file returned nil error")
	}
}
