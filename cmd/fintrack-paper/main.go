package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fintrack/internal/config"
	"fintrack/internal/dashboard"
	"fintrack/internal/domain"
	"fintrack/internal/marketdata"
	"fintrack/internal/paper"
	"fintrack/internal/store"
	"fintrack/internal/util"
)

func main() {
	var (
		symbolsFlag = flag.String("symbols", "", "comma-separated symbols; empty uses config")
		market      = flag.String("market", "us", "market the symbols trade on")
	)
	flag.Parse()

	cfgPath := "config/fintrack.yaml"
	if p := os.Getenv("FINTRACK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	symbols := cfg.Paper.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
		for i := range symbols {
			symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols: pass -symbols or set paper.symbols in config")
	}

	sqstore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer sqstore.Close()

	alpaca := marketdata.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Fetch.RateLimitPerMin)
	source := marketdata.NewCachedSource(alpaca, store.NewParquetStore(cfg.Storage.DataDir))

	trader := paper.NewTrader(source, sqstore, domain.Market(*market), paper.Config{
		StartBalance:  cfg.Paper.StartBalance,
		BuyThreshold:  cfg.Paper.BuyThreshold,
		SellThreshold: cfg.Paper.SellThreshold,
		RiskPerTrade:  cfg.Paper.RiskPerTrade,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trades, err := trader.Run(ctx, symbols)
	if err != nil {
		log.Fatalf("paper run failed: %v", err)
	}

	for _, t := range trades {
		fmt.Printf("%s %-5s %-6s qty %.4f @ %s (commission %s)\n",
			t.Date.Format("2006-01-02"), t.Side, t.Symbol, t.Quantity,
			dashboard.FormatMoney(t.Price), dashboard.FormatMoney(t.Commission))
	}
	if len(trades) == 0 {
		fmt.Println("no signals fired")
	}

	balance, err := trader.Balance(ctx)
	if err != nil {
		log.Fatalf("reading balance: %v", err)
	}
	fmt.Printf("virtual balance: %s\n", dashboard.FormatMoney(balance))
}
