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
	"time"

	"fintrack/internal/config"
	"fintrack/internal/domain"
	"fintrack/internal/marketdata"
	"fintrack/internal/store"
	"fintrack/internal/util"
)

func main() {
	var (
		symbolsFlag = flag.String("symbols", "", "comma-separated symbols; empty uses config")
		market      = flag.String("market", "us", "market directory to store bars under")
		startFlag   = flag.String("start", "", "start date YYYY-MM-DD; empty uses config")
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

	symbols := cfg.Fetch.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
		for i := range symbols {
			symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols: pass -symbols or set fetch.symbols in config")
	}

	startDate := cfg.Fetch.StartDate
	if *startFlag != "" {
		startDate = *startFlag
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		log.Fatalf("invalid start date %q: %v", startDate, err)
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alpaca := marketdata.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Fetch.RateLimitPerMin)
	fetcher := marketdata.NewFetcher(alpaca, store.NewParquetStore(cfg.Storage.DataDir), cfg.Fetch.MaxWorkers)

	res, err := fetcher.Fetch(ctx, symbols, domain.Market(*market), start, end)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
	fmt.Printf("fetched %d bars for %d symbols (%d empty) in %s\n",
		res.Bars, res.Symbols, res.Empty, res.Elapsed.Round(time.Second))
}
