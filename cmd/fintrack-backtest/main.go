package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"fintrack/internal/backtest"
	"fintrack/internal/config"
	"fintrack/internal/dashboard"
	"fintrack/internal/domain"
	"fintrack/internal/marketdata"
	"fintrack/internal/store"
	"fintrack/internal/util"
)

func main() {
	var (
		symbol       = flag.String("symbol", "", "symbol to backtest (required)")
		market       = flag.String("market", "us", "market the symbol trades on")
		strategyFlag = flag.String("strategy", "", "strategy to run; empty runs all")
		startFlag    = flag.String("start", "", "start date YYYY-MM-DD (default 5 years ago)")
		endFlag      = flag.String("end", "", "end date YYYY-MM-DD (default today)")
		capital      = flag.Float64("capital", 0, "initial capital (default from config)")
		contribution = flag.Float64("contribution", 0, "monthly contribution for periodic strategies")
		annual       = flag.Bool("annual", false, "run per calendar year instead of one continuous run")
	)
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfgPath := "config/fintrack.yaml"
	if p := os.Getenv("FINTRACK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if *endFlag != "" {
		if end, err = time.Parse("2006-01-02", *endFlag); err != nil {
			log.Fatalf("invalid end date: %v", err)
		}
	}
	start := end.AddDate(-5, 0, 0)
	if *startFlag != "" {
		if start, err = time.Parse("2006-01-02", *startFlag); err != nil {
			log.Fatalf("invalid start date: %v", err)
		}
	}

	runCfg := backtest.Config{
		InitialCapital:      cfg.Backtest.InitialCapital,
		MonthlyContribution: cfg.Backtest.MonthlyContribution,
		Commission:          cfg.Backtest.Commission,
	}
	if *capital != 0 {
		runCfg.InitialCapital = *capital
	}
	if *contribution != 0 {
		runCfg.MonthlyContribution = *contribution
	}

	strategies := backtest.Strategies()
	if *strategyFlag != "" {
		strat, err := backtest.ParseStrategy(*strategyFlag)
		if err != nil {
			log.Fatalf("%v", err)
		}
		strategies = []backtest.Strategy{strat}
	}

	ctx := context.Background()
	alpaca := marketdata.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Fetch.RateLimitPerMin)
	source := marketdata.NewCachedSource(alpaca, store.NewParquetStore(cfg.Storage.DataDir))

	bars, err := source.DailyBars(ctx, *symbol, domain.Market(*market), start, end)
	if err != nil {
		log.Fatalf("fetching bars: %v", err)
	}
	fmt.Printf("%s: %d bars, %s .. %s\n\n", *symbol, len(bars),
		bars[0].Timestamp.Format("2006-01-02"), bars[len(bars)-1].Timestamp.Format("2006-01-02"))

	if *annual {
		runAnnual(bars, strategies, runCfg)
		return
	}
	runOnce(bars, strategies, runCfg)
}

func runOnce(bars []domain.Bar, strategies []backtest.Strategy, cfg backtest.Config) {
	fmt.Printf("%-14s %14s %14s %10s %7s  %s\n",
		"STRATEGY", "INVESTED", "FINAL", "RETURN", "TRADES", "EQUITY")
	for _, strat := range strategies {
		res, err := backtest.Run(bars, strat, cfg)
		if err != nil {
			fmt.Printf("%-14s %s\n", strat, err)
			continue
		}
		m := res.Metrics
		fmt.Printf("%-14s %14s %14s %10s %7d  %s\n",
			m.Strategy,
			dashboard.FormatMoney(m.TotalInvested),
			dashboard.FormatMoney(m.FinalEquity),
			dashboard.FormatPct(m.TotalReturnPct),
			m.TradeCount,
			dashboard.Sparkline(res.Curve.Strategy, 30),
		)
	}
}

func runAnnual(bars []domain.Bar, strategies []backtest.Strategy, cfg backtest.Config) {
	for _, strat := range strategies {
		results, err := backtest.RunAnnual(bars, strat, cfg)
		if err != nil {
			fmt.Printf("%s: %s\n", strat, err)
			continue
		}
		fmt.Printf("%s\n", strat)
		for _, r := range results {
			fmt.Printf("  %d %14s -> %14s  %10s  %d trades\n",
				r.Year,
				dashboard.FormatMoney(r.Metrics.TotalInvested),
				dashboard.FormatMoney(r.Metrics.FinalEquity),
				dashboard.FormatPct(r.Metrics.TotalReturnPct),
				r.Metrics.TradeCount,
			)
		}
	}
}
