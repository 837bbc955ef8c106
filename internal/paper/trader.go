// Package paper runs a simulated trading bot: it scores a symbol list and
// executes virtual trades against a SQLite-backed account, never touching a
// real broker.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/analysis"
	"fintrack/internal/domain"
	"fintrack/internal/marketdata"
	"fintrack/internal/store"
)

// balanceKey is the settings row holding the virtual cash balance.
const balanceKey = "virtual_balance"

// tradeCommission is the fractional commission charged on simulated trades.
const tradeCommission = 0.002

// lookback is how much history each symbol is scored over.
const lookback = 365 * 24 * time.Hour

// Config holds the bot's trading policy.
type Config struct {
	StartBalance  float64 // initial virtual cash when the account is new
	BuyThreshold  float64 // enter when score exceeds this
	SellThreshold float64 // exit when score drops below this
	RiskPerTrade  float64 // fraction of balance committed per entry
}

// Trader is the paper trading bot.
type Trader struct {
	source marketdata.Source
	store  store.PaperStore
	market domain.Market
	cfg    Config
	log    *slog.Logger
}

// NewTrader creates a Trader reading prices from source and persisting
// account state to s.
func NewTrader(source marketdata.Source, s store.PaperStore, market domain.Market, cfg Config) *Trader {
	return &Trader{
		source: source,
		store:  s,
		market: market,
		cfg:    cfg,
		log:    slog.Default().With("component", "paper"),
	}
}

// Balance returns the current virtual cash balance, seeding a new account
// with the configured start balance.
func (t *Trader) Balance(ctx context.Context) (float64, error) {
	return t.store.GetPaperSetting(ctx, balanceKey, t.cfg.StartBalance)
}

// OpenPositions nets the trade history into per-symbol open quantities.
// Dust below a ten-thousandth of a unit counts as closed.
func (t *Trader) OpenPositions(ctx context.Context) (map[string]float64, error) {
	trades, err := t.store.ListPaperTrades(ctx)
	if err != nil {
		return nil, err
	}

	net := make(map[string]float64)
	for _, tr := range trades {
		switch tr.Side {
		case domain.TradeSideBuy:
			net[tr.Symbol] += tr.Quantity
		case domain.TradeSideSell:
			net[tr.Symbol] -= tr.Quantity
		}
	}
	for sym, qty := range net {
		if qty <= 0.0001 {
			delete(net, sym)
		}
	}
	return net, nil
}

// Run scores each symbol and applies the policy: enter flat symbols scoring
// above the buy threshold with RiskPerTrade of the balance, exit held
// symbols scoring below the sell threshold entirely. Per-symbol failures
// are logged and skipped. Returns the trades executed this run.
func (t *Trader) Run(ctx context.Context, symbols []string) ([]domain.PaperTrade, error) {
	positions, err := t.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}

	now := time.Now().UTC()
	var executed []domain.PaperTrade
	for _, sym := range symbols {
		bars, err := t.source.DailyBars(ctx, sym, t.market, now.Add(-lookback), now)
		if err != nil {
			t.log.Warn("skipping symbol", "symbol", sym, "err", err)
			continue
		}
		if len(bars) == 0 {
			continue
		}

		sig := analysis.Signals(bars)
		price := bars[len(bars)-1].Close
		held, holding := positions[sym]

		switch {
		case holding && sig.Score < t.cfg.SellThreshold:
			trade, err := t.execute(ctx, sym, domain.TradeSideSell, held, price, now)
			if err != nil {
				t.log.Error("sell failed", "symbol", sym, "err", err)
				continue
			}
			t.log.Info("sold", "symbol", sym, "qty", held, "price", price, "score", sig.Score)
			executed = append(executed, *trade)

		case !holding && sig.Score > t.cfg.BuyThreshold:
			balance, err := t.Balance(ctx)
			if err != nil {
				return executed, err
			}
			qty := balance * t.cfg.RiskPerTrade / price
			trade, err := t.execute(ctx, sym, domain.TradeSideBuy, qty, price, now)
			if err != nil {
				t.log.Error("buy failed", "symbol", sym, "err", err)
				continue
			}
			t.log.Info("bought", "symbol", sym, "qty", qty, "price", price, "score", sig.Score)
			executed = append(executed, *trade)
		}
	}
	return executed, nil
}

// execute applies one virtual trade to the account: adjusts the balance net
// of commission and records the trade. Buys exceeding the balance fail.
func (t *Trader) execute(ctx context.Context, symbol string, side domain.TradeSide, qty, price float64, at time.Time) (*domain.PaperTrade, error) {
	if qty <= 0 || price <= 0 {
		return nil, fmt.Errorf("invalid trade: qty=%v price=%v", qty, price)
	}

	balance, err := t.Balance(ctx)
	if err != nil {
		return nil, err
	}

	commission := price * qty * tradeCommission
	var newBalance float64
	switch side {
	case domain.TradeSideBuy:
		cost := price*qty + commission
		if cost > balance {
			return nil, fmt.Errorf("insufficient virtual balance: need %.2f, have %.2f", cost, balance)
		}
		newBalance = balance - cost
	case domain.TradeSideSell:
		newBalance = balance + price*qty - commission
	default:
		return nil, fmt.Errorf("unknown trade side %q", side)
	}

	trade := &domain.PaperTrade{
		Date:         at,
		Symbol:       symbol,
		Side:         side,
		Quantity:     qty,
		Price:        price,
		Commission:   commission,
		BalanceAfter: newBalance,
	}
	if err := t.store.AddPaperTrade(ctx, trade); err != nil {
		return nil, err
	}
	if err := t.store.SetPaperSetting(ctx, balanceKey, newBalance); err != nil {
		return nil, err
	}
	return trade, nil
}
