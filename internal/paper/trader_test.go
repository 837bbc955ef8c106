package paper

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/domain"
	"fintrack/internal/store"
)

// fakeSource serves a fixed per-symbol bar series.
type fakeSource struct {
	bySymbol map[string][]domain.Bar
}

func (f *fakeSource) DailyBars(_ context.Context, symbol string, _ domain.Market, _, _ time.Time) ([]domain.Bar, error) {
	return f.bySymbol[symbol], nil
}

// strongBuySeries scores above 80: a long uptrend that keeps the price
// over both moving averages, a balanced final fortnight that leaves the
// oscillator neutral, and a closing volume spike.
func strongBuySeries() []domain.Bar {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 250)
	price := 100.0
	for i := range bars {
		if i < 236 {
			price = 100 + float64(i)*0.5
		} else if (i-236)%2 == 0 {
			price += 3
		} else {
			price -= 3
		}
		bars[i] = domain.Bar{
			Symbol:    "UP",
			Timestamp: start.AddDate(0, 0, i),
			Close:     price,
			Volume:    1000,
		}
	}
	bars[len(bars)-1].Volume = 3000
	return bars
}

// strongSellSeries scores below 40: a persistent decline.
func strongSellSeries() []domain.Bar {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 250)
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol:    "DOWN",
			Timestamp: start.AddDate(0, 0, i),
			Close:     350 - float64(i),
			Volume:    1000,
		}
	}
	return bars
}

func flatSeries() []domain.Bar {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 250)
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol:    "FLAT",
			Timestamp: start.AddDate(0, 0, i),
			Close:     100,
			Volume:    1000,
		}
	}
	return bars
}

func newTestTrader(t *testing.T, source *fakeSource, cfg Config) *Trader {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "paper.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewTrader(source, s, domain.MarketUS, cfg)
}

var testCfg = Config{
	StartBalance:  100000,
	BuyThreshold:  80,
	SellThreshold: 40,
	RiskPerTrade:  0.10,
}

func TestTraderBuysHighScore(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{bySymbol: map[string][]domain.Bar{"UP": strongBuySeries()}}
	tr := newTestTrader(t, source, testCfg)

	trades, err := tr.Run(ctx, []string{"UP"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 1 || trades[0].Side != domain.TradeSideBuy {
		t.Fatalf("trades = %+v, want one BUY", trades)
	}

	price := trades[0].Price
	wantQty := 100000 * 0.10 / price
	if math.Abs(trades[0].Quantity-wantQty) > 1e-9 {
		t.Errorf("qty = %v, want %v (10%% of balance)", trades[0].Quantity, wantQty)
	}

	balance, err := tr.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	wantBalance := 100000 - (price*wantQty + price*wantQty*tradeCommission)
	if math.Abs(balance-wantBalance) > 1e-6 {
		t.Errorf("balance = %v, want %v", balance, wantBalance)
	}

	positions, err := tr.OpenPositions(ctx)
	if err != nil {
		t.Fatalf("OpenPositions: %v", err)
	}
	if _, ok := positions["UP"]; !ok {
		t.Error("position not open after buy")
	}
}

func TestTraderDoesNotPyramid(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{bySymbol: map[string][]domain.Bar{"UP": strongBuySeries()}}
	tr := newTestTrader(t, source, testCfg)

	if _, err := tr.Run(ctx, []string{"UP"}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	trades, err := tr.Run(ctx, []string{"UP"})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("second run executed %d trades, want 0 (already holding)", len(trades))
	}
}

func TestTraderSellsHeldLowScore(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{bySymbol: map[string][]domain.Bar{"DOWN": strongBuySeries()}}
	tr := newTestTrader(t, source, testCfg)

	// Enter while the score is high, then flip the series to a decline.
	if _, err := tr.Run(ctx, []string{"DOWN"}); err != nil {
		t.Fatalf("entry Run: %v", err)
	}
	source.bySymbol["DOWN"] = strongSellSeries()

	trades, err := tr.Run(ctx, []string{"DOWN"})
	if err != nil {
		t.Fatalf("exit Run: %v", err)
	}
	if len(trades) != 1 || trades[0].Side != domain.TradeSideSell {
		t.Fatalf("trades = %+v, want one SELL", trades)
	}

	positions, err := tr.OpenPositions(ctx)
	if err != nil {
		t.Fatalf("OpenPositions: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("positions = %+v, want flat after full exit", positions)
	}
}

func TestTraderNeutralScoreHolds(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{bySymbol: map[string][]domain.Bar{"FLAT": flatSeries()}}
	tr := newTestTrader(t, source, testCfg)

	trades, err := tr.Run(ctx, []string{"FLAT"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("trades = %+v, want none on neutral score", trades)
	}
}

func TestTraderInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{bySymbol: map[string][]domain.Bar{"UP": strongBuySeries()}}

	// Committing the whole balance cannot cover the commission on top.
	cfg := testCfg
	cfg.RiskPerTrade = 1.0
	tr := newTestTrader(t, source, cfg)

	trades, err := tr.Run(ctx, []string{"UP"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("trades = %+v, want none when cost exceeds balance", trades)
	}

	balance, _ := tr.Balance(ctx)
	if balance != 100000 {
		t.Errorf("balance = %v, want untouched 100000", balance)
	}
}

func TestTraderSkipsUnknownSymbols(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{bySymbol: map[string][]domain.Bar{"UP": strongBuySeries()}}
	tr := newTestTrader(t, source, testCfg)

	trades, err := tr.Run(ctx, []string{"MISSING", "UP"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 1 || trades[0].Symbol != "UP" {
		t.Fatalf("trades = %+v, want the one known symbol", trades)
	}
}
