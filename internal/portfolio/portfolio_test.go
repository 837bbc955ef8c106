package portfolio

import (
	"math"
	"testing"
	"time"

	"fintrack/internal/domain"
)

func tx(day int, symbol string, side domain.TradeSide, qty, price float64) domain.Transaction {
	return domain.Transaction{
		Date:     time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		Price:    price,
	}
}

func TestReplayWeightedAverageCost(t *testing.T) {
	ledger := []domain.Transaction{
		tx(1, "AAPL", domain.TradeSideBuy, 10, 100),
		tx(2, "AAPL", domain.TradeSideBuy, 10, 200),
	}
	holdings := replay(ledger)
	if len(holdings) != 1 {
		t.Fatalf("got %d holdings, want 1", len(holdings))
	}
	h := holdings[0]
	if h.Quantity != 20 || h.AvgCost != 150 || h.TotalInvested != 3000 {
		t.Errorf("holding = %+v, want qty 20, avg 150, invested 3000", h)
	}
}

func TestReplaySellKeepsAverage(t *testing.T) {
	ledger := []domain.Transaction{
		tx(1, "AAPL", domain.TradeSideBuy, 10, 100),
		tx(2, "AAPL", domain.TradeSideBuy, 10, 200),
		tx(3, "AAPL", domain.TradeSideSell, 5, 500), // sale price is irrelevant to cost basis
	}
	holdings := replay(ledger)
	if len(holdings) != 1 {
		t.Fatalf("got %d holdings, want 1", len(holdings))
	}
	h := holdings[0]
	if h.Quantity != 15 || h.AvgCost != 150 {
		t.Errorf("holding = %+v, want qty 15 at unchanged avg 150", h)
	}
	if h.TotalInvested != 2250 {
		t.Errorf("invested = %v, want 2250", h.TotalInvested)
	}
}

func TestReplayFullExitDropsPosition(t *testing.T) {
	ledger := []domain.Transaction{
		tx(1, "AAPL", domain.TradeSideBuy, 10, 100),
		tx(2, "AAPL", domain.TradeSideSell, 10, 120),
		tx(3, "MSFT", domain.TradeSideBuy, 2, 400),
	}
	holdings := replay(ledger)
	if len(holdings) != 1 || holdings[0].Symbol != "MSFT" {
		t.Fatalf("holdings = %+v, want only MSFT", holdings)
	}
}

func TestReplayOverSellZeroes(t *testing.T) {
	ledger := []domain.Transaction{
		tx(1, "AAPL", domain.TradeSideBuy, 5, 100),
		tx(2, "AAPL", domain.TradeSideSell, 50, 100),
	}
	if holdings := replay(ledger); len(holdings) != 0 {
		t.Errorf("holdings = %+v, want none after over-sell", holdings)
	}
}

func TestReplaySymbolCaseInsensitive(t *testing.T) {
	ledger := []domain.Transaction{
		tx(1, "aapl", domain.TradeSideBuy, 5, 100),
		tx(2, "AAPL", domain.TradeSideBuy, 5, 100),
	}
	holdings := replay(ledger)
	if len(holdings) != 1 || holdings[0].Quantity != 10 {
		t.Errorf("holdings = %+v, want single AAPL position of 10", holdings)
	}
}

func TestReplaySortedBySymbol(t *testing.T) {
	ledger := []domain.Transaction{
		tx(1, "NVDA", domain.TradeSideBuy, 1, 100),
		tx(2, "AAPL", domain.TradeSideBuy, 1, 100),
		tx(3, "MSFT", domain.TradeSideBuy, 1, 100),
	}
	holdings := replay(ledger)
	want := []string{"AAPL", "MSFT", "NVDA"}
	for i, h := range holdings {
		if h.Symbol != want[i] {
			t.Fatalf("holdings[%d] = %s, want %s", i, h.Symbol, want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Rebalance
// ---------------------------------------------------------------------------

func TestRebalanceFillsGapsProportionally(t *testing.T) {
	current := map[string]float64{"stocks": 800, "gold": 100, "cash": 100}
	targets := map[string]float64{"stocks": 50, "gold": 30, "cash": 20}

	got := Rebalance(1000, current, targets)

	// Future total 2000: targets are 1000/600/400, gaps 200/500/300.
	var sum float64
	for _, v := range got {
		sum += v
	}
	if math.Abs(sum-1000) > 0.05 {
		t.Fatalf("suggestions sum to %v, want the full 1000", sum)
	}
	if got["gold"] <= got["cash"] || got["cash"] <= got["stocks"] {
		t.Errorf("gap ordering violated: %+v", got)
	}
	if math.Abs(got["stocks"]-200) > 0.01 || math.Abs(got["gold"]-500) > 0.01 || math.Abs(got["cash"]-300) > 0.01 {
		t.Errorf("suggestions = %+v, want 200/500/300", got)
	}
}

func TestRebalanceOverTargetGetsNothing(t *testing.T) {
	current := map[string]float64{"stocks": 5000, "cash": 0}
	targets := map[string]float64{"stocks": 50, "cash": 50}

	got := Rebalance(100, current, targets)
	if got["stocks"] != 0 {
		t.Errorf("over-target category got %v, want 0", got["stocks"])
	}
	if got["cash"] != 100 {
		t.Errorf("cash got %v, want the full 100", got["cash"])
	}
}

func TestRebalanceEmptyPortfolioSplitsByTargets(t *testing.T) {
	current := map[string]float64{}
	targets := map[string]float64{"stocks": 60, "cash": 40}

	got := Rebalance(500, current, targets)
	if math.Abs(got["stocks"]-300) > 0.01 || math.Abs(got["cash"]-200) > 0.01 {
		t.Errorf("suggestions = %+v, want 300/200", got)
	}
}

func TestRebalanceNonPositiveInvestment(t *testing.T) {
	got := Rebalance(0, map[string]float64{"stocks": 100}, map[string]float64{"stocks": 100})
	if len(got) != 0 {
		t.Errorf("suggestions = %+v, want empty for zero investment", got)
	}
}

func TestRebalanceUnknownCurrentCategoryIgnored(t *testing.T) {
	// Money parked in a category outside the target set still counts toward
	// the future total but receives no suggestion.
	current := map[string]float64{"crypto": 1000}
	targets := map[string]float64{"stocks": 100}

	got := Rebalance(500, current, targets)
	if _, ok := got["crypto"]; ok {
		t.Error("suggestion emitted for category outside target set")
	}
	if got["stocks"] != 500 {
		t.Errorf("stocks got %v, want the full 500", got["stocks"])
	}
}
