package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/domain"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.barPath("aapl", domain.MarketUS, 2024)
	want := filepath.Join("/data", "us", "daily", "AAPL", "2024.parquet")
	if got != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := []domain.Bar{
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:       185.0,
			High:       186.5,
			Low:        184.0,
			Close:      185.5,
			Volume:     50000000,
			TradeCount: 500000,
			VWAP:       185.25,
		},
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:       185.5,
			High:       187.0,
			Low:        185.0,
			Close:      186.0,
			Volume:     45000000,
			TradeCount: 450000,
			VWAP:       185.75,
		},
	}

	if err := ps.WriteBars(ctx, bars, domain.MarketUS); err != nil {
		t.Fatalf("WriteBars returned error: %v", err)
	}

	got, err := ps.ReadBars(ctx, "AAPL", domain.MarketUS,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if got[0].Close != 185.5 || got[1].Close != 186.0 {
		t.Errorf("closes = %v, %v; want 185.5, 186.0", got[0].Close, got[1].Close)
	}
	if !domain.SortedBars(got) {
		t.Error("ReadBars returned unsorted bars")
	}
}

func TestParquetStoreMergeOnRewrite(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	day := func(d int, close float64) domain.Bar {
		return domain.Bar{
			Symbol:    "MSFT",
			Timestamp: time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC),
			Close:     close,
		}
	}

	if err := ps.WriteBars(ctx, []domain.Bar{day(1, 100), day(2, 101)}, domain.MarketUS); err != nil {
		t.Fatalf("first WriteBars: %v", err)
	}
	// Overlapping second write: day 2 corrected, day 3 new.
	if err := ps.WriteBars(ctx, []domain.Bar{day(2, 999), day(3, 102)}, domain.MarketUS); err != nil {
		t.Fatalf("second WriteBars: %v", err)
	}

	got, err := ps.ReadBars(ctx, "MSFT", domain.MarketUS,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d bars after merge, want 3", len(got))
	}
	if got[1].Close != 999 {
		t.Errorf("day 2 close = %v, want the corrected 999", got[1].Close)
	}
}

func TestParquetStoreReadRangeFilter(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	var bars []domain.Bar
	for d := 1; d <= 20; d++ {
		bars = append(bars, domain.Bar{
			Symbol:    "SPY",
			Timestamp: time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC),
			Close:     float64(d),
		})
	}
	if err := ps.WriteBars(ctx, bars, domain.MarketUS); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := ps.ReadBars(ctx, "SPY", domain.MarketUS,
		time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d bars in range, want 6 (bounds inclusive)", len(got))
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bar := func(sym string) domain.Bar {
		return domain.Bar{Symbol: sym, Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 1}
	}
	if err := ps.WriteBars(ctx, []domain.Bar{bar("NVDA"), bar("AAPL")}, domain.MarketUS); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx, domain.MarketUS)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "NVDA" {
		t.Errorf("symbols = %v, want [AAPL NVDA]", symbols)
	}

	// A market with no data yields no symbols and no error.
	symbols, err = ps.ListSymbols(ctx, domain.MarketTR)
	if err != nil || len(symbols) != 0 {
		t.Errorf("empty market: symbols=%v err=%v", symbols, err)
	}
}

// ---------------------------------------------------------------------------
// SQLite
// ---------------------------------------------------------------------------

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteTransactions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	tx := &domain.Transaction{
		Date:     time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		Symbol:   "AAPL",
		Side:     domain.TradeSideBuy,
		Quantity: 10,
		Price:    185.5,
	}
	if err := s.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx.ID == 0 {
		t.Fatal("AddTransaction did not set the ID")
	}

	sell := &domain.Transaction{
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Symbol:   "AAPL",
		Side:     domain.TradeSideSell,
		Quantity: 4,
		Price:    200,
	}
	if err := s.AddTransaction(ctx, sell); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	txs, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].Side != domain.TradeSideBuy || txs[1].Side != domain.TradeSideSell {
		t.Errorf("order = %s, %s; want BUY then SELL", txs[0].Side, txs[1].Side)
	}
	if !txs[0].Date.Equal(tx.Date) {
		t.Errorf("date round-trip = %v, want %v", txs[0].Date, tx.Date)
	}

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	txs, _ = s.ListTransactions(ctx)
	if len(txs) != 1 {
		t.Fatalf("got %d transactions after delete, want 1", len(txs))
	}

	if err := s.DeleteTransaction(ctx, 9999); err == nil {
		t.Error("DeleteTransaction of a missing ID should fail")
	}
}

func TestSQLitePaperTrades(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	trade := &domain.PaperTrade{
		Date:         time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Symbol:       "NVDA",
		Side:         domain.TradeSideBuy,
		Quantity:     2.5,
		Price:        120,
		Commission:   0.6,
		BalanceAfter: 699.4,
	}
	if err := s.AddPaperTrade(ctx, trade); err != nil {
		t.Fatalf("AddPaperTrade: %v", err)
	}

	trades, err := s.ListPaperTrades(ctx)
	if err != nil {
		t.Fatalf("ListPaperTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d paper trades, want 1", len(trades))
	}
	if trades[0].Commission != 0.6 || trades[0].BalanceAfter != 699.4 {
		t.Errorf("round-trip lost fields: %+v", trades[0])
	}
}

func TestSQLitePaperSettings(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	// Missing key falls back to the default.
	got, err := s.GetPaperSetting(ctx, "balance", 1000)
	if err != nil {
		t.Fatalf("GetPaperSetting: %v", err)
	}
	if got != 1000 {
		t.Errorf("default = %v, want 1000", got)
	}

	if err := s.SetPaperSetting(ctx, "balance", 875.25); err != nil {
		t.Fatalf("SetPaperSetting: %v", err)
	}
	// Upsert overwrites.
	if err := s.SetPaperSetting(ctx, "balance", 900.5); err != nil {
		t.Fatalf("SetPaperSetting: %v", err)
	}

	got, err = s.GetPaperSetting(ctx, "balance", 1000)
	if err != nil {
		t.Fatalf("GetPaperSetting: %v", err)
	}
	if got != 900.5 {
		t.Errorf("stored value = %v, want 900.5", got)
	}
}
