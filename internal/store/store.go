// Package store defines storage interfaces for persisting and retrieving
// domain objects: price bars, the portfolio transaction ledger, and the
// paper trading record.
package store

import (
	"context"
	"time"

	"fintrack/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market.
	WriteBars(ctx context.Context, bars []domain.Bar, market domain.Market) error

	// ReadBars returns bars for the given symbol and market within
	// [start, end], in ascending timestamp order.
	ReadBars(ctx context.Context, symbol string, market domain.Market, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market domain.Market) ([]string, error)
}

// TransactionStore persists the user's portfolio ledger.
type TransactionStore interface {
	// AddTransaction inserts a ledger entry and sets its ID.
	AddTransaction(ctx context.Context, tx *domain.Transaction) error

	// ListTransactions returns all ledger entries, oldest first.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// DeleteTransaction removes a ledger entry by ID.
	DeleteTransaction(ctx context.Context, id int64) error
}

// PaperStore persists the paper trading bot's trades and account state.
type PaperStore interface {
	// AddPaperTrade records one executed simulated trade and sets its ID.
	AddPaperTrade(ctx context.Context, trade *domain.PaperTrade) error

	// ListPaperTrades returns all recorded simulated trades, oldest first.
	ListPaperTrades(ctx context.Context) ([]domain.PaperTrade, error)

	// GetPaperSetting returns a named account value (e.g. the cash balance).
	// Missing keys return the given default.
	GetPaperSetting(ctx context.Context, key string, def float64) (float64, error)

	// SetPaperSetting upserts a named account value.
	SetPaperSetting(ctx context.Context, key string, value float64) error
}
