// Package marketdata provides daily bar retrieval: a remote source backed by
// the Alpaca market-data API, a read-through cache over the Parquet store,
// and a concurrent fetcher for bulk downloads.
package marketdata

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/domain"
)

// ErrNoBars is returned when a source has no data for the requested symbol
// and range.
var ErrNoBars = errors.New("marketdata: no bars for symbol")

// Source supplies daily bars for a symbol within [start, end], in ascending
// timestamp order.
type Source interface {
	DailyBars(ctx context.Context, symbol string, market domain.Market, start, end time.Time) ([]domain.Bar, error)
}
