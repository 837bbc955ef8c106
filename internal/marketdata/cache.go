package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/domain"
	"fintrack/internal/store"
)

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// CachedSource is a read-through cache: bars are served from the local bar
// store when present, fetched from the remote source and persisted on a
// miss. A remote failure after a partial cache hit serves the cached bars
// rather than failing the request.
type CachedSource struct {
	remote Source
	bars   store.BarStore
	log    *slog.Logger
}

// NewCachedSource wraps remote with a read-through cache over bars.
func NewCachedSource(remote Source, bars store.BarStore) *CachedSource {
	return &CachedSource{
		remote: remote,
		bars:   bars,
		log:    slog.Default().With("source", "cached"),
	}
}

// DailyBars serves bars from the cache, falling back to the remote source.
func (c *CachedSource) DailyBars(ctx context.Context, symbol string, market domain.Market, start, end time.Time) ([]domain.Bar, error) {
	cached, err := c.bars.ReadBars(ctx, symbol, market, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if covers(cached, start, end) {
		return cached, nil
	}

	fresh, err := c.remote.DailyBars(ctx, symbol, market, start, end)
	if err != nil {
		if len(cached) > 0 && !errors.Is(err, context.Canceled) {
			c.log.Warn("remote fetch failed, serving cached bars",
				"symbol", symbol, "cached", len(cached), "err", err)
			return cached, nil
		}
		return nil, err
	}

	if err := c.bars.WriteBars(ctx, fresh, market); err != nil {
		c.log.Warn("caching bars failed", "symbol", symbol, "err", err)
	}
	return fresh, nil
}

// covers reports whether cached bars plausibly span the requested range.
// Daily data never has a bar on every calendar day, so the check allows a
// few days of slack at each edge before declaring a miss.
func covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	const slack = 5 * 24 * time.Hour
	if bars[0].Timestamp.Sub(start) > slack {
		return false
	}
	if end.Sub(bars[len(bars)-1].Timestamp) > slack {
		return false
	}
	return true
}
