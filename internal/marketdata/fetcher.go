package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/domain"
	"fintrack/internal/store"
)

// batchSize is the number of symbols requested per API call.
const batchSize = 50

// MultiBarSource fetches bars for a batch of symbols in one call.
// *AlpacaSource satisfies it.
type MultiBarSource interface {
	MultiDailyBars(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.Bar, error)
}

// Fetcher downloads daily bars for a symbol list and persists them to the
// bar store, fanning batches out across a bounded worker pool.
type Fetcher struct {
	source     MultiBarSource
	store      store.BarStore
	maxWorkers int
	log        *slog.Logger
}

// NewFetcher creates a Fetcher writing to the given store with at most
// maxWorkers concurrent batch requests.
func NewFetcher(source MultiBarSource, s store.BarStore, maxWorkers int) *Fetcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Fetcher{
		source:     source,
		store:      s,
		maxWorkers: maxWorkers,
		log:        slog.Default().With("component", "fetcher"),
	}
}

// FetchResult summarises one Fetch run.
type FetchResult struct {
	Symbols int           // symbols with at least one bar
	Empty   int           // symbols the API returned nothing for
	Bars    int           // total bars written
	Elapsed time.Duration
}

// Fetch downloads bars for all symbols in [start, end] and writes them to
// the store. Individual batch failures are logged and skipped; the run only
// fails on context cancellation.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string, market domain.Market, start, end time.Time) (*FetchResult, error) {
	if len(symbols) == 0 {
		return &FetchResult{}, nil
	}

	var batches [][]string
	for i := 0; i < len(symbols); i += batchSize {
		batches = append(batches, symbols[i:min(i+batchSize, len(symbols))])
	}

	f.log.Info("starting fetch",
		"symbols", len(symbols),
		"batches", len(batches),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
	)

	batchCh := make(chan []string, len(batches))
	for _, b := range batches {
		batchCh <- b
	}
	close(batchCh)

	var (
		wg       sync.WaitGroup
		hits     atomic.Int64
		misses   atomic.Int64
		barCount atomic.Int64
		runStart = time.Now()
	)

	workers := min(f.maxWorkers, len(batches))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchCh {
				if ctx.Err() != nil {
					return
				}

				multi, err := f.source.MultiDailyBars(ctx, batch, start, end)
				if err != nil {
					f.log.Error("batch fetch failed", "symbols", len(batch), "err", err)
					continue
				}

				var bars []domain.Bar
				for _, symBars := range multi {
					bars = append(bars, symBars...)
				}
				if len(bars) > 0 {
					if err := f.store.WriteBars(ctx, bars, market); err != nil {
						f.log.Error("writing bars failed", "err", err)
						continue
					}
				}

				hits.Add(int64(len(multi)))
				misses.Add(int64(len(batch) - len(multi)))
				barCount.Add(int64(len(bars)))

				f.log.Info("batch done",
					"hits", len(multi),
					"empty", len(batch)-len(multi),
					"bars", len(bars),
					"elapsed", time.Since(runStart).Round(time.Second),
				)
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res := &FetchResult{
		Symbols: int(hits.Load()),
		Empty:   int(misses.Load()),
		Bars:    int(barCount.Load()),
		Elapsed: time.Since(runStart),
	}
	f.log.Info("fetch complete",
		"symbols", res.Symbols,
		"empty", res.Empty,
		"bars", res.Bars,
		"elapsed", res.Elapsed.Round(time.Second),
	)
	if res.Symbols == 0 {
		return res, fmt.Errorf("%w: none of %d symbols returned data", ErrNoBars, len(symbols))
	}
	return res, nil
}
