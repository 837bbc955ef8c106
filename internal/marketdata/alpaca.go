package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"fintrack/internal/domain"
	"fintrack/internal/util"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

const (
	alpacaMaxAttempts = 3
	alpacaRetryDelay  = 2 * time.Second
)

// AlpacaSource fetches daily bars from the Alpaca market-data API. Requests
// pass through a shared rate limiter and are retried on transient failures.
type AlpacaSource struct {
	client  *marketdata.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials.
// dataURL overrides the API endpoint when non-empty; rateLimitPerMin bounds
// the request rate across all callers of this source.
func NewAlpacaSource(apiKey, apiSecret, dataURL string, rateLimitPerMin int) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaSource{
		client:  marketdata.NewClient(opts),
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("source", "alpaca"),
	}
}

// DailyBars fetches daily bars for one symbol within [start, end].
func (s *AlpacaSource) DailyBars(ctx context.Context, symbol string, _ domain.Market, start, end time.Time) ([]domain.Bar, error) {
	multi, err := s.fetchMultiBars(ctx, []string{symbol}, start, end)
	if err != nil {
		return nil, err
	}
	bars, ok := multi[strings.ToUpper(symbol)]
	if !ok || len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBars, symbol)
	}
	return bars, nil
}

// MultiDailyBars fetches daily bars for a batch of symbols in one API call,
// keyed by upper-cased symbol. Symbols with no data are absent from the map.
func (s *AlpacaSource) MultiDailyBars(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.Bar, error) {
	return s.fetchMultiBars(ctx, symbols, start, end)
}

func (s *AlpacaSource) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.Bar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var multiBars map[string][]marketdata.Bar
	err := util.Retry(ctx, alpacaMaxAttempts, alpacaRetryDelay, func() error {
		var err error
		multiBars, err = s.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      "sip",
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	out := make(map[string][]domain.Bar, len(multiBars))
	for symbol, alpacaBars := range multiBars {
		bars := make([]domain.Bar, 0, len(alpacaBars))
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
		domain.SortBars(bars)
		out[strings.ToUpper(symbol)] = bars
	}
	return out, nil
}
