package backtest

import (
	"sort"
	"sync"

	"fintrack/internal/domain"
)

// minAnnualBars is the policy floor for a calendar-year partition to be
// worth backtesting. Years with fewer bars are skipped entirely rather than
// producing noise results.
const minAnnualBars = 20

// AnnualResult pairs one calendar year with the metrics of a fresh backtest
// over that year's bars.
type AnnualResult struct {
	Year    int     `json:"year"`
	Metrics Metrics `json:"metrics"`
}

// RunAnnual partitions bars by calendar year and runs the engine once per
// qualifying year, each time starting from the same initial capital. Returns
// results in ascending year order; an empty slice when no year qualifies.
//
// Capital deliberately does not carry over between years: every year is an
// independent run so the per-year returns are directly comparable, instead
// of one compounding multi-year curve.
func RunAnnual(bars []domain.Bar, strat Strategy, cfg Config) ([]AnnualResult, error) {
	if _, err := ParseStrategy(string(strat)); err != nil {
		return nil, err
	}

	byYear := make(map[int][]domain.Bar)
	for _, b := range bars {
		y := b.Timestamp.Year()
		byYear[y] = append(byYear[y], b)
	}

	var years []int
	for y, partition := range byYear {
		if len(partition) >= minAnnualBars {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	if len(years) == 0 {
		return []AnnualResult{}, nil
	}

	// Each run is a pure function over its own partition, so the years can
	// replay in parallel without locking.
	results := make([]AnnualResult, len(years))
	errs := make([]error, len(years))
	var wg sync.WaitGroup
	for i, year := range years {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Run(byYear[year], strat, cfg)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = AnnualResult{Year: year, Metrics: res.Metrics}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
