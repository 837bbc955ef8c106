// Package indicator provides pure technical indicator transforms over daily
// bar series. Every function is deterministic for a given input and keeps no
// state between calls, so they are safe to use concurrently.
//
// Outputs are aligned with the input: the value at index i is derived from
// bars[0..i] only. Indexes inside the warm-up window hold math.NaN(); use
// Defined to test a value before acting on it.
package indicator

import (
	"errors"
	"math"

	"fintrack/internal/domain"
)

// DefaultRSIWindow is the conventional RSI lookback.
const DefaultRSIWindow = 14

// ErrNoData is returned when a series is empty or a window is not positive.
// It is an expected caller-visible condition, not a failure.
var ErrNoData = errors.New("indicator: no data")

// Defined reports whether an indicator value is usable (not in the warm-up
// window).
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// SMA computes the simple moving average of close prices over the trailing
// window ending at each bar (inclusive). The first window-1 values are NaN.
func SMA(bars []domain.Bar, window int) ([]float64, error) {
	if len(bars) == 0 || window <= 0 {
		return nil, ErrNoData
	}

	out := make([]float64, len(bars))
	var sum float64
	for i := range bars {
		sum += bars[i].Close
		if i >= window {
			sum -= bars[i-window].Close
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// RSI computes the relative strength oscillator over the trailing window:
// the mean of positive one-bar deltas against the mean of negated negative
// deltas, mapped through 100 - 100/(1+gain/loss). Values are bounded to
// [0, 100]; a zero average loss saturates the oscillator at 100 rather than
// letting the division produce Inf. The first window values are NaN (the
// delta at index 0 is itself undefined).
func RSI(bars []domain.Bar, window int) ([]float64, error) {
	if len(bars) == 0 || window <= 0 {
		return nil, ErrNoData
	}

	out := make([]float64, len(bars))
	out[0] = math.NaN()

	var gainSum, lossSum float64
	for i := 1; i < len(bars); i++ {
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
		if i > window {
			old := bars[i-window].Close - bars[i-window-1].Close
			if old > 0 {
				gainSum -= old
			} else {
				lossSum -= -old
			}
		}

		if i < window {
			out[i] = math.NaN()
			continue
		}

		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		switch {
		case avgLoss == 0 && avgGain == 0:
			// No movement at all in the window: neither gain nor loss.
			// Treat as neutral rather than overbought.
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out, nil
}
