package backtest

import (
	"errors"
	"fmt"

	"fintrack/internal/domain"
	"fintrack/internal/indicator"
)

// Strategy identifies one of the built-in trading strategies. The set is
// closed: callers select by identifier, there is no external plugin point.
type Strategy string

const (
	// StrategyThreshold buys when the RSI oscillator drops below 30 and
	// sells when it rises above 70 (mean reversion).
	StrategyThreshold Strategy = "rsi-threshold"

	// StrategyMACross buys while SMA50 is above SMA200 and sells on the
	// opposite cross (trend following).
	StrategyMACross Strategy = "sma-cross"

	// StrategyBuyHold invests everything on the first bar and never sells.
	StrategyBuyHold Strategy = "buy-hold"

	// StrategyDCA contributes a fixed amount every calendar month and
	// immediately invests it.
	StrategyDCA Strategy = "dca"

	// StrategyDCASmart is DCA with a conditional sizing multiplier: 1.5x
	// below the 200-day average, 0.5x when the oscillator is overbought.
	StrategyDCASmart Strategy = "dca-smart"
)

// ErrUnsupportedStrategy is returned for identifiers outside the closed set.
var ErrUnsupportedStrategy = errors.New("backtest: unsupported strategy")

// Strategies returns all supported strategy identifiers in display order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyThreshold,
		StrategyMACross,
		StrategyBuyHold,
		StrategyDCA,
		StrategyDCASmart,
	}
}

// ParseStrategy validates a strategy identifier. Unknown identifiers are a
// configuration error, never silently defaulted.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(name)
	switch s {
	case StrategyThreshold, StrategyMACross, StrategyBuyHold, StrategyDCA, StrategyDCASmart:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedStrategy, name)
}

// Periodic reports whether the strategy invests via forced monthly
// contributions instead of discretionary entry/exit rules.
func (s Strategy) Periodic() bool {
	return s == StrategyDCA || s == StrategyDCASmart
}

// Strategy rule thresholds.
const (
	rsiBuyLevel  = 30.0
	rsiSellLevel = 70.0

	shortWindow = 50
	longWindow  = 200

	// Smart DCA sizing: buy the dip harder, ease off when overbought.
	dipMultiplier        = 1.5
	overboughtMultiplier = 0.5
	overboughtRSI        = 80.0
)

// action is a per-bar decision for lump-sum strategies.
type action int

const (
	actHold action = iota
	actBuy
	actSell
)

// decisionFn evaluates the strategy rule at bar index i given whether a
// position is currently held. It must consult only values computable from
// bars[0..i].
type decisionFn func(i int, invested bool) action

// lumpSumRule builds the decision function for a lump-sum strategy over a
// bar series, precomputing the indicators the rule needs.
func lumpSumRule(strat Strategy, bars []domain.Bar) (decisionFn, error) {
	switch strat {
	case StrategyThreshold:
		rsi, err := indicator.RSI(bars, indicator.DefaultRSIWindow)
		if err != nil {
			return nil, err
		}
		return func(i int, invested bool) action {
			if !indicator.Defined(rsi[i]) {
				return actHold
			}
			if rsi[i] < rsiBuyLevel && !invested {
				return actBuy
			}
			if rsi[i] > rsiSellLevel && invested {
				return actSell
			}
			return actHold
		}, nil

	case StrategyMACross:
		short, err := indicator.SMA(bars, shortWindow)
		if err != nil {
			return nil, err
		}
		long, err := indicator.SMA(bars, longWindow)
		if err != nil {
			return nil, err
		}
		return func(i int, invested bool) action {
			if !indicator.Defined(short[i]) || !indicator.Defined(long[i]) {
				return actHold
			}
			if short[i] > long[i] && !invested {
				return actBuy
			}
			if short[i] < long[i] && invested {
				return actSell
			}
			return actHold
		}, nil

	case StrategyBuyHold:
		return func(i int, invested bool) action {
			if i == 0 && !invested {
				return actBuy
			}
			return actHold
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strat)
}

// contributionSizer returns the monthly contribution multiplier function for
// a periodic strategy.
func contributionSizer(strat Strategy, bars []domain.Bar) (func(i int) float64, error) {
	if strat == StrategyDCA {
		return func(int) float64 { return 1.0 }, nil
	}

	// dca-smart: condition sizing on SMA200 and RSI.
	long, err := indicator.SMA(bars, longWindow)
	if err != nil {
		return nil, err
	}
	rsi, err := indicator.RSI(bars, indicator.DefaultRSIWindow)
	if err != nil {
		return nil, err
	}
	return func(i int) float64 {
		if indicator.Defined(long[i]) && bars[i].Close < long[i] {
			return dipMultiplier
		}
		if indicator.Defined(rsi[i]) && rsi[i] > overboughtRSI {
			return overboughtMultiplier
		}
		return 1.0
	}, nil
}
