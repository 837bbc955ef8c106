// Package benchmark compares asset price series on a common footing:
// base-100 normalization, annualized Sharpe ratio, and inflation-adjusted
// returns.
package benchmark

import (
	"math"

	"fintrack/internal/domain"
)

// tradingDaysPerYear is the annualization factor for daily returns.
const tradingDaysPerYear = 252

// Summary holds the per-asset comparison metrics. Returns are percentages,
// Sharpe is a ratio.
type Summary struct {
	NominalPct float64 `json:"nominal_pct"`
	RealPct    float64 `json:"real_pct"`
	Sharpe     float64 `json:"sharpe"`
}

// Normalize rescales a price series to base 100 at its first value, so
// assets with wildly different price levels plot on one axis. A series whose
// first price is zero is returned as-is.
func Normalize(prices []float64) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 || prices[0] == 0 {
		copy(out, prices)
		return out
	}
	first := prices[0]
	for i, p := range prices {
		out[i] = p / first * 100
	}
	return out
}

// SharpeRatio computes the annualized Sharpe ratio of a price series
// against an annual risk-free rate (fractional, e.g. 0.40). Series shorter
// than two points or with zero volatility score 0.
func SharpeRatio(prices []float64, riskFreeAnnual float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if len(returns) < 1 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	// Sample standard deviation.
	if len(returns) > 1 {
		variance /= float64(len(returns) - 1)
	}
	std := math.Sqrt(variance)

	annualRet := mean * tradingDaysPerYear
	annualStd := std * math.Sqrt(tradingDaysPerYear)
	if annualStd == 0 {
		return 0
	}
	return math.Round((annualRet-riskFreeAnnual)/annualStd*100) / 100
}

// RealReturn converts a nominal percentage return into an
// inflation-adjusted one: ((1+nominal)/(1+inflation) - 1). inflationAnnual
// is a percentage (45 means 45%).
func RealReturn(nominalPct, inflationAnnual float64) float64 {
	nom := nominalPct / 100
	inf := inflationAnnual / 100
	real := (1+nom)/(1+inf) - 1
	return math.Round(real*100*100) / 100
}

// Summarize computes the comparison metrics for a bar series under the
// given macro rates. inflationAnnual is a percentage, riskFreeAnnual a
// fraction.
func Summarize(bars []domain.Bar, inflationAnnual, riskFreeAnnual float64) Summary {
	prices := domain.Closes(bars)
	if len(prices) == 0 || prices[0] == 0 {
		return Summary{}
	}

	nominal := (prices[len(prices)-1]/prices[0] - 1) * 100
	nominal = math.Round(nominal*100) / 100

	return Summary{
		NominalPct: nominal,
		RealPct:    RealReturn(nominal, inflationAnnual),
		Sharpe:     SharpeRatio(prices, riskFreeAnnual),
	}
}
