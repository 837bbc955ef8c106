// Package analysis scores a symbol's technical posture and sizes positions
// from that score. Scores run 0-100: a composite of oscillator reading,
// trend alignment, and volume interest.
package analysis

import (
	"math"

	"fintrack/internal/domain"
	"fintrack/internal/indicator"
)

// Component weights of the composite score.
const (
	rsiWeight    = 0.3
	trendWeight  = 0.4
	volumeWeight = 0.3
)

// minScoreBars is the fewest bars a series needs before scoring is
// meaningful; shorter series get the neutral score.
const minScoreBars = 50

// NeutralScore is returned for series too short to score.
const NeutralScore = 50.0

// Signal is the actionable view of one symbol: the composite score, the
// current oscillator reading, a suggested position fraction, and a label.
type Signal struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	RSI      float64 `json:"rsi"`
	KellyPct float64 `json:"kelly_pct"`
}

// Signal labels in descending score order.
const (
	LabelStrongBuy  = "STRONG BUY"
	LabelBuy        = "BUY"
	LabelNeutral    = "NEUTRAL"
	LabelSell       = "SELL"
	LabelStrongSell = "STRONG SELL"
)

// TechnicalScore computes the 0-100 composite score for a bar series.
// Series shorter than 50 bars score neutral.
func TechnicalScore(bars []domain.Bar) float64 {
	if len(bars) < minScoreBars {
		return NeutralScore
	}

	last := len(bars) - 1
	price := bars[last].Close

	// Oscillator component: higher score the more oversold, peaking as the
	// reading falls back toward 50 from below.
	rsi, err := indicator.RSI(bars, indicator.DefaultRSIWindow)
	if err != nil {
		return NeutralScore
	}
	current := rsi[last]
	var rsiScore float64
	if current > 50 {
		rsiScore = 100 - current
	} else {
		rsiScore = current + 50
	}
	rsiScore = math.Max(0, math.Min(100, rsiScore))

	// Trend component: price above SMA50, golden alignment, price above
	// SMA200. A series too short for SMA200 falls back to SMA50.
	sma50, err := indicator.SMA(bars, 50)
	if err != nil {
		return NeutralScore
	}
	short := sma50[last]
	long := short
	if len(bars) >= 200 {
		sma200, err := indicator.SMA(bars, 200)
		if err != nil {
			return NeutralScore
		}
		long = sma200[last]
	}

	var trendScore float64
	if price > short {
		trendScore += 30
	}
	if short > long {
		trendScore += 40
	}
	if price > long {
		trendScore += 30
	}

	// Volume component: today's volume against the 20-day average; double
	// the average saturates at 100.
	var volSum int64
	for _, b := range bars[len(bars)-20:] {
		volSum += b.Volume
	}
	avgVol := float64(volSum) / 20
	volRatio := 1.0
	if avgVol > 0 {
		volRatio = float64(bars[last].Volume) / avgVol
	}
	volScore := math.Min(100, volRatio*50)

	score := rsiScore*rsiWeight + trendScore*trendWeight + volScore*volumeWeight
	return math.Round(score*100) / 100
}

// KellyFraction converts a score into a recommended position size as a
// percentage of capital, using a half-Kelly with an assumed 1.5 reward/risk
// ratio, capped at 25%.
func KellyFraction(score float64) float64 {
	const rewardRisk = 1.5
	p := score / 100
	kelly := (p*(rewardRisk+1) - 1) / rewardRisk

	recommended := math.Max(0, kelly/2)
	return math.Round(math.Min(recommended, 0.25)*100*100) / 100
}

// Signals computes the full signal view for a bar series.
func Signals(bars []domain.Bar) Signal {
	score := TechnicalScore(bars)

	var currentRSI float64
	if rsi, err := indicator.RSI(bars, indicator.DefaultRSIWindow); err == nil {
		last := rsi[len(rsi)-1]
		if indicator.Defined(last) {
			currentRSI = math.Round(last*100) / 100
		}
	}

	return Signal{
		Label:    scoreLabel(score),
		Score:    score,
		RSI:      currentRSI,
		KellyPct: KellyFraction(score),
	}
}

func scoreLabel(score float64) string {
	switch {
	case score >= 80:
		return LabelStrongBuy
	case score >= 60:
		return LabelBuy
	case score >= 40:
		return LabelNeutral
	case score >= 20:
		return LabelSell
	default:
		return LabelStrongSell
	}
}
