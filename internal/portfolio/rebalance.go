package portfolio

import "math"

// Rebalance distributes newInvestment across allocation categories so the
// portfolio moves toward targetPct (percentages summing to 100).
//
// Only under-target categories receive money, proportionally to their gap
// against the post-investment total. Nothing is ever sold: over-target
// categories simply get zero. When every category is at or over target the
// money falls back to the plain target split.
func Rebalance(newInvestment float64, currentValues map[string]float64, targetPct map[string]float64) map[string]float64 {
	if newInvestment <= 0 || len(targetPct) == 0 {
		return map[string]float64{}
	}

	var currentTotal float64
	for _, v := range currentValues {
		currentTotal += v
	}
	futureTotal := currentTotal + newInvestment

	gaps := make(map[string]float64, len(targetPct))
	var totalGap float64
	for cat, pct := range targetPct {
		target := pct / 100 * futureTotal
		gap := math.Max(0, target-currentValues[cat])
		gaps[cat] = gap
		totalGap += gap
	}

	suggestions := make(map[string]float64, len(targetPct))
	if totalGap > 0 {
		for cat, gap := range gaps {
			suggestions[cat] = round2(gap / totalGap * newInvestment)
		}
		return suggestions
	}

	for cat, pct := range targetPct {
		suggestions[cat] = round2(pct / 100 * newInvestment)
	}
	return suggestions
}
