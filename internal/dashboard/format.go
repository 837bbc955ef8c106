// Package dashboard holds the presentation helpers shared by the TUI and
// any text rendering of backtest results: number formatting and a terminal
// sparkline for equity curves.
package dashboard

import (
	"fmt"
	"strings"
)

// FormatMoney formats a currency amount with comma separators and two
// decimals.
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := int64(v)
	frac := int64((v-float64(whole))*100 + 0.5)
	if frac >= 100 {
		whole++
		frac -= 100
	}

	s := fmt.Sprintf("%d", whole)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return fmt.Sprintf("%s.%02d", b.String(), frac)
}

// FormatPct formats a percentage with an explicit sign, e.g. "+12.34%".
func FormatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// sparkRunes are the eight block levels of a sparkline, lowest first.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a series as a fixed-width run of block characters,
// downsampling by bucket averages. Empty input yields an empty string; a
// flat series renders at the middle level.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}

	// Bucket means.
	buckets := make([]float64, width)
	per := float64(len(values)) / float64(width)
	for i := 0; i < width; i++ {
		lo := int(float64(i) * per)
		hi := int(float64(i+1) * per)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(values) {
			hi = len(values)
		}
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		buckets[i] = sum / float64(hi-lo)
	}

	minV, maxV := buckets[0], buckets[0]
	for _, v := range buckets {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	var b strings.Builder
	for _, v := range buckets {
		idx := len(sparkRunes) / 2
		if maxV > minV {
			idx = int((v - minV) / (maxV - minV) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
