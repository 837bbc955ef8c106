// Package httpapi exposes the backtest engine, technical scoring, and
// portfolio tools as a JSON REST API.
package httpapi

import (
	"fintrack/internal/analysis"
	"fintrack/internal/backtest"
	"fintrack/internal/benchmark"
	"fintrack/internal/domain"
	"fintrack/pkg/fintrack"
)

// The wire DTOs are defined in pkg/fintrack so SDK callers outside this
// module can name them. The server reuses them under their local names and
// converts engine output at the boundary.
type (
	BacktestRequest    = fintrack.BacktestRequest
	BacktestResponse   = fintrack.BacktestResponse
	AnnualResponse     = fintrack.AnnualResponse
	ScoreResponse      = fintrack.ScoreResponse
	BarsResponse       = fintrack.BarsResponse
	PortfolioResponse  = fintrack.PortfolioResponse
	HoldingJSON        = fintrack.Holding
	TransactionRequest = fintrack.TransactionRequest
	RebalanceRequest   = fintrack.RebalanceRequest
	RebalanceResponse  = fintrack.RebalanceResponse
	BenchmarkResponse  = fintrack.BenchmarkResponse
)

// ---------------------------------------------------------------------------
// Engine-to-wire conversion
// ---------------------------------------------------------------------------

func toMetrics(m backtest.Metrics) fintrack.Metrics {
	return fintrack.Metrics{
		Strategy:       string(m.Strategy),
		InitialCapital: m.InitialCapital,
		TotalInvested:  m.TotalInvested,
		FinalEquity:    m.FinalEquity,
		TotalReturnPct: m.TotalReturnPct,
		TradeCount:     m.TradeCount,
		Start:          m.Start,
		End:            m.End,
	}
}

func toResult(r *backtest.Result) *fintrack.Result {
	return &fintrack.Result{
		Metrics: toMetrics(r.Metrics),
		Curve: fintrack.EquityCurve{
			Timestamps: r.Curve.Timestamps,
			Strategy:   r.Curve.Strategy,
			BuyHold:    r.Curve.BuyHold,
		},
	}
}

func toAnnual(rs []backtest.AnnualResult) []fintrack.AnnualResult {
	out := make([]fintrack.AnnualResult, 0, len(rs))
	for _, r := range rs {
		out = append(out, fintrack.AnnualResult{Year: r.Year, Metrics: toMetrics(r.Metrics)})
	}
	return out
}

func toSignal(s analysis.Signal) fintrack.Signal {
	return fintrack.Signal{Label: s.Label, Score: s.Score, RSI: s.RSI, KellyPct: s.KellyPct}
}

func toBars(bs []domain.Bar) []fintrack.Bar {
	out := make([]fintrack.Bar, 0, len(bs))
	for _, b := range bs {
		out = append(out, fintrack.Bar{
			Symbol:     b.Symbol,
			Timestamp:  b.Timestamp,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}
	return out
}

func toSummary(s benchmark.Summary) fintrack.Summary {
	return fintrack.Summary{NominalPct: s.NominalPct, RealPct: s.RealPct, Sharpe: s.Sharpe}
}
