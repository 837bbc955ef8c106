package fintrack

import "time"

// Wire types for the fintrack-server API. They live here rather than in the
// server package so modules importing the SDK can name every request and
// response type. The server marshals its engine output into these shapes.

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// BacktestRequest is the body of POST /api/v1/backtest and
// POST /api/v1/backtest/annual. Dates are "YYYY-MM-DD". Zero-valued
// parameters fall back to the server's configured defaults.
type BacktestRequest struct {
	Symbol              string  `json:"symbol"`
	Market              string  `json:"market,omitempty"`
	Strategy            string  `json:"strategy"`
	Start               string  `json:"start"`
	End                 string  `json:"end"`
	InitialCapital      float64 `json:"initial_capital,omitempty"`
	MonthlyContribution float64 `json:"monthly_contribution,omitempty"`
	Commission          float64 `json:"commission,omitempty"`
}

// TransactionRequest is the body of POST /api/v1/transactions.
type TransactionRequest struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"` // BUY or SELL
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// RebalanceRequest is the body of POST /api/v1/rebalance. Targets defaults
// to the server's configured allocation when omitted.
type RebalanceRequest struct {
	Amount        float64            `json:"amount"`
	CurrentValues map[string]float64 `json:"current_values"`
	Targets       map[string]float64 `json:"targets,omitempty"`
}

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

// Bar is one daily OHLCV bar. Field names are the wire format.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Metrics summarizes one backtest run.
type Metrics struct {
	Strategy       string    `json:"strategy"`
	InitialCapital float64   `json:"initial_capital"`
	TotalInvested  float64   `json:"total_invested"`
	FinalEquity    float64   `json:"final_equity"`
	TotalReturnPct float64   `json:"total_return_pct"`
	TradeCount     int       `json:"trade_count"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

// EquityCurve is the per-bar portfolio value of the strategy under test and
// of a lump-sum buy-and-hold reference, on the same time index.
type EquityCurve struct {
	Timestamps []time.Time `json:"timestamps"`
	Strategy   []float64   `json:"strategy"`
	BuyHold    []float64   `json:"buy_hold"`
}

// Result is the complete output of one backtest run.
type Result struct {
	Metrics Metrics     `json:"metrics"`
	Curve   EquityCurve `json:"equity_curve"`
}

// AnnualResult is one calendar year's run.
type AnnualResult struct {
	Year    int     `json:"year"`
	Metrics Metrics `json:"metrics"`
}

// Signal is the technical read on a symbol.
type Signal struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	RSI      float64 `json:"rsi"`
	KellyPct float64 `json:"kelly_pct"`
}

// Summary holds benchmark comparison metrics for one symbol.
type Summary struct {
	NominalPct float64 `json:"nominal_pct"`
	RealPct    float64 `json:"real_pct"`
	Sharpe     float64 `json:"sharpe"`
}

// Holding is one position derived from the transaction ledger.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgCost       float64 `json:"avg_cost"`
	TotalInvested float64 `json:"total_invested"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// BacktestResponse wraps one engine run.
type BacktestResponse struct {
	Symbol string  `json:"symbol"`
	Result *Result `json:"result"`
}

// AnnualResponse wraps a per-year run.
type AnnualResponse struct {
	Symbol  string         `json:"symbol"`
	Results []AnnualResult `json:"results"`
}

// ScoreResponse is the body of GET /api/v1/score.
type ScoreResponse struct {
	Symbol string `json:"symbol"`
	Signal Signal `json:"signal"`
}

// BarsResponse is the body of GET /api/v1/bars.
type BarsResponse struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// PortfolioResponse is the body of GET /api/v1/portfolio.
type PortfolioResponse struct {
	Holdings []Holding `json:"holdings"`
}

// RebalanceResponse maps categories to suggested purchase amounts.
type RebalanceResponse struct {
	Suggestions map[string]float64 `json:"suggestions"`
}

// BenchmarkResponse maps symbols to their comparison metrics.
type BenchmarkResponse struct {
	Summaries map[string]Summary `json:"summaries"`
}
