// Package backtest replays a historical bar series under a trading strategy
// and produces an equity curve plus summary metrics. A run is a pure
// function of its inputs: no caching, no I/O, no state shared between
// calls, so concurrent runs need no coordination.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"fintrack/internal/domain"
)

// DefaultCommission is the fractional commission charged on every buy and
// sell (0.2%). A flat symmetric rate keeps strategies comparably penalised
// for trading frequency.
const DefaultCommission = 0.002

// ErrInsufficientData is returned when the input series is empty. It is the
// sanctioned "no result" outcome, not a failure.
var ErrInsufficientData = errors.New("backtest: insufficient data")

// Config holds the parameters of one backtest run.
type Config struct {
	// InitialCapital is the starting cash. Must be positive.
	InitialCapital float64

	// MonthlyContribution is the amount added at each calendar-month
	// boundary for periodic strategies. Zero means lump-sum mode.
	MonthlyContribution float64

	// Commission is the fractional rate charged per trade, applied
	// symmetrically on buys and sells.
	Commission float64
}

// NewConfig returns a lump-sum Config with the default commission.
func NewConfig(initialCapital float64) Config {
	return Config{
		InitialCapital: initialCapital,
		Commission:     DefaultCommission,
	}
}

// Metrics summarises one backtest run. TotalReturnPct is computed against
// TotalInvested: for periodic runs that includes every contribution, which
// is what makes DCA results comparable to lump-sum ones.
type Metrics struct {
	Strategy       Strategy  `json:"strategy"`
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

// Result is the complete output of one backtest run. Callers receive either
// a fully populated Result or an error, never a partial curve.
type Result struct {
	Metrics Metrics     `json:"metrics"`
	Curve   EquityCurve `json:"equity_curve"`
}

// portfolio is the engine's mutable state during replay: simulated cash,
// position size, and contribution bookkeeping. It lives for exactly one run.
type portfolio struct {
	cash        float64
	units       float64
	contributed float64
	lastMonth   time.Month
	trades      int
}

// invested reports whether the portfolio currently holds a position.
func (p *portfolio) invested() bool { return p.units > 0 }

// buy converts all cash into units at the given price, net of commission.
// A buy with no cash is a no-op and counts no trade.
func (p *portfolio) buy(price, commission float64) {
	if p.cash <= 0 || price <= 0 {
		return
	}
	p.units += p.cash / (price * (1 + commission))
	p.cash = 0
	p.trades++
}

// sell liquidates the whole position at the given price, net of commission.
// Selling with no position is a state-machine bug upstream; it is guarded
// here as a no-op so cash can never be corrupted.
func (p *portfolio) sell(price, commission float64) {
	if p.units <= 0 {
		return
	}
	p.cash = p.units * price * (1 - commission)
	p.units = 0
	p.trades++
}

// equity is the mark-to-market portfolio value at the given price.
func (p *portfolio) equity(price float64) float64 {
	return p.cash + p.units*price
}

// Run replays bars under the given strategy. bars must be in ascending
// timestamp order; an empty series yields ErrInsufficientData. A series too
// short for the strategy's indicators is valid: the rules simply never fire.
func Run(bars []domain.Bar, strat Strategy, cfg Config) (*Result, error) {
	if _, err := ParseStrategy(string(strat)); err != nil {
		return nil, err
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("backtest: initial capital must be positive, got %v", cfg.InitialCapital)
	}
	if cfg.MonthlyContribution < 0 {
		return nil, fmt.Errorf("backtest: monthly contribution must be >= 0, got %v", cfg.MonthlyContribution)
	}
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	var (
		rule  decisionFn
		sizer func(i int) float64
		err   error
	)
	if strat.Periodic() {
		sizer, err = contributionSizer(strat, bars)
	} else {
		rule, err = lumpSumRule(strat, bars)
	}
	if err != nil {
		return nil, err
	}

	state := &portfolio{cash: cfg.InitialCapital}
	curve := EquityCurve{
		Timestamps: make([]time.Time, 0, len(bars)),
		Strategy:   make([]float64, 0, len(bars)),
		BuyHold:    make([]float64, 0, len(bars)),
	}
	firstPrice := bars[0].Close

	for i := range bars {
		price := bars[i].Close

		if strat.Periodic() {
			// A new calendar month deposits the contribution and invests all
			// available cash immediately. There is no sell path: the position
			// only grows.
			if month := bars[i].Timestamp.Month(); month != state.lastMonth {
				amount := cfg.MonthlyContribution * sizer(i)
				state.cash += amount
				state.contributed += amount
				state.buy(price, cfg.Commission)
				state.lastMonth = month
			}
		} else {
			switch rule(i, state.invested()) {
			case actBuy:
				state.buy(price, cfg.Commission)
			case actSell:
				state.sell(price, cfg.Commission)
			}
		}

		curve.Timestamps = append(curve.Timestamps, bars[i].Timestamp)
		curve.Strategy = append(curve.Strategy, state.equity(price))
		// Reference curve: full lump-sum investment on the first bar with
		// the entry commission charged once. No exit commission is modelled,
		// matching the cost profile of the buy-hold strategy itself.
		curve.BuyHold = append(curve.BuyHold, price/firstPrice*cfg.InitialCapital*(1-cfg.Commission))
	}

	totalInvested := cfg.InitialCapital + state.contributed
	finalEquity := curve.Strategy[len(curve.Strategy)-1]

	return &Result{
		Metrics: Metrics{
			Strategy:       strat,
			InitialCapital: cfg.InitialCapital,
			TotalInvested:  totalInvested,
			FinalEquity:    finalEquity,
			TotalReturnPct: (finalEquity/totalInvested - 1) * 100,
			TradeCount:     state.trades,
			Start:          bars[0].Timestamp,
			End:            bars[len(bars)-1].Timestamp,
		},
		Curve: curve,
	}, nil
}
