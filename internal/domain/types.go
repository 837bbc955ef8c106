// Package domain defines the core types shared across the fintrack
// platform: price bars, portfolio transactions, and paper trades.
package domain

import (
	"sort"
	"time"
)

// Market identifies the market a symbol trades on.
type Market string

const (
	MarketUS     Market = "us"
	MarketTR     Market = "tr"
	MarketCrypto Market = "crypto"
)

// Bar is one daily OHLCV observation for a symbol. Timestamps within a
// series are strictly ascending; the backtest engine relies on that order
// and never re-sorts.
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

// TradeSide marks a transaction as a buy or a sell.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Transaction is one row of the user's portfolio ledger.
type Transaction struct {
	ID       int64
	Date     time.Time
	Symbol   string
	Side     TradeSide
	Quantity float64
	Price    float64
}

// PaperTrade is one simulated trade executed by the paper trading bot.
type PaperTrade struct {
	ID           int64
	Date         time.Time
	Symbol       string
	Side         TradeSide
	Quantity     float64
	Price        float64
	Commission   float64
	BalanceAfter float64
}

// Holding is the aggregated position for one symbol, derived from the
// transaction ledger.
type Holding struct {
	Symbol        string
	Quantity      float64
	AvgCost       float64
	TotalInvested float64
}

// SortedBars reports whether bars are in strictly ascending timestamp order
// with no duplicates.
func SortedBars(bars []Bar) bool {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// SortBars sorts bars in place by ascending timestamp.
func SortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

// Closes extracts the close prices of a bar series, preserving order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}
	return closes
}
