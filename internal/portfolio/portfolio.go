// Package portfolio derives holdings from the transaction ledger and
// computes rebalancing suggestions against a target allocation.
package portfolio

import (
	"context"
	"math"
	"sort"
	"strings"

	"fintrack/internal/domain"
	"fintrack/internal/store"
)

// Holdings replays the transaction ledger chronologically and returns the
// surviving positions with weighted-average cost, sorted by symbol.
//
// Buys blend into the average cost; sells reduce quantity at the existing
// average without changing it. Over-selling zeroes the position instead of
// going short.
func Holdings(ctx context.Context, txs store.TransactionStore) ([]domain.Holding, error) {
	ledger, err := txs.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return replay(ledger), nil
}

func replay(ledger []domain.Transaction) []domain.Holding {
	type position struct {
		qty  float64
		cost float64
	}
	positions := make(map[string]*position)

	for _, tx := range ledger {
		symbol := strings.ToUpper(tx.Symbol)
		pos := positions[symbol]
		if pos == nil {
			pos = &position{}
			positions[symbol] = pos
		}

		switch tx.Side {
		case domain.TradeSideBuy:
			pos.cost += tx.Quantity * tx.Price
			pos.qty += tx.Quantity
		case domain.TradeSideSell:
			if pos.qty <= tx.Quantity {
				pos.qty = 0
				pos.cost = 0
				continue
			}
			avg := pos.cost / pos.qty
			pos.qty -= tx.Quantity
			pos.cost = pos.qty * avg
		}
	}

	var holdings []domain.Holding
	for symbol, pos := range positions {
		if pos.qty <= 0 {
			continue
		}
		holdings = append(holdings, domain.Holding{
			Symbol:        symbol,
			Quantity:      round4(pos.qty),
			AvgCost:       round2(pos.cost / pos.qty),
			TotalInvested: round2(pos.cost),
		})
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
