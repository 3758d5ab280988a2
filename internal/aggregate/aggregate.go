// Package aggregate derives balances, category breakdowns and daily series
// from a user's transactions.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ledger/internal/core"
	"ledger/internal/ports"
)

type Aggregator struct {
	reader ports.TransactionReader
	loc    *time.Location
}

// New returns an Aggregator that buckets days in loc. A nil loc means UTC.
func New(reader ports.TransactionReader, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{reader: reader, loc: loc}
}

// Location returns the zone used for calendar computations.
func (a *Aggregator) Location() *time.Location { return a.loc }

func (a *Aggregator) Balance(ctx context.Context, userID int64) (core.Balance, error) {
	txs, err := a.reader.Scan(ctx, userID, nil)
	if err != nil {
		return core.Balance{}, fmt.Errorf("balance: %w", err)
	}
	return Totals(txs), nil
}

func (a *Aggregator) CategoryStats(ctx context.Context, userID int64) ([]core.CategoryStat, error) {
	txs, err := a.reader.Scan(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	return ByCategory(txs), nil
}

// MonthlyReport scopes Balance to the calendar month containing ref.
func (a *Aggregator) MonthlyReport(ctx context.Context, userID int64, ref time.Time) (core.MonthlyReport, error) {
	r := core.MonthRange(ref.In(a.loc))
	txs, err := a.reader.Scan(ctx, userID, &r)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("monthly report %s: %w", r.From.Format("2006-01"), err)
	}
	return core.MonthlyReport{Range: r, Balance: Totals(txs)}, nil
}

func (a *Aggregator) DailySeries(ctx context.Context, userID int64) ([]core.DailyPoint, error) {
	txs, err := a.reader.Scan(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("daily series: %w", err)
	}
	return ByDay(txs, a.loc), nil
}

// Totals sums amounts per type.
func Totals(txs []core.Transaction) core.Balance {
	var b core.Balance
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			b.Income = b.Income.Add(tx.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(tx.Amount)
		}
	}
	return b
}

// ByCategory groups txs by category, sorted by name.
func ByCategory(txs []core.Transaction) []core.CategoryStat {
	idx := make(map[string]int)
	out := make([]core.CategoryStat, 0)
	for _, tx := range txs {
		i, ok := idx[tx.Category]
		if !ok {
			i = len(out)
			idx[tx.Category] = i
			out = append(out, core.CategoryStat{Category: tx.Category})
		}
		switch tx.Type {
		case core.Income:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case core.Expense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

type dayKey struct {
	day time.Time
	typ core.TransactionType
}

// ByDay sums amounts per (calendar day in loc, type). Points are sorted by
// date, income before expense on the same day.
func ByDay(txs []core.Transaction, loc *time.Location) []core.DailyPoint {
	if loc == nil {
		loc = time.UTC
	}
	idx := make(map[dayKey]int)
	out := make([]core.DailyPoint, 0)
	for _, tx := range txs {
		k := dayKey{day: core.Day(tx.CreatedAt, loc), typ: tx.Type}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, core.DailyPoint{Date: k.day, Type: tx.Type})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return typeRank(out[i].Type) < typeRank(out[j].Type)
	})
	return out
}

func typeRank(t core.TransactionType) int {
	if t == core.Income {
		return 0
	}
	return 1
}
