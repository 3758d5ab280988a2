// Package report shapes aggregation results into chart tables and chat text.
package report

import (
	"sort"
	"time"

	"ledger/internal/core"
)

// PieSlice is one category of the expense pie.
type PieSlice struct {
	Label  string
	Amount core.Money
	Share  float64 // percent of Total, 0..100
}

// PieChart is the input of the expense pie renderer. NoData is set when no
// category has a positive expense total; Slices is then empty.
type PieChart struct {
	Slices []PieSlice
	Total  core.Money
	NoData bool
}

// SeriesPoint is one day of a series.
type SeriesPoint struct {
	Date   time.Time
	Amount core.Money
}

// SeriesChart holds one date-sorted series per transaction type.
type SeriesChart struct {
	Income  []SeriesPoint
	Expense []SeriesPoint
}

// Empty reports whether neither series has points.
func (s SeriesChart) Empty() bool {
	return len(s.Income) == 0 && len(s.Expense) == 0
}

// PieChartData keeps only categories with strictly positive expenses.
// Slice order follows stats order.
func PieChartData(stats []core.CategoryStat) PieChart {
	var total core.Money
	slices := make([]PieSlice, 0, len(stats))
	for _, st := range stats {
		if !st.Expense.IsPositive() {
			continue
		}
		slices = append(slices, PieSlice{Label: st.Category, Amount: st.Expense})
		total = total.Add(st.Expense)
	}
	if len(slices) == 0 {
		return PieChart{Slices: slices, NoData: true}
	}
	for i := range slices {
		slices[i].Share = float64(slices[i].Amount.Cents) * 100 / float64(total.Cents)
	}
	return PieChart{Slices: slices, Total: total}
}

// SeriesChartData partitions points by type and sorts each side by date.
// Input order does not matter.
func SeriesChartData(points []core.DailyPoint) SeriesChart {
	out := SeriesChart{Income: []SeriesPoint{}, Expense: []SeriesPoint{}}
	for _, p := range points {
		sp := SeriesPoint{Date: p.Date, Amount: p.Amount}
		switch p.Type {
		case core.Income:
			out.Income = append(out.Income, sp)
		case core.Expense:
			out.Expense = append(out.Expense, sp)
		}
	}
	byDate := func(s []SeriesPoint) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}
	byDate(out.Income)
	byDate(out.Expense)
	return out
}
