package report

import (
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
)

func m(c int64) core.Money { return core.Money{Cents: c} }

func TestPieChartDataKeepsPositiveExpenses(t *testing.T) {
	stats := []core.CategoryStat{
		{Category: "Food", Expense: m(300)},
		{Category: "Salary", Income: m(100000)},
		{Category: "Rent", Expense: m(900)},
		{Category: "Refund", Expense: m(0), Income: m(10)},
	}
	pie := PieChartData(stats)
	if pie.NoData {
		t.Fatalf("expected data")
	}
	if len(pie.Slices) != 2 || pie.Slices[0].Label != "Food" || pie.Slices[1].Label != "Rent" {
		t.Fatalf("unexpected slices: %+v", pie.Slices)
	}
	if pie.Total.Cents != 1200 {
		t.Fatalf("total = %d", pie.Total.Cents)
	}
	if pie.Slices[0].Share != 25 || pie.Slices[1].Share != 75 {
		t.Fatalf("unexpected shares: %v %v", pie.Slices[0].Share, pie.Slices[1].Share)
	}
}

func TestPieChartDataNoData(t *testing.T) {
	for name, stats := range map[string][]core.CategoryStat{
		"nil":         nil,
		"income only": {{Category: "Salary", Income: m(100)}},
		"zero":        {{Category: "Food"}},
	} {
		t.Run(name, func(t *testing.T) {
			pie := PieChartData(stats)
			if !pie.NoData || len(pie.Slices) != 0 {
				t.Fatalf("expected no-data sentinel, got %+v", pie)
			}
		})
	}
}

func TestSeriesChartDataSortsEachSide(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	points := []core.DailyPoint{
		{Date: d(5), Type: core.Expense, Amount: m(5)},
		{Date: d(3), Type: core.Income, Amount: m(3)},
		{Date: d(1), Type: core.Expense, Amount: m(1)},
		{Date: d(2), Type: core.Income, Amount: m(2)},
	}
	s := SeriesChartData(points)
	if len(s.Income) != 2 || !s.Income[0].Date.Equal(d(2)) || !s.Income[1].Date.Equal(d(3)) {
		t.Fatalf("unexpected income series: %+v", s.Income)
	}
	if len(s.Expense) != 2 || !s.Expense[0].Date.Equal(d(1)) || s.Expense[1].Amount != m(5) {
		t.Fatalf("unexpected expense series: %+v", s.Expense)
	}
	if s.Empty() {
		t.Fatalf("series should not be empty")
	}
	if empty := SeriesChartData(nil); !empty.Empty() || empty.Income == nil || empty.Expense == nil {
		t.Fatalf("expected empty non-nil series, got %#v", empty)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[int64]string{
		0:         "0.00",
		5:         "0.05",
		123450:    "1,234.50",
		100000000: "1,000,000.00",
		-70000:    "-700.00",
	}
	for cents, want := range tests {
		if got := FormatAmount(m(cents)); got != want {
			t.Errorf("FormatAmount(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestTexts(t *testing.T) {
	b := core.Balance{Income: m(100000), Expense: m(20000)}
	if got := BalanceText(b); !strings.Contains(got, "Income: 1,000.00") || !strings.Contains(got, "Balance: 800.00") {
		t.Fatalf("unexpected balance text: %q", got)
	}
	if StatsText(nil) != NoStatsText {
		t.Fatalf("expected no-stats text")
	}
	stats := StatsText([]core.CategoryStat{{Category: "Food", Expense: m(200)}})
	if !strings.Contains(stats, "- Food: income 0.00, expenses 2.00") {
		t.Fatalf("unexpected stats text: %q", stats)
	}

	rep := core.MonthlyReport{
		Range:   core.MonthRange(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)),
		Balance: b,
	}
	if got := MonthlyReportText(rep); !strings.Contains(got, "2024-02-01 .. 2024-02-29") {
		t.Fatalf("unexpected report text: %q", got)
	}

	tx := core.Transaction{ID: 4, Type: core.Expense, Amount: m(20000), Category: "Food", Note: "groceries",
		CreatedAt: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)}
	if got := RecordedText(tx); got != "Record added: #4 expense, 200.00 (Food), note: groceries" {
		t.Fatalf("unexpected recorded text: %q", got)
	}
	list := TransactionsText([]core.Transaction{tx}, time.FixedZone("X", 3600))
	if !strings.Contains(list, "ID: 4") || !strings.Contains(list, "date: 2024-01-02 11:00:00") {
		t.Fatalf("unexpected transactions text: %q", list)
	}
	if TransactionsText(nil, nil) != NoTransactions {
		t.Fatalf("expected empty listing text")
	}
}
