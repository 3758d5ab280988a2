package core

import "time"

// Balance holds income and expense totals over a scope.
type Balance struct {
	Income  Money
	Expense Money
}

// Net is income minus expense.
func (b Balance) Net() Money {
	return b.Income.Sub(b.Expense)
}

// CategoryStat holds both totals for one category. Sides without activity are zero.
type CategoryStat struct {
	Category string
	Income   Money
	Expense  Money
}

// DailyPoint is the sum of one transaction type on one calendar day.
type DailyPoint struct {
	Date   time.Time // midnight in the aggregation location
	Type   TransactionType
	Amount Money
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time // first day, midnight
	To   time.Time // last day, midnight
}

// MonthlyReport is a balance bounded to one calendar month.
type MonthlyReport struct {
	Range DateRange
	Balance
}

// MonthRange returns the inclusive day range of ref's month in ref's location.
// The last day is derived as the first day of the next month minus one day.
func MonthRange(ref time.Time) DateRange {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	last := first.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return DateRange{From: first, To: last}
}

// Start returns the first instant covered by the range.
func (r DateRange) Start() time.Time {
	return startOfDay(r.From)
}

// End returns the first instant after the range (exclusive bound).
func (r DateRange) End() time.Time {
	return startOfDay(r.To).AddDate(0, 0, 1)
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	t = t.In(r.From.Location())
	return !t.Before(r.Start()) && t.Before(r.End())
}

// Day truncates t to midnight in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t.In(loc))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
