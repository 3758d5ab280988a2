package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDraftValidate(t *testing.T) {
	good := Draft{UserID: 1, Type: Expense, Amount: Money{Cents: 100}, Category: "Food", Note: DefaultNote}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Multi-byte text at the limit is fine even though its byte length is larger.
	wide := good
	wide.Category = strings.Repeat("ж", MaxCategoryRunes)
	wide.Note = strings.Repeat("é", MaxNoteRunes)
	if err := wide.Validate(); err != nil {
		t.Fatalf("expected ok at rune limit, got %v", err)
	}

	bads := []struct {
		d   Draft
		err error
	}{
		{Draft{UserID: 0, Type: Expense, Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidUser},
		{Draft{UserID: 1, Type: "refund", Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidType},
		{Draft{UserID: 1, Type: Income, Amount: Money{Cents: -1}, Category: "c"}, ErrInvalidAmount},
		{Draft{UserID: 1, Type: Income, Amount: Money{Cents: 1}, Category: "  "}, ErrEmptyCategory},
		{Draft{UserID: 1, Type: Income, Amount: Money{Cents: 1}, Category: strings.Repeat("ж", MaxCategoryRunes+1)}, ErrCategoryTooLong},
		{Draft{UserID: 1, Type: Income, Amount: Money{Cents: 1}, Category: "c", Note: strings.Repeat("é", MaxNoteRunes+1)}, ErrNoteTooLong},
	}
	for i, tc := range bads {
		if err := tc.d.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{"income": Income, "EXPENSE": Expense, " income ": Income} {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Fatalf("ParseTransactionType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTransactionType("transfer"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestMonthRange(t *testing.T) {
	cases := []struct {
		ref       time.Time
		wantFirst string
		wantLast  string
	}{
		{time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), "2023-02-01", "2023-02-28"},
		{time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), "2025-12-01", "2025-12-31"},
		{time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), "2025-04-01", "2025-04-30"},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2025-01-01", "2025-01-31"},
	}
	for _, tc := range cases {
		r := MonthRange(tc.ref)
		if got := r.From.Format("2006-01-02"); got != tc.wantFirst {
			t.Errorf("MonthRange(%s).From = %s, want %s", tc.ref, got, tc.wantFirst)
		}
		if got := r.To.Format("2006-01-02"); got != tc.wantLast {
			t.Errorf("MonthRange(%s).To = %s, want %s", tc.ref, got, tc.wantLast)
		}
	}
}

func TestDateRangeContains(t *testing.T) {
	r := MonthRange(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	in := []time.Time{
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
	}
	out := []time.Time{
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, ts := range in {
		if !r.Contains(ts) {
			t.Errorf("expected %s inside range", ts)
		}
	}
	for _, ts := range out {
		if r.Contains(ts) {
			t.Errorf("expected %s outside range", ts)
		}
	}
}

func TestBalanceNet(t *testing.T) {
	b := Balance{Income: Money{Cents: 1000}, Expense: Money{Cents: 2500}}
	if b.Net().Cents != -1500 {
		t.Fatalf("expected -1500, got %d", b.Net().Cents)
	}
}
