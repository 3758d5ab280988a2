package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/parser"
	"ledger/internal/report"
	"ledger/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func newTestService(t *testing.T, opts Options) (*LedgerService, *memory.Store) {
	t.Helper()
	store := memory.New()
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Level: slog.LevelError, Output: &bytes.Buffer{}})
	}
	return NewLedgerService(store, opts), store
}

func TestHandleCommandRecordsTransaction(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTestService(t, Options{Publisher: pub})
	ctx := context.Background()

	res, err := svc.HandleCommand(ctx, 1, "+ 1000 Salary | paycheck")
	if err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if res.Kind != parser.Recognized || res.Transaction.ID == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	tx := res.Transaction
	if tx.Type != core.Income || tx.Amount.Cents != 100000 || tx.Category != "Salary" || tx.Note != "paycheck" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if !strings.HasPrefix(res.Text(), "Record added") {
		t.Fatalf("unexpected reply %q", res.Text())
	}
	if store.Len() != 1 {
		t.Fatalf("expected one row, got %d", store.Len())
	}
	if len(pub.events) != 1 || pub.events[0].Event != amqp.EventTransactionCreated || pub.events[0].TransactionID != tx.ID {
		t.Fatalf("unexpected events %+v", pub.events)
	}
}

func TestHandleCommandRejectsWithoutSideEffects(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTestService(t, Options{Publisher: pub})
	ctx := context.Background()

	res, err := svc.HandleCommand(ctx, 1, "- abc Food")
	if err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if res.Kind != parser.Invalid || !errors.Is(res.Err, core.ErrInvalidAmount) {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Text(), "invalid amount") {
		t.Fatalf("reply should carry the reason: %q", res.Text())
	}

	res, _ = svc.HandleCommand(ctx, 1, "hello")
	if res.Kind != parser.Unrecognized || res.Text() != report.UnrecognizedText {
		t.Fatalf("unexpected result %+v", res)
	}
	if store.Len() != 0 || len(pub.events) != 0 {
		t.Fatalf("no row or event expected: rows=%d events=%d", store.Len(), len(pub.events))
	}
}

func TestPublishFailureDoesNotFailCommand(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	svc, store := newTestService(t, Options{Publisher: pub})

	res, err := svc.HandleCommand(context.Background(), 1, "- 5 Coffee")
	if err != nil || res.Kind != parser.Recognized {
		t.Fatalf("publish failure leaked: %+v err=%v", res, err)
	}
	if store.Len() != 1 {
		t.Fatalf("transaction should be stored")
	}
}

func TestDeleteTransactionOutcomes(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, Options{Publisher: pub})
	ctx := context.Background()

	mine, _ := svc.HandleCommand(ctx, 1, "- 200 Food")
	theirs, _ := svc.HandleCommand(ctx, 2, "- 300 Rent")
	idText := func(r CommandResult) string { return itoa(r.Transaction.ID) }

	tests := []struct {
		name  string
		user  int64
		id    string
		want  DeleteOutcome
		reply string
	}{
		{"non integer", 1, "abc", DeleteInvalidID, report.InvalidIDText},
		{"empty", 1, "", DeleteInvalidID, report.InvalidIDText},
		{"other user", 1, idText(theirs), DeleteNotFound, report.NothingDeleted},
		{"missing", 1, "999", DeleteNotFound, report.NothingDeleted},
		{"own", 1, idText(mine), Deleted, report.DeletedText(mine.Transaction.ID)},
		{"own again", 1, idText(mine), DeleteNotFound, report.NothingDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.DeleteTransaction(ctx, tt.user, tt.id)
			if err != nil {
				t.Fatalf("DeleteTransaction: %v", err)
			}
			if res.Outcome != tt.want || res.Text() != tt.reply {
				t.Fatalf("got %v %q, want %v %q", res.Outcome, res.Text(), tt.want, tt.reply)
			}
		})
	}

	b, _ := svc.GetBalance(ctx, 2)
	if b.Expense.Cents != 30000 {
		t.Fatalf("other user's data changed: %+v", b)
	}
	deletes := 0
	for _, ev := range pub.events {
		if ev.Event == amqp.EventTransactionDeleted {
			deletes++
		}
	}
	if deletes != 1 {
		t.Fatalf("expected one delete event, got %d", deletes)
	}
}

func TestQueriesSeeMutationsThroughCache(t *testing.T) {
	svc, _ := newTestService(t, Options{Cache: cache.NewHistoryCache(16, time.Hour)})
	ctx := context.Background()

	b, _ := svc.GetBalance(ctx, 1)
	if b.Net().Cents != 0 {
		t.Fatalf("expected empty balance")
	}
	svc.HandleCommand(ctx, 1, "+ 1000 Salary")
	svc.HandleCommand(ctx, 1, "- 250,50 Food")

	b, err := svc.GetBalance(ctx, 1)
	if err != nil || b.Income.Cents != 100000 || b.Expense.Cents != 25050 || b.Net().Cents != 74950 {
		t.Fatalf("stale or wrong balance %+v (err=%v)", b, err)
	}

	res, _ := svc.HandleCommand(ctx, 1, "- 100 Food")
	svc.DeleteTransaction(ctx, 1, itoa(res.Transaction.ID))
	stats, _ := svc.GetStats(ctx, 1)
	if len(stats) != 2 || stats[0].Category != "Food" || stats[0].Expense.Cents != 25050 {
		t.Fatalf("unexpected stats after delete %+v", stats)
	}
}

func TestChartData(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	pie, err := svc.GetPieChartData(ctx, 1)
	if err != nil || !pie.NoData {
		t.Fatalf("expected no-data pie, got %+v (err=%v)", pie, err)
	}
	svc.HandleCommand(ctx, 1, "+ 50 Salary")
	pie, _ = svc.GetPieChartData(ctx, 1)
	if !pie.NoData {
		t.Fatalf("income only should still be no-data, got %+v", pie)
	}
	svc.HandleCommand(ctx, 1, "- 20 Food")
	svc.HandleCommand(ctx, 1, "+ 10 Gift")
	pie, _ = svc.GetPieChartData(ctx, 1)
	if pie.NoData || len(pie.Slices) != 1 || pie.Slices[0].Label != "Food" {
		t.Fatalf("unexpected pie %+v", pie)
	}

	series, err := svc.GetSeriesChartData(ctx, 1)
	if err != nil || len(series.Income) != 1 || len(series.Expense) != 1 {
		t.Fatalf("unexpected series %+v (err=%v)", series, err)
	}
	if series.Income[0].Amount.Cents != 6000 {
		t.Fatalf("same-day incomes should sum, got %d", series.Income[0].Amount.Cents)
	}
}

func TestGetMonthlyReportDefaultsToNow(t *testing.T) {
	now := time.Now().UTC()
	svc, _ := newTestService(t, Options{Now: func() time.Time { return now }})
	ctx := context.Background()
	svc.HandleCommand(ctx, 1, "- 20 Food")

	rep, err := svc.GetMonthlyReport(ctx, 1, time.Time{})
	if err != nil {
		t.Fatalf("GetMonthlyReport: %v", err)
	}
	if rep.Range.From.Month() != now.Month() || rep.Expense.Cents != 2000 {
		t.Fatalf("unexpected report %+v", rep)
	}
	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	prev, _ := svc.GetMonthlyReport(ctx, 1, lastMonth)
	if prev.Expense.Cents != 0 {
		t.Fatalf("previous month should be empty, got %+v", prev)
	}
}

type brokenStore struct{ *memory.Store }

var errDisk = errors.New("disk unavailable")

func (brokenStore) Insert(context.Context, core.Draft) (core.Transaction, error) {
	return core.Transaction{}, errDisk
}
func (brokenStore) Delete(context.Context, int64, int64) (bool, error) { return false, errDisk }
func (brokenStore) List(context.Context, int64) ([]core.Transaction, error) {
	return nil, errDisk
}
func (brokenStore) Scan(context.Context, int64, *core.DateRange) ([]core.Transaction, error) {
	return nil, errDisk
}

func TestStorageFailuresSurface(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewLedgerService(brokenStore{memory.New()}, Options{
		Publisher: pub,
		Logger:    log.New(log.Config{Level: slog.LevelError, Output: &bytes.Buffer{}}),
	})
	ctx := context.Background()

	if _, err := svc.HandleCommand(ctx, 1, "- 5 Food"); !errors.Is(err, errDisk) {
		t.Fatalf("HandleCommand err = %v", err)
	}
	if _, err := svc.DeleteTransaction(ctx, 1, "3"); !errors.Is(err, errDisk) {
		t.Fatalf("DeleteTransaction err = %v", err)
	}
	if _, err := svc.GetBalance(ctx, 1); !errors.Is(err, errDisk) {
		t.Fatalf("GetBalance err = %v", err)
	}
	if _, err := svc.ListTransactions(ctx, 1); !errors.Is(err, errDisk) {
		t.Fatalf("ListTransactions err = %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no events expected on failure")
	}
}

func TestClose(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, Options{Publisher: pub})
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
