package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage/memory"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)
	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set(ctx, "c", 3)

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get(ctx, "a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("a should be deleted")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v")
	c.Set(ctx, "k2", "v2")
	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestHistoryCacheKeepsOneGenerationPerUser(t *testing.T) {
	ctx := context.Background()
	c := NewHistoryCache(2, time.Minute)
	row := []core.Transaction{{ID: 1}}

	c.Set(ctx, historyKey(1, 0), row)
	c.Set(ctx, historyKey(2, 0), row)
	// A newer generation replaces user 1's entry rather than evicting user 2.
	c.Set(ctx, historyKey(1, 1), row)

	if _, ok := c.Get(ctx, historyKey(1, 0)); ok {
		t.Fatal("stale generation should be gone")
	}
	for _, key := range []string{historyKey(1, 1), historyKey(2, 0)} {
		if _, ok := c.Get(ctx, key); !ok {
			t.Fatalf("%s should be cached", key)
		}
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}

	// Deleting a superseded key must not drop the live one.
	c.Delete(ctx, historyKey(1, 0))
	if _, ok := c.Get(ctx, historyKey(1, 1)); !ok {
		t.Fatal("live generation dropped by delete of an old key")
	}

	c.Set(ctx, historyKey(3, 0), row)
	if _, ok := c.Get(ctx, historyKey(2, 0)); ok {
		t.Fatal("least recently used user should be evicted")
	}
}

func TestHistorySlot(t *testing.T) {
	tests := map[string]string{
		"tx:42:7": "tx:42",
		"tx:42:0": "tx:42",
		"plain":   "plain",
	}
	for in, want := range tests {
		if got := historySlot(in); got != want {
			t.Errorf("historySlot(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}

type countingReader struct {
	*memory.Store
	lists atomic.Int32
}

func (c *countingReader) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	c.lists.Add(1)
	return c.Store.List(ctx, userID)
}

func TestTransactionReaderCachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := &countingReader{Store: memory.New()}
	r := NewTransactionReader(store, NewHistoryCache(8, time.Minute), nil)

	store.Insert(ctx, core.Draft{UserID: 1, Type: core.Expense, Amount: core.Money{Cents: 100}, Category: "Food", Note: "n"})
	for i := 0; i < 3; i++ {
		rows, err := r.Scan(ctx, 1, nil)
		if err != nil || len(rows) != 1 {
			t.Fatalf("scan: %d rows (err=%v)", len(rows), err)
		}
	}
	if got := store.lists.Load(); got != 1 {
		t.Fatalf("expected one store read, got %d", got)
	}

	store.Insert(ctx, core.Draft{UserID: 1, Type: core.Income, Amount: core.Money{Cents: 5}, Category: "Gift", Note: "n"})
	r.Invalidate(ctx, 1)
	rows, _ := r.List(ctx, 1)
	if len(rows) != 2 || store.lists.Load() != 2 {
		t.Fatalf("expected reload after invalidate: rows=%d reads=%d", len(rows), store.lists.Load())
	}
}

func TestTransactionReaderFiltersRange(t *testing.T) {
	ctx := context.Background()
	var now time.Time
	store := memory.New(memory.WithClock(func() time.Time { return now }))
	for _, ts := range []time.Time{
		time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC),
	} {
		now = ts
		store.Insert(ctx, core.Draft{UserID: 1, Type: core.Expense, Category: "A", Note: "n"})
	}
	r := NewTransactionReader(store, NewHistoryCache(8, time.Minute), nil)
	feb := core.MonthRange(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	rows, err := r.Scan(ctx, 1, &feb)
	if err != nil || len(rows) != 1 || rows[0].CreatedAt.Month() != time.February {
		t.Fatalf("unexpected rows %+v (err=%v)", rows, err)
	}
	all, _ := r.Scan(ctx, 1, nil)
	if len(all) != 2 {
		t.Fatalf("cached history mutated by filtering: %d rows", len(all))
	}
}
