package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// Generations tracks a per-user counter that changes on every mutation.
// Cache keys embed the counter, so a bump makes older entries unreachable.
type Generations interface {
	Current(ctx context.Context, userID int64) uint64
	Bump(ctx context.Context, userID int64)
}

type localGenerations struct {
	mu  sync.Mutex
	gen map[int64]uint64
}

// NewLocalGenerations keeps counters in process memory.
func NewLocalGenerations() Generations {
	return &localGenerations{gen: make(map[int64]uint64)}
}

func (g *localGenerations) Current(_ context.Context, userID int64) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen[userID]
}

func (g *localGenerations) Bump(_ context.Context, userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen[userID]++
}

type redisGenerations struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisGenerations shares counters between processes through INCR.
func NewRedisGenerations(rdb *redis.Client, prefix string) Generations {
	return &redisGenerations{rdb: rdb, prefix: prefix}
}

func (g *redisGenerations) key(userID int64) string {
	return g.prefix + "gen:" + strconv.FormatInt(userID, 10)
}

func (g *redisGenerations) Current(ctx context.Context, userID int64) uint64 {
	n, err := g.rdb.Get(ctx, g.key(userID)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "Redis generation read failed", "user_id", userID, "error", err)
	}
	return n
}

func (g *redisGenerations) Bump(ctx context.Context, userID int64) {
	if err := g.rdb.Incr(ctx, g.key(userID)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis generation bump failed", "user_id", userID, "error", err)
	}
}

// TransactionReader caches each user's full history in front of a store.
// Ranged scans are served by filtering the cached history.
type TransactionReader struct {
	next  ports.TransactionReader
	cache Cache[[]core.Transaction]
	gens  Generations
}

func NewTransactionReader(next ports.TransactionReader, c Cache[[]core.Transaction], gens Generations) *TransactionReader {
	if gens == nil {
		gens = NewLocalGenerations()
	}
	return &TransactionReader{next: next, cache: c, gens: gens}
}

func historyKey(userID int64, gen uint64) string {
	return fmt.Sprintf("tx:%d:%d", userID, gen)
}

func (r *TransactionReader) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.Scan(ctx, userID, nil)
}

func (r *TransactionReader) Scan(ctx context.Context, userID int64, dr *core.DateRange) ([]core.Transaction, error) {
	gen := r.gens.Current(ctx, userID)
	key := historyKey(userID, gen)

	all, ok := r.cache.Get(ctx, key)
	if !ok {
		var err error
		all, err = r.next.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		// Skip the write if a mutation raced with the load.
		if r.gens.Current(ctx, userID) == gen {
			r.cache.Set(ctx, key, all)
		}
	}

	out := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if dr == nil || dr.Contains(tx.CreatedAt) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Invalidate must be called after every successful mutation of userID's rows.
func (r *TransactionReader) Invalidate(ctx context.Context, userID int64) {
	old := r.gens.Current(ctx, userID)
	r.gens.Bump(ctx, userID)
	r.cache.Delete(ctx, historyKey(userID, old))
}
