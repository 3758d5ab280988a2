// Package memory is a process-local transaction store used in development
// and tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"ledger/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the clock used to stamp new transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert validates the draft and appends it with the next id.
func (s *Store) Insert(_ context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx := d.Transaction(s.nextID, s.now().UTC())
	s.items = append(s.items, tx)
	return tx, nil
}

// Delete removes the row only when userID owns it.
func (s *Store) Delete(_ context.Context, userID, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id && tx.UserID == userID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// List returns the user's rows in id order.
func (s *Store) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.Scan(ctx, userID, nil)
}

func (s *Store) Scan(_ context.Context, userID int64, r *core.DateRange) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.items {
		if tx.UserID != userID {
			continue
		}
		if r != nil && !r.Contains(tx.CreatedAt) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Len returns the number of rows across all users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Close() error { return nil }
