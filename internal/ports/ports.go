package ports

import (
	"context"

	"ledger/internal/core"
)

// Ports implemented by the transaction stores.
type (
	TransactionWriter interface {
		// Insert assigns an id and creation time and persists the draft.
		Insert(ctx context.Context, d core.Draft) (core.Transaction, error)
	}

	TransactionDeleter interface {
		// Delete removes the row only when it is owned by userID.
		// It reports whether a row was removed.
		Delete(ctx context.Context, userID, id int64) (bool, error)
	}

	TransactionReader interface {
		// List returns every transaction of the user ordered by id.
		List(ctx context.Context, userID int64) ([]core.Transaction, error)
		// Scan returns the user's transactions, optionally bounded to an
		// inclusive day range. A nil range means no bound.
		Scan(ctx context.Context, userID int64, r *core.DateRange) ([]core.Transaction, error)
	}

	// Store is the full transaction store.
	Store interface {
		TransactionWriter
		TransactionDeleter
		TransactionReader
		Close() error
	}
)
