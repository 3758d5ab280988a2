package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that text comparison orders timestamps.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Connection pragmas applied to every pooled connection.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// Option customises a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithClock replaces the clock used to stamp new transactions.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMaxOpenConns bounds the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(r *SQLiteRepository) {
		if n > 0 {
			r.db.SetMaxOpenConns(n)
		}
	}
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens so every connection sees the schema
	if _, err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}

	return repo, nil
}

func dsn(dbPath string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(params, "&")
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements ports.TransactionWriter
func (r *SQLiteRepository) Insert(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:      d.UserID,
		Type:        d.Type.String(),
		AmountCents: d.Amount.Cents,
		Category:    d.Category,
		Note:        d.Note,
		CreatedAt:   formatTime(r.now()),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	tx, err := toCore(row)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	return tx, nil
}

// Delete implements ports.TransactionDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	n, err := r.queries.DeleteTransaction(ctx, DeleteTransactionParams{ID: id, UserID: userID})
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return n > 0, nil
}

// List implements ports.TransactionReader
func (r *SQLiteRepository) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toCoreSlice(rows)
}

// Scan implements ports.TransactionReader
func (r *SQLiteRepository) Scan(ctx context.Context, userID int64, dr *core.DateRange) ([]core.Transaction, error) {
	if dr == nil {
		return r.List(ctx, userID)
	}

	rows, err := r.queries.ListTransactionsByUserBetween(ctx, ListTransactionsByUserBetweenParams{
		UserID:   userID,
		FromTime: formatTime(dr.Start()),
		ToTime:   formatTime(dr.End()),
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return toCoreSlice(rows)
}

// Count returns the number of rows across all users.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func toCore(row Transaction) (core.Transaction, error) {
	txType, err := core.ParseTransactionType(row.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: parse created_at: %w", row.ID, err)
	}
	return core.Transaction{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      txType,
		Amount:    core.Money{Cents: row.AmountCents},
		Category:  row.Category,
		Note:      row.Note,
		CreatedAt: createdAt,
	}, nil
}

func toCoreSlice(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}
