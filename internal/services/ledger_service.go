package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger/internal/aggregate"
	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/parser"
	"ledger/internal/ports"
	"ledger/internal/report"
)

// EventPublisher receives ledger mutations. Implemented by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
	Close() error
}

// Options wires optional collaborators into LedgerService.
type Options struct {
	// Location is the calendar zone for reports and series. Defaults to UTC.
	Location *time.Location
	// Cache enables caching of user histories when set.
	Cache       cache.Cache[[]core.Transaction]
	Generations cache.Generations
	Publisher   EventPublisher
	Logger      *log.Logger
	Now         func() time.Time
}

// LedgerService orchestrates parsing, storage, aggregation and events
type LedgerService struct {
	store     ports.Store
	cached    *cache.TransactionReader
	agg       *aggregate.Aggregator
	publisher EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
	loc       *time.Location
	now       func() time.Time
}

func NewLedgerService(store ports.Store, opts Options) *LedgerService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &LedgerService{
		store:     store,
		publisher: opts.Publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		loc:       loc,
		now:       now,
	}

	var reader ports.TransactionReader = store
	if opts.Cache != nil {
		s.cached = cache.NewTransactionReader(store, opts.Cache, opts.Generations)
		reader = s.cached
	}
	s.agg = aggregate.New(reader, loc)
	return s
}

// Location returns the calendar zone used by reports.
func (s *LedgerService) Location() *time.Location { return s.loc }

// CommandResult is the outcome of HandleCommand. Transaction is set for
// parser.Recognized, Reason for parser.Invalid.
type CommandResult struct {
	Kind        parser.Kind
	Transaction core.Transaction
	Reason      string
	Err         error
}

// Text renders the chat reply for the result.
func (r CommandResult) Text() string {
	switch r.Kind {
	case parser.Recognized:
		return report.RecordedText(r.Transaction)
	case parser.Invalid:
		return report.InvalidCommandText(r.Reason)
	default:
		return report.UnrecognizedText
	}
}

// HandleCommand parses text and stores the resulting draft. Only storage
// failures are returned as errors.
func (s *LedgerService) HandleCommand(ctx context.Context, userID int64, text string) (CommandResult, error) {
	res := parser.Parse(text, userID)
	switch res.Kind {
	case parser.Unrecognized:
		return CommandResult{Kind: parser.Unrecognized}, nil
	case parser.Invalid:
		s.logger.DebugContext(ctx, "Command rejected", log.FieldUserID, userID, log.FieldError, res.Reason())
		return CommandResult{Kind: parser.Invalid, Reason: res.Reason(), Err: res.Err}, nil
	}

	tx, err := s.store.Insert(ctx, res.Draft)
	if err != nil {
		s.events.LogError(ctx, "Failed to store transaction", err, log.ComponentStorage, log.OpCreate,
			log.NewFields().WithUser(userID))
		return CommandResult{}, fmt.Errorf("insert transaction: %w", err)
	}
	s.invalidate(ctx, userID)
	s.events.LogTransactionRecorded(ctx, userID, tx.ID, tx.Type.String(), tx.Amount.Cents, tx.Category)
	s.publish(ctx, amqp.NewTransactionCreated(tx))

	return CommandResult{Kind: parser.Recognized, Transaction: tx}, nil
}

type DeleteOutcome int

const (
	Deleted DeleteOutcome = iota
	DeleteNotFound
	DeleteInvalidID
)

func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case DeleteNotFound:
		return "not_found"
	default:
		return "invalid_id"
	}
}

type DeleteResult struct {
	Outcome DeleteOutcome
	ID      int64
}

// Text renders the chat reply for the result.
func (r DeleteResult) Text() string {
	switch r.Outcome {
	case Deleted:
		return report.DeletedText(r.ID)
	case DeleteNotFound:
		return report.NothingDeleted
	default:
		return report.InvalidIDText
	}
}

// DeleteTransaction validates idText and removes the row if userID owns it.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID int64, idText string) (DeleteResult, error) {
	id, err := parser.ParseTransactionID(idText)
	if err != nil {
		return DeleteResult{Outcome: DeleteInvalidID}, nil
	}

	removed, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		s.events.LogError(ctx, "Failed to delete transaction", err, log.ComponentStorage, log.OpDelete,
			log.NewFields().WithUser(userID))
		return DeleteResult{}, fmt.Errorf("delete transaction: %w", err)
	}
	s.events.LogTransactionDeleted(ctx, userID, id, removed)
	if !removed {
		return DeleteResult{Outcome: DeleteNotFound, ID: id}, nil
	}

	s.invalidate(ctx, userID)
	s.publish(ctx, amqp.NewTransactionDeleted(userID, id))
	return DeleteResult{Outcome: Deleted, ID: id}, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (core.Balance, error) {
	return s.agg.Balance(ctx, userID)
}

func (s *LedgerService) GetStats(ctx context.Context, userID int64) ([]core.CategoryStat, error) {
	return s.agg.CategoryStats(ctx, userID)
}

// GetMonthlyReport reports the calendar month containing ref. A zero ref
// means the current month.
func (s *LedgerService) GetMonthlyReport(ctx context.Context, userID int64, ref time.Time) (core.MonthlyReport, error) {
	if ref.IsZero() {
		ref = s.now()
	}
	return s.agg.MonthlyReport(ctx, userID, ref)
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) GetPieChartData(ctx context.Context, userID int64) (report.PieChart, error) {
	stats, err := s.agg.CategoryStats(ctx, userID)
	if err != nil {
		return report.PieChart{}, err
	}
	return report.PieChartData(stats), nil
}

func (s *LedgerService) GetSeriesChartData(ctx context.Context, userID int64) (report.SeriesChart, error) {
	points, err := s.agg.DailySeries(ctx, userID)
	if err != nil {
		return report.SeriesChart{}, err
	}
	return report.SeriesChartData(points), nil
}

func (s *LedgerService) invalidate(ctx context.Context, userID int64) {
	if s.cached != nil {
		s.cached.Invalidate(ctx, userID)
	}
}

// publish is best effort; the mutation is already committed.
func (s *LedgerService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		level := s.logger.ErrorContext
		if errors.Is(err, amqp.ErrCircuitOpen) || errors.Is(err, amqp.ErrNotConnected) {
			level = s.logger.WarnContext
		}
		level(ctx, "Failed to publish transaction event",
			"event", ev.Event,
			log.FieldTransactionID, ev.TransactionID,
			log.FieldError, err)
	}
}

// Close closes the store and the publisher
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
