package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/ports"
	"ledger/internal/services"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

const (
	cacheKeyPrefix  = "ledger:"
	cleanupInterval = time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the store, the cache and the optional AMQP publisher and
// composes them into a LedgerService.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	checks := map[string]CheckFunc{}

	store, err := f.createStore(config, checks)
	if err != nil {
		return nil, err
	}

	opts := services.Options{Location: config.Location, Logger: f.logger}
	if config.Cache != "" {
		if err := f.createCache(ctx, config, &opts, checks, &cleanups); err != nil {
			store.Close()
			cleanup()
			return nil, err
		}
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			opts.Publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(store, opts)
	// The service owns the store and the publisher
	cleanups = append([]CleanupFunc{svc.Close}, cleanups...)

	f.logger.Info("Initialized ledger backend",
		"backend", config.Type,
		"cache", config.Cache,
		"amqp_enabled", opts.Publisher != nil)

	return &Result{Service: svc, Checks: checks, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) createStore(config Config, checks map[string]CheckFunc) (ports.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		checks["sqlite"] = repo.Ping
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCache(ctx context.Context, config Config, opts *services.Options, checks map[string]CheckFunc, cleanups *[]CleanupFunc) error {
	switch config.Cache {
	case RedisCache:
		rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect to Redis at %s: %w", config.RedisAddr, err)
		}
		opts.Cache = cache.NewRedisCache[[]core.Transaction](rdb, cacheKeyPrefix, config.CacheTTL)
		opts.Generations = cache.NewRedisGenerations(rdb, cacheKeyPrefix)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		*cleanups = append(*cleanups, rdb.Close)
		f.logger.Info("Initialized Redis cache", "addr", config.RedisAddr, "ttl", config.CacheTTL)
	default:
		lru := cache.NewHistoryCache(config.CacheSize, config.CacheTTL)
		manager := cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(cleanupInterval)
		opts.Cache = lru
		*cleanups = append(*cleanups, func() error { manager.Stop(); return nil })
		f.logger.Info("Initialized memory cache", "size", config.CacheSize, "ttl", config.CacheTTL)
	}
	return nil
}
