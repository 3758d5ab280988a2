package backend

import (
	"context"
	"time"

	"ledger/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Result contains the wired ledger service and its lifecycle hooks
type Result struct {
	Service *services.LedgerService
	// Checks are probed by readiness endpoints, keyed by dependency name.
	Checks  map[string]CheckFunc
	Cleanup CleanupFunc
}

// Factory creates the ledger service based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type     BackendType
	Location *time.Location

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Cache
	Cache         CacheType
	CacheSize     int
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BackendType represents the type of transaction store
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CacheType selects where aggregated histories are cached
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	return ct == MemoryCache || ct == RedisCache
}
