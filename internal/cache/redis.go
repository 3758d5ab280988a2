package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON encoded values under a key prefix, so several
// processes can share one cache.
type RedisCache[T any] struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures the connection of NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func NewRedisCache[T any](rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis cache read failed", "key", c.prefix+key, "error", err)
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "Redis cache entry undecodable", "key", c.prefix+key, "error", err)
		return zero, false
	}
	return out, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	b, err := json.Marshal(data)
	if err != nil {
		slog.WarnContext(ctx, "Redis cache encode failed", "key", c.prefix+key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, b, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache write failed", "key", c.prefix+key, "error", err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache delete failed", "key", c.prefix+key, "error", err)
	}
}
