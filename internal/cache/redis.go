// Package cache holds report results in Redis.
//
// Entries are namespaced by a generation counter. Invalidate bumps the
// counter, which orphans every entry at once; orphans expire by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "taxsim:reports:"
	generationKey = keyPrefix + "generation"
	defaultTTL    = 5 * time.Minute
)

// client is the subset of *redis.Client the cache uses.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisReportCache implements service.ReportCache using Redis.
type RedisReportCache struct {
	client client
	ttl    time.Duration
}

// Options configures NewRedisReportCache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisReportCache connects to Redis and verifies the connection.
func NewRedisReportCache(ctx context.Context, opts Options) (*RedisReportCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return newRedisReportCache(rdb, opts.TTL), nil
}

func newRedisReportCache(c client, ttl time.Duration) *RedisReportCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisReportCache{client: c, ttl: ttl}
}

// Get returns the cached report for key. A miss is (nil, false, nil).
func (c *RedisReportCache) Get(ctx context.Context, key string) ([]domain.Order, bool, error) {
	fullKey, err := c.key(ctx, key)
	if err != nil {
		return nil, false, err
	}

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return orders, true, nil
}

// Set stores a report result under the current generation.
func (c *RedisReportCache) Set(ctx context.Context, key string, orders []domain.Order) error {
	fullKey, err := c.key(ctx, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	if err := c.client.Set(ctx, fullKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate orphans every cached report.
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Ping checks the connection for the health endpoint.
func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisReportCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("cache generation: %w", err)
	}
	return keyPrefix + gen + ":" + key, nil
}
