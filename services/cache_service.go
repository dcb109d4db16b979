package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"storefront_server/metrics"
	"storefront_server/structs"
	"storefront_server/structs/tables"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix  = "product:"
	categoryKeyPrefix = "category:"

	// tombstoneValue marks a freshly invalidated key. Fills use SET NX, so a read that
	// loaded its row before the write committed cannot bring the old row back.
	tombstoneValue      = "-"
	defaultTombstoneTTL = 5 * time.Second
)

// CacheService is the optional Redis read cache for catalog entries. With caching
// disabled every lookup is a miss and every write a no-op.
type CacheService struct {
	logger *gecho.Logger
	config *structs.CacheConfig
	client *redis.Client
}

func NewCacheService(logger *gecho.Logger, cfg *structs.Config) *CacheService {
	cacheCfg := cfg.Cache
	if cacheCfg == nil {
		cacheCfg = &structs.CacheConfig{}
	}
	cs := &CacheService{
		logger: logger,
		config: cacheCfg,
	}
	if !cacheCfg.Enabled {
		return cs
	}

	cs.client = redis.NewClient(&redis.Options{
		Addr:     cacheCfg.Address,
		Username: cacheCfg.Username,
		Password: cacheCfg.Password,
		DB:       cacheCfg.DB,

		// Connection pool settings
		PoolSize:     cacheCfg.PoolSize,
		MinIdleConns: cacheCfg.MinIdleConns,

		// Timeouts
		DialTimeout:  cacheCfg.DialTimeout,
		ReadTimeout:  cacheCfg.ReadTimeout,
		WriteTimeout: cacheCfg.WriteTimeout,

		// Retries are handled by withRetry
		MaxRetries: -1,
	})
	return cs
}

// Enabled reports whether a Redis client is configured
func (cs *CacheService) Enabled() bool {
	return cs != nil && cs.client != nil
}

// Close closes the Redis connection pool
func (cs *CacheService) Close() error {
	if !cs.Enabled() {
		return nil
	}
	return cs.client.Close()
}

// Ping tests the Redis connection
func (cs *CacheService) Ping(ctx context.Context) error {
	if !cs.Enabled() {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.Ping(ctx).Err()
	})
}

// withRetry executes a Redis operation with jittered exponential backoff
func (cs *CacheService) withRetry(ctx context.Context, operation func() error) error {
	maxRetries := max(cs.config.MaxRetries, 0)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxRetries || !isRetryableCacheError(err) {
			break
		}

		backoff := min(100*time.Millisecond<<attempt, 2*time.Second)
		backoff = backoff/2 + rand.N(backoff/2+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("redis operation failed: %w", lastErr)
}

// isRetryableCacheError determines if a Redis error is worth retrying
func isRetryableCacheError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := err.Error()
	for _, retryable := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"no such host",
		"network is unreachable",
	} {
		if strings.Contains(msg, retryable) {
			return true
		}
	}
	return false
}

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

func categoryKey(id int64) string {
	return fmt.Sprintf("%s%d", categoryKeyPrefix, id)
}

// GetProduct returns the cached product, or nil on a miss
func (cs *CacheService) GetProduct(ctx context.Context, id int64) (*tables.Product, error) {
	return getJSON[tables.Product](ctx, cs, "product", productKey(id))
}

// SetProduct caches p under its ID unless the key is already held, tombstone included
func (cs *CacheService) SetProduct(ctx context.Context, p *tables.Product) error {
	return setJSON(ctx, cs, productKey(p.ID), p, cs.config.ProductTTL)
}

// GetCategory returns the cached category, or nil on a miss
func (cs *CacheService) GetCategory(ctx context.Context, id int64) (*tables.Category, error) {
	return getJSON[tables.Category](ctx, cs, "category", categoryKey(id))
}

// SetCategory caches c under its ID unless the key is already held
func (cs *CacheService) SetCategory(ctx context.Context, c *tables.Category) error {
	return setJSON(ctx, cs, categoryKey(c.ID), c, cs.config.CategoryTTL)
}

// InvalidateProducts replaces the cached entries of the given products with tombstones
func (cs *CacheService) InvalidateProducts(ctx context.Context, ids ...int64) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	return cs.tombstone(ctx, keys...)
}

// InvalidateCategory replaces the cached entry of a category with a tombstone
func (cs *CacheService) InvalidateCategory(ctx context.Context, id int64) error {
	return cs.tombstone(ctx, categoryKey(id))
}

// Forget tombstones the cached entries touched by a committed write. Failures are logged
// and the stale entries expire with their TTL.
func (cs *CacheService) Forget(ctx context.Context, categoryIDs, productIDs []int64) {
	if !cs.Enabled() {
		return
	}
	for _, id := range categoryIDs {
		if err := cs.InvalidateCategory(ctx, id); err != nil {
			cs.logger.Warn("Failed to invalidate cached category", gecho.Field("error", err), gecho.Field("id", id))
		}
	}
	if err := cs.InvalidateProducts(ctx, productIDs...); err != nil {
		cs.logger.Warn("Failed to invalidate cached products", gecho.Field("error", err), gecho.Field("ids", productIDs))
	}
}

// DeletePattern removes all keys matching a pattern using SCAN
func (cs *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	if !cs.Enabled() {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		var cursor uint64
		for {
			keys, next, err := cs.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			if len(keys) > 0 {
				if err := cs.client.Del(ctx, keys...).Err(); err != nil {
					return fmt.Errorf("delete failed: %w", err)
				}
			}
			cursor = next
			if cursor == 0 {
				return nil
			}
		}
	})
}

func (cs *CacheService) tombstoneTTL() time.Duration {
	if cs.config.TombstoneTTL > 0 {
		return cs.config.TombstoneTTL
	}
	return defaultTombstoneTTL
}

func (cs *CacheService) tombstone(ctx context.Context, keys ...string) error {
	if !cs.Enabled() || len(keys) == 0 {
		return nil
	}
	ttl := cs.tombstoneTTL()
	return cs.withRetry(ctx, func() error {
		_, err := cs.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range keys {
				pipe.Set(ctx, key, tombstoneValue, ttl)
			}
			return nil
		})
		return err
	})
}

func setJSON[T any](ctx context.Context, cs *CacheService, key string, value T, ttl time.Duration) error {
	if !cs.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.SetNX(ctx, key, data, ttl).Err()
	})
}

func getJSON[T any](ctx context.Context, cs *CacheService, kind, key string) (*T, error) {
	if !cs.Enabled() {
		return nil, nil
	}

	var val string
	err := cs.withRetry(ctx, func() error {
		var err error
		val, err = cs.client.Get(ctx, key).Result()
		return err
	})
	if errors.Is(err, redis.Nil) || val == tombstoneValue {
		metrics.CacheRequests.WithLabelValues(kind, "miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.CacheRequests.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	var result T
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		metrics.CacheRequests.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	metrics.CacheRequests.WithLabelValues(kind, "hit").Inc()
	return &result, nil
}
