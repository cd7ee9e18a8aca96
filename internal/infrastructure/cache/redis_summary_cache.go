package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	customerSummaryKeyPrefix = "summary:customer:"
	globalSummaryKey         = "summary:global"
)

// RedisSummaryCache caches ledger summaries in Redis so multiple instances
// share one cache. Redis failures degrade to cache misses, never to errors.
type RedisSummaryCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient opens a Redis client from configuration and verifies the
// connection before returning it
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// NewRedisSummaryCache creates a new Redis-backed summary cache
func NewRedisSummaryCache(client *redis.Client, logger *zap.Logger) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, logger: logger}
}

// GetCustomer returns a cached customer summary, if present
func (c *RedisSummaryCache) GetCustomer(ctx context.Context, customerID uuid.UUID) (*ledger.CustomerSummary, bool) {
	var summary ledger.CustomerSummary
	if !c.get(ctx, customerSummaryKeyPrefix+customerID.String(), &summary) {
		return nil, false
	}
	return &summary, true
}

// SetCustomer stores a customer summary with a TTL
func (c *RedisSummaryCache) SetCustomer(ctx context.Context, summary *ledger.CustomerSummary, ttl time.Duration) {
	c.set(ctx, customerSummaryKeyPrefix+summary.CustomerID.String(), summary, ttl)
}

// InvalidateCustomer drops a customer's cached summary
func (c *RedisSummaryCache) InvalidateCustomer(ctx context.Context, customerID uuid.UUID) {
	c.del(ctx, customerSummaryKeyPrefix+customerID.String())
}

// GetGlobal returns the cached global summary, if present
func (c *RedisSummaryCache) GetGlobal(ctx context.Context) (*ledger.GlobalSummary, bool) {
	var summary ledger.GlobalSummary
	if !c.get(ctx, globalSummaryKey, &summary) {
		return nil, false
	}
	return &summary, true
}

// SetGlobal stores the global summary with a TTL
func (c *RedisSummaryCache) SetGlobal(ctx context.Context, summary *ledger.GlobalSummary, ttl time.Duration) {
	c.set(ctx, globalSummaryKey, summary, ttl)
}

// InvalidateGlobal drops the cached global summary
func (c *RedisSummaryCache) InvalidateGlobal(ctx context.Context) {
	c.del(ctx, globalSummaryKey)
}

func (c *RedisSummaryCache) get(ctx context.Context, key string, out any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("summary cache entry is corrupt", zap.String("key", key), zap.Error(err))
		c.del(ctx, key)
		return false
	}
	return true
}

func (c *RedisSummaryCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("summary cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisSummaryCache) del(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("summary cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
