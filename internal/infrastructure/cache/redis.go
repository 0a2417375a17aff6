package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appfinance "github.com/tasheel/backend/internal/application/finance"
	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/infrastructure/config"
)

// Ensure the Redis caches satisfy the application ports
var (
	_ appfinance.CreditUsageCache = (*RedisCreditUsageCache)(nil)
	_ appfinance.BalanceCache     = (*RedisBalanceCache)(nil)
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCreditUsageCache caches credit usage snapshots in Redis so that
// invalidations are visible to every instance. A Redis failure is treated
// as a cache miss; callers fall back to recomputing from the database.
type RedisCreditUsageCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisCreditUsageCache creates a new Redis-backed credit usage cache
func NewRedisCreditUsageCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCreditUsageCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCreditUsageCache{
		client:    client,
		keyPrefix: "credit:usage:",
		ttl:       ttl,
		logger:    logger,
	}
}

// Get retrieves a cached credit usage snapshot
func (c *RedisCreditUsageCache) Get(ctx context.Context, customerID uuid.UUID) (*finance.CreditUsage, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+customerID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed for credit usage",
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
		}
		return nil, false
	}

	var usage finance.CreditUsage
	if err := json.Unmarshal(data, &usage); err != nil {
		c.logger.Warn("corrupt credit usage cache entry",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
		return nil, false
	}
	return &usage, true
}

// Set stores a credit usage snapshot with the configured TTL
func (c *RedisCreditUsageCache) Set(ctx context.Context, customerID uuid.UUID, usage finance.CreditUsage) {
	data, err := json.Marshal(usage)
	if err != nil {
		c.logger.Warn("failed to marshal credit usage",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
		return
	}
	if err := c.client.Set(ctx, c.keyPrefix+customerID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed for credit usage",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}
}

// Invalidate removes a customer's cached snapshot
func (c *RedisCreditUsageCache) Invalidate(ctx context.Context, customerID uuid.UUID) {
	if err := c.client.Del(ctx, c.keyPrefix+customerID.String()).Err(); err != nil {
		c.logger.Warn("redis delete failed for credit usage",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}
}

// RedisBalanceCache caches advance balance totals in Redis
type RedisBalanceCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisBalanceCache creates a new Redis-backed balance cache
func NewRedisBalanceCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisBalanceCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBalanceCache{
		client:    client,
		keyPrefix: "advance:balance:",
		ttl:       ttl,
		logger:    logger,
	}
}

// Get retrieves a cached balance
func (c *RedisBalanceCache) Get(ctx context.Context, customerID uuid.UUID) (*decimal.Decimal, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+customerID.String()).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed for advance balance",
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
		}
		return nil, false
	}

	balance, err := decimal.NewFromString(data)
	if err != nil {
		c.logger.Warn("corrupt advance balance cache entry",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
		return nil, false
	}
	return &balance, true
}

// Set stores a balance with the configured TTL
func (c *RedisBalanceCache) Set(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal) {
	if err := c.client.Set(ctx, c.keyPrefix+customerID.String(), balance.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed for advance balance",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}
}

// Invalidate removes a customer's cached balance
func (c *RedisBalanceCache) Invalidate(ctx context.Context, customerID uuid.UUID) {
	if err := c.client.Del(ctx, c.keyPrefix+customerID.String()).Err(); err != nil {
		c.logger.Warn("redis delete failed for advance balance",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}
}
