package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appfinance "github.com/tasheel/backend/internal/application/finance"
	"github.com/tasheel/backend/internal/domain/finance"
)

// Ensure the in-memory caches satisfy the application ports
var (
	_ appfinance.CreditUsageCache = (*InMemoryCreditUsageCache)(nil)
	_ appfinance.BalanceCache     = (*InMemoryBalanceCache)(nil)
)

// Constants for in-memory cache configuration
const (
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// memoryEntry wraps a cached value with expiration time
type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *memoryEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// memoryStore is a TTL-bounded store keyed by customer ID. It backs both
// in-memory caches and runs a background sweep for expired entries.
type memoryStore[T any] struct {
	entries sync.Map // map[uuid.UUID]*memoryEntry[T]
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

func newMemoryStore[T any](ttl time.Duration, logger *zap.Logger) *memoryStore[T] {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &memoryStore[T]{
		ttl:    ttl,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go store.cleanupExpired()
	return store
}

func (s *memoryStore[T]) get(key uuid.UUID) (T, bool) {
	var zero T
	if value, ok := s.entries.Load(key); ok {
		entry := value.(*memoryEntry[T])
		if !entry.isExpired() {
			atomic.AddInt64(&s.hits, 1)
			return entry.value, true
		}
		s.entries.Delete(key)
	}
	atomic.AddInt64(&s.misses, 1)
	return zero, false
}

func (s *memoryStore[T]) set(key uuid.UUID, value T) {
	s.entries.Store(key, &memoryEntry[T]{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	})
}

func (s *memoryStore[T]) invalidate(key uuid.UUID) {
	s.entries.Delete(key)
}

// Stop terminates the background cleanup goroutine
func (s *memoryStore[T]) Stop() {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
}

// Stats returns hit and miss counts
func (s *memoryStore[T]) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

func (s *memoryStore[T]) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			removed := 0
			s.entries.Range(func(key, value interface{}) bool {
				if value.(*memoryEntry[T]).isExpired() {
					s.entries.Delete(key)
					removed++
				}
				return true
			})
			if removed > 0 {
				s.logger.Debug("cleaned up expired cache entries", zap.Int("removed", removed))
			}
		}
	}
}

// InMemoryCreditUsageCache caches credit usage snapshots per customer.
// Suitable for single-instance deployments; distributed setups should
// use the Redis variant so invalidations reach every instance.
type InMemoryCreditUsageCache struct {
	store  *memoryStore[finance.CreditUsage]
	logger *zap.Logger
}

// NewInMemoryCreditUsageCache creates a new in-memory credit usage cache
func NewInMemoryCreditUsageCache(ttl time.Duration, logger *zap.Logger) *InMemoryCreditUsageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryCreditUsageCache{
		store:  newMemoryStore[finance.CreditUsage](ttl, logger),
		logger: logger,
	}
}

// Get retrieves a cached credit usage snapshot
func (c *InMemoryCreditUsageCache) Get(_ context.Context, customerID uuid.UUID) (*finance.CreditUsage, bool) {
	usage, ok := c.store.get(customerID)
	if !ok {
		c.logger.Debug("credit usage cache miss", zap.String("customer_id", customerID.String()))
		return nil, false
	}
	return &usage, true
}

// Set stores a credit usage snapshot
func (c *InMemoryCreditUsageCache) Set(_ context.Context, customerID uuid.UUID, usage finance.CreditUsage) {
	c.store.set(customerID, usage)
}

// Invalidate removes a customer's cached snapshot
func (c *InMemoryCreditUsageCache) Invalidate(_ context.Context, customerID uuid.UUID) {
	c.store.invalidate(customerID)
}

// Stop terminates the background cleanup goroutine
func (c *InMemoryCreditUsageCache) Stop() {
	c.store.Stop()
}

// InMemoryBalanceCache caches advance balance totals per customer
type InMemoryBalanceCache struct {
	store  *memoryStore[decimal.Decimal]
	logger *zap.Logger
}

// NewInMemoryBalanceCache creates a new in-memory balance cache
func NewInMemoryBalanceCache(ttl time.Duration, logger *zap.Logger) *InMemoryBalanceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryBalanceCache{
		store:  newMemoryStore[decimal.Decimal](ttl, logger),
		logger: logger,
	}
}

// Get retrieves a cached balance
func (c *InMemoryBalanceCache) Get(_ context.Context, customerID uuid.UUID) (*decimal.Decimal, bool) {
	balance, ok := c.store.get(customerID)
	if !ok {
		c.logger.Debug("balance cache miss", zap.String("customer_id", customerID.String()))
		return nil, false
	}
	return &balance, true
}

// Set stores a balance
func (c *InMemoryBalanceCache) Set(_ context.Context, customerID uuid.UUID, balance decimal.Decimal) {
	c.store.set(customerID, balance)
}

// Invalidate removes a customer's cached balance
func (c *InMemoryBalanceCache) Invalidate(_ context.Context, customerID uuid.UUID) {
	c.store.invalidate(customerID)
}

// Stop terminates the background cleanup goroutine
func (c *InMemoryBalanceCache) Stop() {
	c.store.Stop()
}
