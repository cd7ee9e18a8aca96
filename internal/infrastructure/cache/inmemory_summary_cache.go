package cache

import (
	"context"
	"sync"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/google/uuid"
)

// InMemorySummaryCache is the single-instance fallback used when Redis is
// disabled. Expired entries are dropped lazily on read.
type InMemorySummaryCache struct {
	mu      sync.RWMutex
	entries map[string]summaryEntry
}

type summaryEntry struct {
	value     any
	expiresAt time.Time
}

func (e summaryEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemorySummaryCache creates a new in-memory summary cache
func NewInMemorySummaryCache() *InMemorySummaryCache {
	return &InMemorySummaryCache{entries: make(map[string]summaryEntry)}
}

// GetCustomer returns a cached customer summary, if present
func (c *InMemorySummaryCache) GetCustomer(_ context.Context, customerID uuid.UUID) (*ledger.CustomerSummary, bool) {
	value, ok := c.get(customerSummaryKeyPrefix + customerID.String())
	if !ok {
		return nil, false
	}
	summary, ok := value.(*ledger.CustomerSummary)
	return summary, ok
}

// SetCustomer stores a customer summary with a TTL
func (c *InMemorySummaryCache) SetCustomer(_ context.Context, summary *ledger.CustomerSummary, ttl time.Duration) {
	c.set(customerSummaryKeyPrefix+summary.CustomerID.String(), summary, ttl)
}

// InvalidateCustomer drops a customer's cached summary
func (c *InMemorySummaryCache) InvalidateCustomer(_ context.Context, customerID uuid.UUID) {
	c.del(customerSummaryKeyPrefix + customerID.String())
}

// GetGlobal returns the cached global summary, if present
func (c *InMemorySummaryCache) GetGlobal(_ context.Context) (*ledger.GlobalSummary, bool) {
	value, ok := c.get(globalSummaryKey)
	if !ok {
		return nil, false
	}
	summary, ok := value.(*ledger.GlobalSummary)
	return summary, ok
}

// SetGlobal stores the global summary with a TTL
func (c *InMemorySummaryCache) SetGlobal(_ context.Context, summary *ledger.GlobalSummary, ttl time.Duration) {
	c.set(globalSummaryKey, summary, ttl)
}

// InvalidateGlobal drops the cached global summary
func (c *InMemorySummaryCache) InvalidateGlobal(_ context.Context) {
	c.del(globalSummaryKey)
}

func (c *InMemorySummaryCache) get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.isExpired() {
		c.del(key)
		return nil, false
	}
	return entry.value, true
}

func (c *InMemorySummaryCache) set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = summaryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *InMemorySummaryCache) del(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
