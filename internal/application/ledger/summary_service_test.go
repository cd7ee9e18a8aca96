package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingReader counts storage round trips behind the cache
type countingReader struct {
	customerCalls int
	globalCalls   int
}

func (r *countingReader) CustomerSummary(_ context.Context, customerID uuid.UUID, _ time.Time) (*ledger.CustomerSummary, error) {
	r.customerCalls++
	return &ledger.CustomerSummary{
		CustomerID:  customerID,
		OpenSales:   1,
		Outstanding: decimal.NewFromInt(80),
	}, nil
}

func (r *countingReader) GlobalSummary(_ context.Context, _ time.Time) (*ledger.GlobalSummary, error) {
	r.globalCalls++
	return &ledger.GlobalSummary{OpenSales: 4}, nil
}

// mapSummaryCache is a minimal SummaryCache for service tests
type mapSummaryCache struct {
	customers map[uuid.UUID]*ledger.CustomerSummary
	global    *ledger.GlobalSummary
}

func newMapSummaryCache() *mapSummaryCache {
	return &mapSummaryCache{customers: make(map[uuid.UUID]*ledger.CustomerSummary)}
}

func (c *mapSummaryCache) GetCustomer(_ context.Context, customerID uuid.UUID) (*ledger.CustomerSummary, bool) {
	s, ok := c.customers[customerID]
	return s, ok
}

func (c *mapSummaryCache) SetCustomer(_ context.Context, summary *ledger.CustomerSummary, _ time.Duration) {
	c.customers[summary.CustomerID] = summary
}

func (c *mapSummaryCache) InvalidateCustomer(_ context.Context, customerID uuid.UUID) {
	delete(c.customers, customerID)
}

func (c *mapSummaryCache) GetGlobal(_ context.Context) (*ledger.GlobalSummary, bool) {
	return c.global, c.global != nil
}

func (c *mapSummaryCache) SetGlobal(_ context.Context, summary *ledger.GlobalSummary, _ time.Duration) {
	c.global = summary
}

func (c *mapSummaryCache) InvalidateGlobal(_ context.Context) {
	c.global = nil
}

func TestSummaryService(t *testing.T) {
	ctx := context.Background()
	clock := &ledger.FixedClock{Instant: time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC)}

	t.Run("second read hits the cache", func(t *testing.T) {
		reader := &countingReader{}
		service := NewSummaryService(reader, newMapSummaryCache(), clock, time.Minute, zaptest.NewLogger(t))
		customerID := uuid.New()

		first, err := service.CustomerSummary(ctx, customerID)
		require.NoError(t, err)
		second, err := service.CustomerSummary(ctx, customerID)
		require.NoError(t, err)

		assert.Equal(t, first.CustomerID, second.CustomerID)
		assert.Equal(t, 1, reader.customerCalls)

		_, err = service.GlobalSummary(ctx)
		require.NoError(t, err)
		_, err = service.GlobalSummary(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, reader.globalCalls)
	})

	t.Run("works without a cache", func(t *testing.T) {
		reader := &countingReader{}
		service := NewSummaryService(reader, nil, clock, time.Minute, zaptest.NewLogger(t))

		_, err := service.CustomerSummary(ctx, uuid.New())
		require.NoError(t, err)
		_, err = service.GlobalSummary(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, reader.customerCalls)
		assert.Equal(t, 1, reader.globalCalls)
	})
}

func TestSummaryInvalidator(t *testing.T) {
	ctx := context.Background()

	newSaleForEvents := func(t *testing.T) *ledger.Sale {
		t.Helper()
		sale, err := ledger.NewSale(
			uuid.New(), "Olga Dias",
			// Money amounts don't matter for invalidation
			mustMoney(t, "100.00"),
			2, 10, nil, time.Now(),
		)
		require.NoError(t, err)
		return sale
	}

	t.Run("balance change drops customer and global entries", func(t *testing.T) {
		cache := newMapSummaryCache()
		sale := newSaleForEvents(t)
		cache.SetCustomer(ctx, &ledger.CustomerSummary{CustomerID: sale.CustomerID}, time.Minute)
		cache.SetGlobal(ctx, &ledger.GlobalSummary{OpenSales: 2}, time.Minute)

		invalidator := NewSummaryInvalidator(cache, zaptest.NewLogger(t))
		require.NoError(t, invalidator.Handle(ctx, ledger.NewSaleBalanceChangedEvent(sale)))

		_, ok := cache.GetCustomer(ctx, sale.CustomerID)
		assert.False(t, ok)
		_, ok = cache.GetGlobal(ctx)
		assert.False(t, ok)
	})

	t.Run("other customers keep their entries", func(t *testing.T) {
		cache := newMapSummaryCache()
		sale := newSaleForEvents(t)
		otherID := uuid.New()
		cache.SetCustomer(ctx, &ledger.CustomerSummary{CustomerID: sale.CustomerID}, time.Minute)
		cache.SetCustomer(ctx, &ledger.CustomerSummary{CustomerID: otherID}, time.Minute)

		invalidator := NewSummaryInvalidator(cache, zaptest.NewLogger(t))
		require.NoError(t, invalidator.Handle(ctx, ledger.NewSaleCancelledEvent(sale)))

		_, ok := cache.GetCustomer(ctx, sale.CustomerID)
		assert.False(t, ok)
		_, ok = cache.GetCustomer(ctx, otherID)
		assert.True(t, ok)
	})

	t.Run("subscribes to balance-moving events", func(t *testing.T) {
		invalidator := NewSummaryInvalidator(newMapSummaryCache(), zaptest.NewLogger(t))
		types := invalidator.EventTypes()
		assert.Contains(t, types, ledger.EventTypeSaleCreated)
		assert.Contains(t, types, ledger.EventTypeSaleBalanceChanged)
		assert.Contains(t, types, ledger.EventTypeSaleCancelled)
	})
}

func mustMoney(t *testing.T, s string) valueobject.Money {
	t.Helper()
	return valueobject.NewMoney(dec(t, s))
}
