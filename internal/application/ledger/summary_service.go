package ledger

import (
	"context"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SummaryCache is the optional read-through cache in front of the summary
// queries. Correctness never depends on it; a miss or a failed invalidation
// only costs a storage round trip.
type SummaryCache interface {
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*ledger.CustomerSummary, bool)
	SetCustomer(ctx context.Context, summary *ledger.CustomerSummary, ttl time.Duration)
	InvalidateCustomer(ctx context.Context, customerID uuid.UUID)
	GetGlobal(ctx context.Context) (*ledger.GlobalSummary, bool)
	SetGlobal(ctx context.Context, summary *ledger.GlobalSummary, ttl time.Duration)
	InvalidateGlobal(ctx context.Context)
}

// SummaryService serves receivable summaries for the dashboard, cached with
// explicit invalidation keyed by customer.
type SummaryService struct {
	reader ledger.SummaryReader
	cache  SummaryCache
	clock  ledger.Clock
	ttl    time.Duration
	logger *zap.Logger
}

// NewSummaryService creates a new SummaryService. cache may be nil.
func NewSummaryService(reader ledger.SummaryReader, cache SummaryCache, clock ledger.Clock, ttl time.Duration, logger *zap.Logger) *SummaryService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryService{reader: reader, cache: cache, clock: clock, ttl: ttl, logger: logger}
}

// CustomerSummary returns one customer's open credit position
func (s *SummaryService) CustomerSummary(ctx context.Context, customerID uuid.UUID) (*ledger.CustomerSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetCustomer(ctx, customerID); ok {
			return cached, nil
		}
	}

	summary, err := s.reader.CustomerSummary(ctx, customerID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetCustomer(ctx, summary, s.ttl)
	}
	return summary, nil
}

// GlobalSummary returns the whole ledger's open position
func (s *SummaryService) GlobalSummary(ctx context.Context) (*ledger.GlobalSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetGlobal(ctx); ok {
			return cached, nil
		}
	}

	summary, err := s.reader.GlobalSummary(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetGlobal(ctx, summary, s.ttl)
	}
	return summary, nil
}

// SummaryInvalidator drops cached summaries when a sale's balance moves.
// Registered on the event bus at startup.
type SummaryInvalidator struct {
	cache  SummaryCache
	logger *zap.Logger
}

// NewSummaryInvalidator creates a new SummaryInvalidator
func NewSummaryInvalidator(cache SummaryCache, logger *zap.Logger) *SummaryInvalidator {
	return &SummaryInvalidator{cache: cache, logger: logger}
}

// EventTypes lists the events that move ledger balances
func (h *SummaryInvalidator) EventTypes() []string {
	return []string{
		ledger.EventTypeSaleCreated,
		ledger.EventTypeSaleBalanceChanged,
		ledger.EventTypeSaleCancelled,
	}
}

// Handle invalidates the cache entries affected by the event
func (h *SummaryInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	customerID := customerIDFromEvent(event)
	if customerID != uuid.Nil {
		h.cache.InvalidateCustomer(ctx, customerID)
	}
	h.cache.InvalidateGlobal(ctx)

	h.logger.Debug("summary cache invalidated",
		zap.String("event", event.EventType()),
		zap.String("sale_id", event.AggregateID().String()))
	return nil
}

func customerIDFromEvent(event shared.DomainEvent) uuid.UUID {
	switch e := event.(type) {
	case *ledger.SaleCreatedEvent:
		return e.CustomerID
	case *ledger.SaleBalanceChangedEvent:
		return e.CustomerID
	case *ledger.SaleCancelledEvent:
		return e.CustomerID
	}
	return uuid.Nil
}
