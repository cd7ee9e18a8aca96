package ledger

import (
	"context"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleRepository defines the persistence port for sales
type SaleRepository interface {
	Save(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindByIDForUpdate loads the sale under a row lock. Only meaningful
	// inside a unit of work; implementations outside a transaction fall
	// back to a plain read.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[Sale], error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[Sale], error)
	// FindInconsistent returns ids of sales whose recorded paid amount
	// disagrees with the sum of their installments' paid amounts beyond
	// the tolerance. Used by the consistency repair routine.
	FindInconsistent(ctx context.Context) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReceivableRepository defines the persistence port for installments
type ReceivableRepository interface {
	Save(ctx context.Context, receivable *Receivable) error
	SaveAll(ctx context.Context, receivables []*Receivable) error
	FindByID(ctx context.Context, id uuid.UUID) (*Receivable, error)
	// FindBySale returns the sale's installments ordered by installment
	// number ascending.
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]*Receivable, error)
	FindOverdue(ctx context.Context, asOf time.Time, filter shared.Filter) (*shared.Paginated[Receivable], error)
	DeleteBySale(ctx context.Context, saleID uuid.UUID) error
}

// PaymentRepository defines the persistence port for payments
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindBySale returns the sale's payments ordered by paidAt ascending.
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories bundles the ledger ports bound to one transaction
type Repositories struct {
	Sales       SaleRepository
	Receivables ReceivableRepository
	Payments    PaymentRepository
}

// UnitOfWork runs a function with repositories bound to a single
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Clock abstracts "now" so overdue checks and paid-at stamps are testable
type Clock interface {
	Now() time.Time
}

// SystemClock is the production wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant
}
