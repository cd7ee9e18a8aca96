package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory ledger store shared by the fake repositories.
// Repositories copy entities on the way in and out, matching how a real
// database round-trip detaches them.
type memStore struct {
	mu          sync.Mutex
	sales       map[uuid.UUID]ledger.Sale
	receivables map[uuid.UUID]ledger.Receivable
	payments    map[uuid.UUID]ledger.Payment
}

func newMemStore() *memStore {
	return &memStore{
		sales:       make(map[uuid.UUID]ledger.Sale),
		receivables: make(map[uuid.UUID]ledger.Receivable),
		payments:    make(map[uuid.UUID]ledger.Payment),
	}
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := newMemStore()
	for k, v := range s.sales {
		clone.sales[k] = v
	}
	for k, v := range s.receivables {
		clone.receivables[k] = v
	}
	for k, v := range s.payments {
		clone.payments[k] = v
	}
	return clone
}

func (s *memStore) restore(from *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = from.sales
	s.receivables = from.receivables
	s.payments = from.payments
}

func (s *memStore) repos() ledger.Repositories {
	return ledger.Repositories{
		Sales:       &memSaleRepo{store: s},
		Receivables: &memReceivableRepo{store: s},
		Payments:    &memPaymentRepo{store: s},
	}
}

// memUnitOfWork mimics transactional semantics by restoring a snapshot of
// the store when the function fails.
type memUnitOfWork struct {
	store *memStore
}

func (u *memUnitOfWork) Execute(_ context.Context, fn func(repos ledger.Repositories) error) error {
	before := u.store.snapshot()
	if err := fn(u.store.repos()); err != nil {
		u.store.restore(before)
		return err
	}
	return nil
}

type memSaleRepo struct {
	store *memStore
}

func (r *memSaleRepo) Save(_ context.Context, sale *ledger.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sales[sale.ID] = *sale
	return nil
}

func (r *memSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sale, ok := r.store.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sale, nil
}

func (r *memSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *memSaleRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []ledger.Sale
	for _, sale := range r.store.sales {
		if sale.CustomerID == customerID {
			items = append(items, sale)
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *memSaleRepo) List(_ context.Context, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := make([]ledger.Sale, 0, len(r.store.sales))
	for _, sale := range r.store.sales {
		items = append(items, sale)
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *memSaleRepo) FindInconsistent(_ context.Context) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var ids []uuid.UUID
	for id, sale := range r.store.sales {
		if sale.Status != ledger.SaleStatusPending || !sale.PaidAmount.IsPositive() {
			continue
		}
		allocated := decimal.Zero
		for _, recv := range r.store.receivables {
			if recv.SaleID == id && recv.Status != ledger.ReceivableStatusCancelled {
				allocated = allocated.Add(recv.PaidAmount)
			}
		}
		if sale.PaidAmount.Sub(allocated).Abs().GreaterThanOrEqual(ledger.Tolerance) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (r *memSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sales[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.sales, id)
	return nil
}

type memReceivableRepo struct {
	store *memStore
}

func (r *memReceivableRepo) Save(_ context.Context, receivable *ledger.Receivable) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.receivables[receivable.ID] = *receivable
	return nil
}

func (r *memReceivableRepo) SaveAll(ctx context.Context, receivables []*ledger.Receivable) error {
	for _, recv := range receivables {
		if err := r.Save(ctx, recv); err != nil {
			return err
		}
	}
	return nil
}

func (r *memReceivableRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Receivable, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	recv, ok := r.store.receivables[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &recv, nil
}

func (r *memReceivableRepo) FindBySale(_ context.Context, saleID uuid.UUID) ([]*ledger.Receivable, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*ledger.Receivable
	for _, recv := range r.store.receivables {
		if recv.SaleID == saleID {
			copied := recv
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Installment < out[j].Installment })
	return out, nil
}

func (r *memReceivableRepo) FindOverdue(_ context.Context, asOf time.Time, filter shared.Filter) (*shared.Paginated[ledger.Receivable], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []ledger.Receivable
	for _, recv := range r.store.receivables {
		if recv.Status.CanReceivePayment() && recv.DueDate.Before(asOf) {
			items = append(items, recv)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DueDate.Before(items[j].DueDate) })
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *memReceivableRepo) DeleteBySale(_ context.Context, saleID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, recv := range r.store.receivables {
		if recv.SaleID == saleID {
			delete(r.store.receivables, id)
		}
	}
	return nil
}

type memPaymentRepo struct {
	store *memStore
}

func (r *memPaymentRepo) Save(_ context.Context, payment *ledger.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	payment, ok := r.store.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &payment, nil
}

func (r *memPaymentRepo) FindBySale(_ context.Context, saleID uuid.UUID) ([]ledger.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.Payment
	for _, payment := range r.store.payments {
		if payment.SaleID == saleID {
			out = append(out, payment)
		}
	}
	ledger.SortPaymentsByPaidAt(out)
	return out, nil
}

func (r *memPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.payments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.payments, id)
	return nil
}

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}
