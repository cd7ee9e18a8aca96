package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/dto"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/middleware"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// memStore is a tiny in-memory backing store for driving the real
// application services through the HTTP layer.
type memStore struct {
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

func (s *memStore) repos() ledger.Repositories {
	return ledger.Repositories{
		Sales:       &memSaleRepo{store: s},
		Receivables: &memReceivableRepo{store: s},
		Payments:    &memPaymentRepo{store: s},
	}
}

type memUnitOfWork struct {
	store *memStore
}

func (u *memUnitOfWork) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return fn(u.store.repos())
}

type memSaleRepo struct {
	store *memStore
}

func (r *memSaleRepo) Save(ctx context.Context, sale *ledger.Sale) error {
	r.store.sales[sale.ID] = *sale
	return nil
}

func (r *memSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	sale, ok := r.store.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := sale
	return &copied, nil
}

func (r *memSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *memSaleRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	var items []ledger.Sale
	for _, sale := range r.store.sales {
		if sale.CustomerID == customerID {
			items = append(items, sale)
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *memSaleRepo) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	var items []ledger.Sale
	for _, sale := range r.store.sales {
		items = append(items, sale)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *memSaleRepo) FindInconsistent(ctx context.Context) ([]uuid.UUID, error) {
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

func (r *memSaleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.store.sales[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.sales, id)
	return nil
}

type memReceivableRepo struct {
	store *memStore
}

func (r *memReceivableRepo) Save(ctx context.Context, recv *ledger.Receivable) error {
	r.store.receivables[recv.ID] = *recv
	return nil
}

func (r *memReceivableRepo) SaveAll(ctx context.Context, recvs []*ledger.Receivable) error {
	for _, recv := range recvs {
		r.store.receivables[recv.ID] = *recv
	}
	return nil
}

func (r *memReceivableRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Receivable, error) {
	recv, ok := r.store.receivables[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := recv
	return &copied, nil
}

func (r *memReceivableRepo) FindBySale(ctx context.Context, saleID uuid.UUID) ([]*ledger.Receivable, error) {
	var items []*ledger.Receivable
	for _, recv := range r.store.receivables {
		if recv.SaleID == saleID {
			copied := recv
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Installment < items[j].Installment })
	return items, nil
}

func (r *memReceivableRepo) FindOverdue(ctx context.Context, asOf time.Time, filter shared.Filter) (*shared.Paginated[ledger.Receivable], error) {
	var items []ledger.Receivable
	for _, recv := range r.store.receivables {
		if recv.Status.CanReceivePayment() && recv.DueDate.Before(asOf) {
			items = append(items, recv)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DueDate.Before(items[j].DueDate) })
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *memReceivableRepo) DeleteBySale(ctx context.Context, saleID uuid.UUID) error {
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

func (r *memPaymentRepo) Save(ctx context.Context, payment *ledger.Payment) error {
	r.store.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	payment, ok := r.store.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := payment
	return &copied, nil
}

func (r *memPaymentRepo) FindBySale(ctx context.Context, saleID uuid.UUID) ([]ledger.Payment, error) {
	var items []ledger.Payment
	for _, payment := range r.store.payments {
		if payment.SaleID == saleID {
			items = append(items, payment)
		}
	}
	ledger.SortPaymentsByPaidAt(items)
	return items, nil
}

func (r *memPaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.store.payments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.payments, id)
	return nil
}

// stubSummaryReader serves canned summaries
type stubSummaryReader struct {
	customer *ledger.CustomerSummary
	global   *ledger.GlobalSummary
}

func (r *stubSummaryReader) CustomerSummary(ctx context.Context, customerID uuid.UUID, asOf time.Time) (*ledger.CustomerSummary, error) {
	copied := *r.customer
	copied.CustomerID = customerID
	return &copied, nil
}

func (r *stubSummaryReader) GlobalSummary(ctx context.Context, asOf time.Time) (*ledger.GlobalSummary, error) {
	copied := *r.global
	return &copied, nil
}

// testClock is frozen so due-date behavior is reproducible
var testClock = ledger.FixedClock{Instant: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}

type apiFixture struct {
	engine *gin.Engine
	store  *memStore
}

func newAPIFixture(t *testing.T, reader ledger.SummaryReader) *apiFixture {
	t.Helper()

	store := newMemStore()
	uow := &memUnitOfWork{store: store}
	repos := store.repos()
	logger := zap.NewNop()

	saleService := ledgerapp.NewSaleService(uow, repos.Sales, repos.Receivables, repos.Payments, nil, testClock)
	paymentService := ledgerapp.NewPaymentService(uow, nil, testClock)
	repairService := ledgerapp.NewRepairService(uow, repos.Sales, repos.Receivables, logger)
	importService := ledgerapp.NewImportService(uow, testClock, logger)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine)
	r.Register(NewSaleHandler(saleService))
	r.Register(NewPaymentHandler(paymentService))
	r.Register(NewReceivableHandler(saleService))
	r.Register(NewRepairHandler(repairService))
	r.Register(NewImportHandler(importService))
	r.Register(NewSystemHandler(nil))
	if reader != nil {
		summaryService := ledgerapp.NewSummaryService(reader, nil, testClock, time.Minute, logger)
		r.Register(NewSummaryHandler(summaryService))
	}
	r.Setup()

	return &apiFixture{engine: engine, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (f *apiFixture) createSale(t *testing.T, total float64, installments int, saleDate time.Time) uuid.UUID {
	t.Helper()

	w, env := f.do(t, http.MethodPost, "/api/v1/sales", gin.H{
		"customer_id":   uuid.NewString(),
		"customer_name": "Maria Souza",
		"total":         total,
		"installments":  installments,
		"payment_day":   10,
		"sale_date":     saleDate.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Sale ledger.Sale `json:"sale"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Sale.ID
}
