package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	store    *memStore
	sales    *SaleService
	payments *PaymentService
	events   *capturingPublisher
	clock    *ledger.FixedClock
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	store := newMemStore()
	repos := store.repos()
	events := &capturingPublisher{}
	clock := &ledger.FixedClock{Instant: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	uow := &memUnitOfWork{store: store}
	return &paymentFixture{
		store:    store,
		sales:    NewSaleService(uow, repos.Sales, repos.Receivables, repos.Payments, events, clock),
		payments: NewPaymentService(uow, events, clock),
		events:   events,
		clock:    clock,
	}
}

func (f *paymentFixture) newOpenSale(t *testing.T, total string, installments int) *SaleWithSchedule {
	t.Helper()
	result, err := f.sales.CreateInstallmentPlan(context.Background(), CreateInstallmentPlanRequest{
		CustomerID:      uuid.New(),
		CustomerName:    "Tania Borges",
		Total:           dec(t, total),
		NumInstallments: installments,
		PaymentDay:      10,
	})
	require.NoError(t, err)
	return result
}

func TestPaymentService_RegisterSalePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates first to last", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "300.00", 3)

		result, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID,
			Amount: dec(t, "150.00"),
			Method: ledger.PaymentMethodPix,
		})
		require.NoError(t, err)

		assert.True(t, result.Sale.PaidAmount.Equal(dec(t, "150.00")))
		assert.Equal(t, ledger.ReceivableStatusPaid, result.Receivables[0].Status)
		assert.Equal(t, ledger.ReceivableStatusPartial, result.Receivables[1].Status)
		assert.Equal(t, ledger.ReceivableStatusPending, result.Receivables[2].Status)
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})

	t.Run("final payment completes the sale", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "200.00", 2)

		_, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "80.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		result, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "120.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		assert.Equal(t, ledger.SaleStatusCompleted, result.Sale.Status)
		assert.Contains(t, f.events.eventTypes(), ledger.EventTypeSaleCompleted)
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})

	t.Run("seller-absorbed card fee reduces the net total", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "200.00", 1)

		result, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID:           sale.Sale.ID,
			Amount:           dec(t, "200.00"),
			Method:           ledger.PaymentMethodCredit,
			FeePercent:       dec(t, "3.5"),
			FeeAbsorber:      ledger.FeeAbsorberSeller,
			CardInstallments: 2,
		})
		require.NoError(t, err)

		assert.True(t, result.Sale.TotalFees.Equal(dec(t, "7.00")))
		assert.True(t, result.Sale.NetTotal.Equal(dec(t, "193.00")))
	})

	t.Run("rejection leaves no trace", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "100.00", 2)
		before := f.store.snapshot()

		_, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "100.02"), Method: ledger.PaymentMethodCash,
		})
		assertCode(t, err, "AMOUNT_EXCEEDS")

		assert.Equal(t, before.sales, f.store.sales)
		assert.Equal(t, before.receivables, f.store.receivables)
		assert.Equal(t, before.payments, f.store.payments)
	})

	t.Run("overpayment within tolerance is accepted", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "100.00", 2)

		result, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "100.01"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.SaleStatusCompleted, result.Sale.Status)
	})

	t.Run("cancelled sale refuses payments", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "100.00", 2)
		_, err := f.sales.CancelSale(ctx, sale.Sale.ID, "gone")
		require.NoError(t, err)

		_, err = f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "10.00"), Method: ledger.PaymentMethodCash,
		})
		assertCode(t, err, "SALE_CANCELLED")
	})
}

func TestPaymentService_RegisterReceivablePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("settles the targeted installment", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "300.00", 3)
		second := sale.Receivables[1]

		result, err := f.payments.RegisterReceivablePayment(ctx, second.ID, RegisterPaymentRequest{
			Amount: dec(t, "100.00"),
			Method: ledger.PaymentMethodPix,
		})
		require.NoError(t, err)

		assert.Equal(t, ledger.ReceivableStatusPaid, result.Receivables[1].Status)
		assert.Equal(t, ledger.ReceivableStatusPending, result.Receivables[0].Status)
		assert.True(t, result.Sale.PaidAmount.Equal(dec(t, "100.00")))
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})

	t.Run("rejects more than the installment's remaining balance", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "300.00", 3)

		_, err := f.payments.RegisterReceivablePayment(ctx, sale.Receivables[0].ID, RegisterPaymentRequest{
			Amount: dec(t, "100.02"),
			Method: ledger.PaymentMethodPix,
		})
		assertCode(t, err, "AMOUNT_EXCEEDS")
	})

	t.Run("rejects settled installments", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "300.00", 3)
		first := sale.Receivables[0]

		_, err := f.payments.RegisterReceivablePayment(ctx, first.ID, RegisterPaymentRequest{
			Amount: dec(t, "100.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		_, err = f.payments.RegisterReceivablePayment(ctx, first.ID, RegisterPaymentRequest{
			Amount: dec(t, "10.00"), Method: ledger.PaymentMethodCash,
		})
		assertCode(t, err, "RECEIVABLE_NOT_PAYABLE")
	})
}

func TestPaymentService_UpdatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("replays allocations with the edited amount", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "300.00", 3)

		registered, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "150.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		result, err := f.payments.UpdatePayment(ctx, UpdatePaymentRequest{
			PaymentID: registered.Payments[0].ID,
			Amount:    dec(t, "50.00"),
			Method:    ledger.PaymentMethodPix,
		})
		require.NoError(t, err)

		assert.True(t, result.Sale.PaidAmount.Equal(dec(t, "50.00")))
		assert.Equal(t, ledger.ReceivableStatusPartial, result.Receivables[0].Status)
		assert.True(t, result.Receivables[0].PaidAmount.Equal(dec(t, "50.00")))
		assert.Equal(t, ledger.ReceivableStatusPending, result.Receivables[1].Status)
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})

	t.Run("rejects edits that overshoot the sale total", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "100.00", 2)

		registered, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "40.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)
		_, err = f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "30.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		_, err = f.payments.UpdatePayment(ctx, UpdatePaymentRequest{
			PaymentID: registered.Payments[0].ID,
			Amount:    dec(t, "80.00"),
			Method:    ledger.PaymentMethodCash,
		})
		assertCode(t, err, "AMOUNT_EXCEEDS")
	})
}

func TestPaymentService_DeletePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls installments back to their pre-payment state", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "300.00", 3)

		first, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "100.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)
		_, err = f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "50.00"), Method: ledger.PaymentMethodPix,
		})
		require.NoError(t, err)

		result, err := f.payments.DeletePayment(ctx, first.Payments[0].ID)
		require.NoError(t, err)

		// Only the second payment remains; its 50 lands on installment one.
		assert.True(t, result.Sale.PaidAmount.Equal(dec(t, "50.00")))
		assert.Equal(t, ledger.ReceivableStatusPartial, result.Receivables[0].Status)
		assert.True(t, result.Receivables[0].PaidAmount.Equal(dec(t, "50.00")))
		assert.Equal(t, ledger.ReceivableStatusPending, result.Receivables[1].Status)
		assert.Nil(t, result.Receivables[1].PaidAt)
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})

	t.Run("deleting the only payment reopens the sale", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "100.00", 1)

		registered, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "100.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.SaleStatusCompleted, registered.Sale.Status)

		result, err := f.payments.DeletePayment(ctx, registered.Payments[0].ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.SaleStatusPending, result.Sale.Status)
		assert.True(t, result.Sale.PaidAmount.IsZero())
		assert.Equal(t, ledger.ReceivableStatusPending, result.Receivables[0].Status)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.payments.DeletePayment(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentService_RecalculateAfterPaymentChange(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the invariant after a manual edit", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "200.00", 2)
		_, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "120.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		// Simulate drift written by an out-of-band tool
		broken := f.store.sales[sale.Sale.ID]
		broken.PaidAmount = decimal.Zero
		f.store.sales[sale.Sale.ID] = broken

		require.NoError(t, f.payments.RecalculateAfterPaymentChange(ctx, sale.Sale.ID))

		fixed := f.store.sales[sale.Sale.ID]
		assert.True(t, fixed.PaidAmount.Equal(dec(t, "120.00")))
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})

	t.Run("consistent sale is left unchanged", func(t *testing.T) {
		f := newPaymentFixture(t)
		sale := f.newOpenSale(t, "200.00", 2)
		_, err := f.payments.RegisterSalePayment(ctx, RegisterPaymentRequest{
			SaleID: sale.Sale.ID, Amount: dec(t, "60.00"), Method: ledger.PaymentMethodCash,
		})
		require.NoError(t, err)

		require.NoError(t, f.payments.RecalculateAfterPaymentChange(ctx, sale.Sale.ID))

		after := f.store.sales[sale.Sale.ID]
		assert.True(t, after.PaidAmount.Equal(dec(t, "60.00")))
		assertLedgerInvariant(t, f.store, sale.Sale.ID)
	})
}
