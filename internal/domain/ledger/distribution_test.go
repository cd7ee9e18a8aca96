package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedule(t *testing.T, saleID uuid.UUID, amounts ...string) []*Receivable {
	t.Helper()
	receivables := make([]*Receivable, 0, len(amounts))
	for i, a := range amounts {
		r, err := NewReceivable(saleID, i+1, dec(a), date(2024, time.Month(4+i), 10))
		require.NoError(t, err)
		receivables = append(receivables, r)
	}
	return receivables
}

func TestDistribute(t *testing.T) {
	now := date(2024, 4, 1)
	saleID := uuid.New()

	t.Run("fills installments first to last", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00")

		remainder := Distribute(dec("150.00"), receivables, now)

		assert.True(t, remainder.IsZero())
		assert.Equal(t, ReceivableStatusPaid, receivables[0].Status)
		assert.True(t, receivables[0].PaidAmount.Equal(dec("100.00")))
		require.NotNil(t, receivables[0].PaidAt)
		assert.Equal(t, ReceivableStatusPartial, receivables[1].Status)
		assert.True(t, receivables[1].PaidAmount.Equal(dec("50.00")))
		assert.Nil(t, receivables[1].PaidAt)
	})

	t.Run("orders by installment number regardless of slice order", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00")
		reversed := []*Receivable{receivables[1], receivables[0]}

		Distribute(dec("150.00"), reversed, now)

		assert.Equal(t, ReceivableStatusPaid, receivables[0].Status)
		assert.Equal(t, ReceivableStatusPartial, receivables[1].Status)
	})

	t.Run("tops up a partial installment before the next one", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00")
		receivables[0].Apply(dec("30.00"), now)

		remainder := Distribute(dec("100.00"), receivables, now)

		assert.True(t, remainder.IsZero())
		assert.Equal(t, ReceivableStatusPaid, receivables[0].Status)
		assert.True(t, receivables[1].PaidAmount.Equal(dec("30.00")))
	})

	t.Run("skips paid and cancelled installments", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00", "100.00")
		receivables[0].Apply(dec("100.00"), now)
		receivables[1].Cancel(now)

		Distribute(dec("50.00"), receivables, now)

		assert.True(t, receivables[1].PaidAmount.IsZero())
		assert.True(t, receivables[2].PaidAmount.Equal(dec("50.00")))
	})

	t.Run("returns the undistributed remainder", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00")

		remainder := Distribute(dec("130.00"), receivables, now)

		assert.True(t, remainder.Equal(dec("30.00")))
		assert.Equal(t, ReceivableStatusPaid, receivables[0].Status)
	})

	t.Run("ignores non-positive amounts", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00")

		Distribute(decimal.Zero, receivables, now)

		assert.Equal(t, ReceivableStatusPending, receivables[0].Status)
	})
}

func TestReplay(t *testing.T) {
	now := date(2024, 4, 1)
	saleID := uuid.New()

	pay := func(t *testing.T, amount string, paidAt time.Time) Payment {
		t.Helper()
		p, err := NewPayment(saleID, PaymentMethodCash, money(amount), decimal.Zero, FeeAbsorberSeller, 1, paidAt)
		require.NoError(t, err)
		return *p
	}

	t.Run("rebuilds allocations from the full payment history", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00", "100.00")
		payments := []Payment{
			pay(t, "120.00", date(2024, 3, 10)),
			pay(t, "80.00", date(2024, 3, 20)),
		}

		remainder := Replay(payments, receivables, now)

		assert.True(t, remainder.IsZero())
		assert.Equal(t, ReceivableStatusPaid, receivables[0].Status)
		assert.Equal(t, ReceivableStatusPaid, receivables[1].Status)
		assert.True(t, receivables[2].PaidAmount.IsZero())
	})

	t.Run("distributes in chronological order even when stored out of order", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00")
		payments := []Payment{
			pay(t, "50.00", date(2024, 3, 20)),
			pay(t, "100.00", date(2024, 3, 10)),
		}

		Replay(payments, receivables, now)

		assert.Equal(t, ReceivableStatusPaid, receivables[0].Status)
		assert.True(t, receivables[1].PaidAmount.Equal(dec("50.00")))
	})

	t.Run("deleting a payment rolls installments back to pending", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00", "100.00")
		payments := []Payment{pay(t, "150.00", date(2024, 3, 10))}

		Replay(payments, receivables, now)
		require.Equal(t, ReceivableStatusPaid, receivables[0].Status)
		require.Equal(t, ReceivableStatusPartial, receivables[1].Status)

		Replay(nil, receivables, now)

		for _, r := range receivables {
			assert.Equal(t, ReceivableStatusPending, r.Status)
			assert.True(t, r.PaidAmount.IsZero())
			assert.Nil(t, r.PaidAt)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00")
		payments := []Payment{pay(t, "130.00", date(2024, 3, 10))}

		Replay(payments, receivables, now)
		first := []decimal.Decimal{receivables[0].PaidAmount, receivables[1].PaidAmount}

		Replay(payments, receivables, now)

		assert.True(t, receivables[0].PaidAmount.Equal(first[0]))
		assert.True(t, receivables[1].PaidAmount.Equal(first[1]))
	})

	t.Run("paying more never decreases installment paid amounts", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00", "100.00")
		payments := []Payment{pay(t, "60.00", date(2024, 3, 10))}

		Replay(payments, receivables, now)
		before := []decimal.Decimal{receivables[0].PaidAmount, receivables[1].PaidAmount}

		payments = append(payments, pay(t, "70.00", date(2024, 3, 15)))
		Replay(payments, receivables, now)

		assert.True(t, receivables[0].PaidAmount.GreaterThanOrEqual(before[0]))
		assert.True(t, receivables[1].PaidAmount.GreaterThanOrEqual(before[1]))
	})

	t.Run("reports overshoot from legacy imports", func(t *testing.T) {
		receivables := newSchedule(t, saleID, "100.00")
		payments := []Payment{pay(t, "120.00", date(2024, 3, 10))}

		remainder := Replay(payments, receivables, now)

		assert.True(t, remainder.Equal(dec("20.00")))
	})
}

func TestSumAllocated(t *testing.T) {
	now := date(2024, 4, 1)
	saleID := uuid.New()

	receivables := newSchedule(t, saleID, "100.00", "100.00", "100.00")
	receivables[0].Apply(dec("100.00"), now)
	receivables[1].Apply(dec("25.00"), now)
	receivables[2].Apply(dec("10.00"), now)
	receivables[2].Cancel(now)

	assert.True(t, SumAllocated(receivables).Equal(dec("125.00")))
}
