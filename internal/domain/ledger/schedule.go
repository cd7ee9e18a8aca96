package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var oneCent = decimal.New(1, -2)

// GeneratePlan builds the installment schedule for a sale's current
// outstanding balance. Any existing schedule must be discarded by the caller
// before persisting the result.
//
// Amounts are truncated to whole cents; the last installment absorbs the
// rounding remainder so the schedule always sums to the outstanding balance.
// A non-positive outstanding balance yields an empty schedule.
func GeneratePlan(sale *Sale, now time.Time) ([]*Receivable, error) {
	outstanding := sale.Outstanding()
	if outstanding.LessThanOrEqual(decimal.Zero) {
		return []*Receivable{}, nil
	}

	n := sale.InstallmentPlan
	if n < 1 {
		n = 1
	}

	var base decimal.Decimal
	if sale.FixedInstallmentAmount != nil {
		base = sale.FixedInstallmentAmount.Truncate(2)
	} else {
		base = outstanding.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	}

	last := outstanding.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))
	if last.LessThan(oneCent) {
		last = oneCent
	}

	receivables := make([]*Receivable, 0, n)
	for i := 1; i <= n; i++ {
		amount := base
		if i == n {
			amount = last
		}
		due := installmentDueDate(sale.SaleDate, sale.PaymentDay, i)
		r, err := NewReceivable(sale.ID, i, amount, due)
		if err != nil {
			return nil, err
		}
		r.CreatedAt = now
		r.UpdatedAt = now
		receivables = append(receivables, r)
	}

	return receivables, nil
}

// installmentDueDate computes the due date for installment number i (1-based)
// counted from startDate. When the start day has already reached the payment
// day, the whole schedule shifts one month forward so the first installment
// never falls due in the month of the sale. The payment day is clamped to the
// last day of shorter months.
func installmentDueDate(startDate time.Time, paymentDay int, i int) time.Time {
	monthOffset := i
	if startDate.Day() >= paymentDay {
		monthOffset++
	}

	year, month := startDate.Year(), int(startDate.Month())+monthOffset-1
	year += month / 12
	month = month % 12
	if month == 0 {
		month = 12
		year--
	}

	day := paymentDay
	if max := daysInMonth(year, time.Month(month)); day > max {
		day = max
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, startDate.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Reschedule shifts every open installment of the sale to the new payment
// day, preserving the one-month spacing of the original schedule. Paid and
// cancelled installments keep their dates. The first open installment is
// anchored at the same rule used for new plans, counted from anchorDate.
func Reschedule(sale *Sale, receivables []*Receivable, newPaymentDay int, anchorDate time.Time, now time.Time) error {
	if err := sale.SetPaymentDay(newPaymentDay, now); err != nil {
		return err
	}

	open := make([]*Receivable, 0, len(receivables))
	for _, r := range receivables {
		if r.Status == ReceivableStatusPending || r.Status == ReceivableStatusPartial {
			open = append(open, r)
		}
	}
	sort.Slice(open, func(a, b int) bool { return open[a].Installment < open[b].Installment })

	for i, r := range open {
		due := installmentDueDate(anchorDate, newPaymentDay, i+1)
		if err := r.Reschedule(due, now); err != nil {
			return err
		}
	}

	return nil
}
