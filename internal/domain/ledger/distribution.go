package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Distribute allocates a payment amount across the given receivables in
// installment order, filling each one up to its remaining amount before
// moving to the next. It mutates the receivables in place and returns the
// undistributed remainder, which is non-zero only when the amount exceeds the
// total remaining capacity of the schedule.
func Distribute(amount decimal.Decimal, receivables []*Receivable, now time.Time) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return amount
	}

	ordered := make([]*Receivable, len(receivables))
	copy(ordered, receivables)
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].Installment < ordered[b].Installment })

	remaining := amount
	for _, r := range ordered {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		applied := r.Apply(remaining, now)
		remaining = remaining.Sub(applied)
	}

	return remaining
}

// Replay rebuilds every receivable's allocation from scratch by zeroing all
// of them and re-distributing the full payment history in chronological
// order. It is the single source of truth after any payment edit or delete
// and the engine behind consistency repair; running it twice over the same
// inputs is a no-op.
//
// The undistributed remainder is returned; legacy-imported sales can carry
// payments that overshoot the schedule, and the caller decides whether that
// is an error or tolerated drift.
func Replay(payments []Payment, receivables []*Receivable, now time.Time) decimal.Decimal {
	for _, r := range receivables {
		r.ResetAllocation(now)
	}

	ordered := make([]Payment, len(payments))
	copy(ordered, payments)
	SortPaymentsByPaidAt(ordered)

	remaining := decimal.Zero
	for _, p := range ordered {
		remaining = remaining.Add(Distribute(p.Amount, receivables, now))
	}

	return remaining
}

// SumAllocated returns the total paid amount recorded across receivables,
// excluding cancelled installments.
func SumAllocated(receivables []*Receivable) decimal.Decimal {
	total := decimal.Zero
	for _, r := range receivables {
		if r.Status == ReceivableStatusCancelled {
			continue
		}
		total = total.Add(r.PaidAmount)
	}
	return total
}
