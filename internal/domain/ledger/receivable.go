package ledger

import (
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tolerance absorbs rounding drift in decimal comparisons. Money is stored as
// exact decimals, so the tolerance only matters at boundaries where
// legacy-imported data may carry genuine rounding artifacts.
var Tolerance = decimal.New(1, -2) // 0.01

// ReceivableStatus represents the status of an installment receivable
type ReceivableStatus string

const (
	ReceivableStatusPending   ReceivableStatus = "PENDING"   // Nothing paid yet
	ReceivableStatusPartial   ReceivableStatus = "PARTIAL"   // Partially paid, 0 < paid < amount
	ReceivableStatusPaid      ReceivableStatus = "PAID"      // Fully paid
	ReceivableStatusCancelled ReceivableStatus = "CANCELLED" // Cancelled with the sale
)

// IsValid checks if the status is a valid ReceivableStatus
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusPending, ReceivableStatusPartial, ReceivableStatusPaid, ReceivableStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReceivableStatus
func (s ReceivableStatus) String() string {
	return string(s)
}

// CanReceivePayment returns true if money can still be allocated to this status
func (s ReceivableStatus) CanReceivePayment() bool {
	return s == ReceivableStatusPending || s == ReceivableStatusPartial
}

// Receivable represents one installment due from a client for a given Sale.
// The full set for a sale is created together at plan-generation time with
// sequential installment numbers 1..N; installments are never created
// individually afterward and only die with the sale.
type Receivable struct {
	shared.BaseEntity
	SaleID      uuid.UUID        `json:"sale_id"`
	Installment int              `json:"installment"` // 1-based sequence number, unique per sale
	Amount      decimal.Decimal  `json:"amount"`      // Fixed at plan-generation time
	PaidAmount  decimal.Decimal  `json:"paid_amount"`
	DueDate     time.Time        `json:"due_date"`
	Status      ReceivableStatus `json:"status"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
}

// NewReceivable creates a pending installment for a sale
func NewReceivable(saleID uuid.UUID, installment int, amount decimal.Decimal, dueDate time.Time) (*Receivable, error) {
	if saleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}
	if installment < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT", "Installment number must be >= 1")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment amount must be positive")
	}
	return &Receivable{
		BaseEntity:  shared.NewBaseEntity(),
		SaleID:      saleID,
		Installment: installment,
		Amount:      amount,
		PaidAmount:  decimal.Zero,
		DueDate:     dueDate,
		Status:      ReceivableStatusPending,
	}, nil
}

// StatusForPaidAmount derives the installment status from its paid amount.
// Status is a pure function of paidAmount vs amount.
func StatusForPaidAmount(paidAmount, amount decimal.Decimal) ReceivableStatus {
	switch {
	case paidAmount.GreaterThanOrEqual(amount.Sub(Tolerance)):
		return ReceivableStatusPaid
	case paidAmount.GreaterThan(decimal.Zero):
		return ReceivableStatusPartial
	default:
		return ReceivableStatusPending
	}
}

// Remaining returns the unpaid portion of the installment
func (r *Receivable) Remaining() decimal.Decimal {
	return r.Amount.Sub(r.PaidAmount)
}

// setPaidAmount updates the paid amount and recomputes status and PaidAt.
// PaidAt is set only when the installment becomes PAID and cleared otherwise.
func (r *Receivable) setPaidAmount(paidAmount decimal.Decimal, now time.Time) {
	r.PaidAmount = paidAmount
	r.Status = StatusForPaidAmount(paidAmount, r.Amount)
	if r.Status == ReceivableStatusPaid {
		paidAt := now
		r.PaidAt = &paidAt
	} else {
		r.PaidAt = nil
	}
	r.UpdatedAt = now
}

// Apply allocates money to this installment, capped at its remaining balance.
// Returns the amount actually applied.
func (r *Receivable) Apply(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if !r.Status.CanReceivePayment() || amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	applied := decimal.Min(amount, r.Remaining())
	r.setPaidAmount(r.PaidAmount.Add(applied), now)
	return applied
}

// ResetAllocation zeroes the paid amount ahead of a distribution replay
func (r *Receivable) ResetAllocation(now time.Time) {
	if r.Status == ReceivableStatusCancelled {
		return
	}
	r.setPaidAmount(decimal.Zero, now)
}

// Cancel marks the installment as cancelled. Only called when the owning
// sale is cancelled.
func (r *Receivable) Cancel(now time.Time) {
	r.Status = ReceivableStatusCancelled
	r.UpdatedAt = now
}

// Reschedule shifts only the due date; amount and paid amount are preserved
func (r *Receivable) Reschedule(dueDate time.Time, now time.Time) error {
	if !r.Status.CanReceivePayment() {
		return shared.NewDomainError("INVALID_STATUS", "Only pending or partial installments can be rescheduled")
	}
	r.DueDate = dueDate
	r.UpdatedAt = now
	return nil
}

// IsOverdue returns true if the installment is past due and not settled.
// OVERDUE is a derived, client-facing status and is never stored.
func (r *Receivable) IsOverdue(now time.Time) bool {
	if !r.Status.CanReceivePayment() {
		return false
	}
	return r.DueDate.Before(now)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (r *Receivable) DaysOverdue(now time.Time) int {
	if !r.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(r.DueDate).Hours() / 24)
}
