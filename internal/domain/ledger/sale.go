package ledger

import (
	"fmt"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"   // Outstanding balance > 0
	SaleStatusCompleted SaleStatus = "COMPLETED" // Fully paid
	SaleStatusCancelled SaleStatus = "CANCELLED" // Terminal, no further mutations
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// Sale represents one credit or cash transaction. It is the aggregate root
// that exclusively owns its Receivables (installments) and Payments; those
// collections are loaded and persisted alongside the sale inside a single
// transaction by the application layer.
type Sale struct {
	shared.BaseAggregateRoot
	CustomerID             uuid.UUID        `json:"customer_id"`
	CustomerName           string           `json:"customer_name"`
	SaleDate               time.Time        `json:"sale_date"`
	Total                  decimal.Decimal  `json:"total"`       // Fixed at creation
	PaidAmount             decimal.Decimal  `json:"paid_amount"` // Derived from payments
	TotalFees              decimal.Decimal  `json:"total_fees"`  // Derived, seller-absorbed fees
	NetTotal               decimal.Decimal  `json:"net_total"`   // total - totalFees
	Status                 SaleStatus       `json:"status"`
	InstallmentPlan        int              `json:"installment_plan"` // Number of installments, >= 1
	FixedInstallmentAmount *decimal.Decimal `json:"fixed_installment_amount,omitempty"`
	PaymentDay             int              `json:"payment_day"` // Day of month installments fall due, 1..31
	CancelledAt            *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason           string           `json:"cancel_reason,omitempty"`
}

// NewSale creates a new pending sale
func NewSale(
	customerID uuid.UUID,
	customerName string,
	total valueobject.Money,
	installmentPlan int,
	paymentDay int,
	fixedInstallmentAmount *decimal.Decimal,
	saleDate time.Time,
) (*Sale, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sale total must be positive")
	}
	if installmentPlan < 1 {
		installmentPlan = 1
	}
	if paymentDay < 1 || paymentDay > 31 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 31")
	}
	if fixedInstallmentAmount != nil && fixedInstallmentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fixed installment amount must be positive")
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	s := &Sale{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		CustomerID:             customerID,
		CustomerName:           customerName,
		SaleDate:               saleDate,
		Total:                  total.Amount(),
		PaidAmount:             decimal.Zero,
		TotalFees:              decimal.Zero,
		NetTotal:               total.Amount(),
		Status:                 SaleStatusPending,
		InstallmentPlan:        installmentPlan,
		PaymentDay:             paymentDay,
		FixedInstallmentAmount: fixedInstallmentAmount,
	}

	s.AddDomainEvent(NewSaleCreatedEvent(s))

	return s, nil
}

// Outstanding returns the unpaid portion of the sale total
func (s *Sale) Outstanding() decimal.Decimal {
	return s.Total.Sub(s.PaidAmount)
}

// IsCancelled returns true if the sale is cancelled
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// IsCompleted returns true if the sale is fully paid
func (s *Sale) IsCompleted() bool {
	return s.Status == SaleStatusCompleted
}

// CanAcceptPayment returns an error when the sale cannot take more money
func (s *Sale) CanAcceptPayment(amount valueobject.Money) error {
	if s.IsCancelled() {
		return shared.NewDomainError("SALE_CANCELLED", "Cannot register payments on a cancelled sale")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(s.Outstanding().Add(Tolerance)) {
		return shared.NewDomainError("AMOUNT_EXCEEDS", fmt.Sprintf(
			"Payment amount %s exceeds outstanding balance %s",
			amount.Amount().StringFixed(2), s.Outstanding().StringFixed(2)))
	}
	return nil
}

// Reconcile recomputes the sale's derived fields from the authoritative set
// of payments and receivables. It must run inside the same transaction as the
// payment/receivable mutation that triggered it.
//
// The status is COMPLETED when the payment sum covers the total, or when
// every receivable is PAID (a sale with zero receivables, e.g. a cash sale,
// relies solely on the payment-sum check). CANCELLED is never overwritten.
func (s *Sale) Reconcile(payments []Payment, receivables []Receivable, now time.Time) {
	s.PaidAmount = SumPayments(payments)

	fees := decimal.Zero
	for _, p := range payments {
		fees = fees.Add(p.SellerFee())
	}
	s.TotalFees = fees
	s.NetTotal = s.Total.Sub(fees)

	if s.Status != SaleStatusCancelled {
		previous := s.Status
		if s.isFullyPaid() || s.allReceivablesPaid(receivables) {
			s.Status = SaleStatusCompleted
		} else {
			s.Status = SaleStatusPending
		}
		if previous != s.Status && s.Status == SaleStatusCompleted {
			s.AddDomainEvent(NewSaleCompletedEvent(s))
		}
	}

	s.AddDomainEvent(NewSaleBalanceChangedEvent(s))
	s.UpdatedAt = now
	s.IncrementVersion()
}

func (s *Sale) isFullyPaid() bool {
	return s.PaidAmount.GreaterThanOrEqual(s.Total.Sub(Tolerance))
}

func (s *Sale) allReceivablesPaid(receivables []Receivable) bool {
	active := 0
	for _, r := range receivables {
		if r.Status == ReceivableStatusCancelled {
			continue
		}
		active++
		if r.Status != ReceivableStatusPaid {
			return false
		}
	}
	if active == 0 {
		return s.isFullyPaid()
	}
	return true
}

// PromoteFromInstallments raises the sale to COMPLETED when every active
// installment is paid, leaving PaidAmount untouched. Consistency repair uses
// it for legacy-imported sales that carry a paid amount without matching
// payment rows, where Reconcile would wrongly zero the figure.
func (s *Sale) PromoteFromInstallments(receivables []Receivable, now time.Time) {
	if s.Status == SaleStatusCancelled || len(receivables) == 0 {
		return
	}
	if s.allReceivablesPaid(receivables) {
		s.Status = SaleStatusCompleted
		s.AddDomainEvent(NewSaleCompletedEvent(s))
	}
	s.UpdatedAt = now
	s.IncrementVersion()
}

// Cancel marks the sale as cancelled. Cancellation is terminal; payments and
// receivables of a cancelled sale can no longer be mutated.
func (s *Sale) Cancel(reason string, now time.Time) error {
	if s.IsCancelled() {
		return shared.NewDomainError("INVALID_STATUS", "Sale is already cancelled")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCancelledEvent(s))

	return nil
}

// SetPaymentDay updates the day of month installments fall due
func (s *Sale) SetPaymentDay(paymentDay int, now time.Time) error {
	if paymentDay < 1 || paymentDay > 31 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 31")
	}
	s.PaymentDay = paymentDay
	s.UpdatedAt = now
	s.IncrementVersion()
	return nil
}
