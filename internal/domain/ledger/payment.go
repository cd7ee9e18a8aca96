package ledger

import (
	"sort"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodPix    PaymentMethod = "PIX"
	PaymentMethodDebit  PaymentMethod = "DEBIT"
	PaymentMethodCredit PaymentMethod = "CREDIT"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodPix, PaymentMethodDebit, PaymentMethodCredit:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// FeeAbsorber indicates who eats the card processor fee
type FeeAbsorber string

const (
	FeeAbsorberSeller FeeAbsorber = "SELLER"
	FeeAbsorberClient FeeAbsorber = "CLIENT"
)

// IsValid checks if the fee absorber is valid
func (f FeeAbsorber) IsValid() bool {
	return f == FeeAbsorberSeller || f == FeeAbsorberClient
}

// Payment represents one recorded money receipt against a Sale. Payments are
// not tied to a specific installment - allocation to installments is
// recomputed by replay (see Distribute/Replay), so fees and method always
// apply to the whole payment.
type Payment struct {
	shared.BaseEntity
	SaleID           uuid.UUID       `json:"sale_id"`
	Method           PaymentMethod   `json:"method"`
	Amount           decimal.Decimal `json:"amount"`
	FeePercent       decimal.Decimal `json:"fee_percent"`
	FeeAmount        decimal.Decimal `json:"fee_amount"`
	FeeAbsorber      FeeAbsorber     `json:"fee_absorber"`
	CardInstallments int             `json:"card_installments"` // Card processor installments, independent of receivables
	PaidAt           time.Time       `json:"paid_at"`
}

// NewPayment creates a payment for a sale. The fee amount is derived from the
// fee percent over the gross amount.
func NewPayment(
	saleID uuid.UUID,
	method PaymentMethod,
	amount valueobject.Money,
	feePercent decimal.Decimal,
	feeAbsorber FeeAbsorber,
	cardInstallments int,
	paidAt time.Time,
) (*Payment, error) {
	if saleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if feePercent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEE", "Fee percent cannot be negative")
	}
	if feeAbsorber == "" {
		feeAbsorber = FeeAbsorberSeller
	}
	if !feeAbsorber.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEE", "Fee absorber is not valid")
	}
	if cardInstallments < 1 {
		cardInstallments = 1
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return &Payment{
		BaseEntity:       shared.NewBaseEntity(),
		SaleID:           saleID,
		Method:           method,
		Amount:           amount.Amount(),
		FeePercent:       feePercent,
		FeeAmount:        amount.CalculatePercentage(feePercent).Round(2).Amount(),
		FeeAbsorber:      feeAbsorber,
		CardInstallments: cardInstallments,
		PaidAt:           paidAt,
	}, nil
}

// Update edits the mutable fields of a payment and re-derives the fee amount
func (p *Payment) Update(method PaymentMethod, amount valueobject.Money, feePercent decimal.Decimal, paidAt, now time.Time) error {
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if feePercent.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Fee percent cannot be negative")
	}
	p.Method = method
	p.Amount = amount.Amount()
	p.FeePercent = feePercent
	p.FeeAmount = amount.CalculatePercentage(feePercent).Round(2).Amount()
	if !paidAt.IsZero() {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = now
	return nil
}

// SellerFee returns the fee amount absorbed by the seller, zero when the
// client absorbs it
func (p *Payment) SellerFee() decimal.Decimal {
	if p.FeeAbsorber == FeeAbsorberSeller {
		return p.FeeAmount
	}
	return decimal.Zero
}

// SortPaymentsByPaidAt orders payments by paidAt ascending, breaking ties by
// creation time so replay is deterministic for same-instant payments
func SortPaymentsByPaidAt(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].PaidAt.Equal(payments[j].PaidAt) {
			return payments[i].PaidAt.Before(payments[j].PaidAt)
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
}

// SumPayments returns the total amount over the given payments
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
