package ledger

import (
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventTypeSaleCreated        = "ledger.sale.created"
	EventTypeSaleCompleted      = "ledger.sale.completed"
	EventTypeSaleCancelled      = "ledger.sale.cancelled"
	EventTypeSaleBalanceChanged = "ledger.sale.balance_changed"
	EventTypeReceivablePaid     = "ledger.receivable.paid"
)

// SaleCreatedEvent is published when a new sale enters the ledger
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID      uuid.UUID `json:"customer_id"`
	Total           string    `json:"total"`
	InstallmentPlan int       `json:"installment_plan"`
}

func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, "Sale", sale.ID),
		CustomerID:      sale.CustomerID,
		Total:           sale.Total.StringFixed(2),
		InstallmentPlan: sale.InstallmentPlan,
	}
}

// SaleCompletedEvent is published when a sale becomes fully paid
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	PaidAmount string    `json:"paid_amount"`
}

func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, "Sale", sale.ID),
		CustomerID:      sale.CustomerID,
		PaidAmount:      sale.PaidAmount.StringFixed(2),
	}
}

// SaleCancelledEvent is published when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason"`
}

func NewSaleCancelledEvent(sale *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, "Sale", sale.ID),
		CustomerID:      sale.CustomerID,
		Reason:          sale.CancelReason,
	}
}

// SaleBalanceChangedEvent is published whenever the sale's derived amounts are
// recomputed. Consumers such as the summary cache use it to invalidate state
// keyed by sale or customer.
type SaleBalanceChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID `json:"customer_id"`
	PaidAmount  string    `json:"paid_amount"`
	Outstanding string    `json:"outstanding"`
	Status      string    `json:"status"`
}

func NewSaleBalanceChangedEvent(sale *Sale) *SaleBalanceChangedEvent {
	return &SaleBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleBalanceChanged, "Sale", sale.ID),
		CustomerID:      sale.CustomerID,
		PaidAmount:      sale.PaidAmount.StringFixed(2),
		Outstanding:     sale.Outstanding().StringFixed(2),
		Status:          sale.Status.String(),
	}
}

// ReceivablePaidEvent is published when an installment reaches PAID
type ReceivablePaidEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID `json:"sale_id"`
	Installment int       `json:"installment"`
	Amount      string    `json:"amount"`
}

func NewReceivablePaidEvent(receivable *Receivable) *ReceivablePaidEvent {
	return &ReceivablePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivablePaid, "Receivable", receivable.ID),
		SaleID:          receivable.SaleID,
		Installment:     receivable.Installment,
		Amount:          receivable.Amount.StringFixed(2),
	}
}
