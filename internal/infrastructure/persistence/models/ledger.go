package models

import (
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	CustomerID             uuid.UUID         `gorm:"type:uuid;not null;index"`
	CustomerName           string            `gorm:"type:varchar(200);not null"`
	SaleDate               time.Time         `gorm:"not null;index"`
	Total                  decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	PaidAmount             decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TotalFees              decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	NetTotal               decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Status                 ledger.SaleStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	InstallmentPlan        int               `gorm:"not null;default:1"`
	FixedInstallmentAmount *decimal.Decimal  `gorm:"type:decimal(18,2)"`
	PaymentDay             int               `gorm:"not null"`
	CancelledAt            *time.Time
	CancelReason           string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *ledger.Sale {
	sale := &ledger.Sale{
		CustomerID:             m.CustomerID,
		CustomerName:           m.CustomerName,
		SaleDate:               m.SaleDate,
		Total:                  m.Total,
		PaidAmount:             m.PaidAmount,
		TotalFees:              m.TotalFees,
		NetTotal:               m.NetTotal,
		Status:                 m.Status,
		InstallmentPlan:        m.InstallmentPlan,
		FixedInstallmentAmount: m.FixedInstallmentAmount,
		PaymentDay:             m.PaymentDay,
		CancelledAt:            m.CancelledAt,
		CancelReason:           m.CancelReason,
	}
	m.PopulateAggregateRoot(&sale.BaseAggregateRoot)
	return sale
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(sale *ledger.Sale) {
	m.FromDomainAggregateRoot(sale.BaseAggregateRoot)
	m.CustomerID = sale.CustomerID
	m.CustomerName = sale.CustomerName
	m.SaleDate = sale.SaleDate
	m.Total = sale.Total
	m.PaidAmount = sale.PaidAmount
	m.TotalFees = sale.TotalFees
	m.NetTotal = sale.NetTotal
	m.Status = sale.Status
	m.InstallmentPlan = sale.InstallmentPlan
	m.FixedInstallmentAmount = sale.FixedInstallmentAmount
	m.PaymentDay = sale.PaymentDay
	m.CancelledAt = sale.CancelledAt
	m.CancelReason = sale.CancelReason
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(sale *ledger.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(sale)
	return m
}

// ReceivableModel is the persistence model for one installment.
// (sale_id, installment) is unique: a schedule never carries duplicates.
type ReceivableModel struct {
	BaseModel
	SaleID      uuid.UUID               `gorm:"type:uuid;not null;index;uniqueIndex:idx_receivable_sale_installment,priority:1"`
	Installment int                     `gorm:"not null;uniqueIndex:idx_receivable_sale_installment,priority:2"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	PaidAmount  decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	DueDate     time.Time               `gorm:"not null;index"`
	Status      ledger.ReceivableStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt      *time.Time
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to a domain Receivable.
func (m *ReceivableModel) ToDomain() *ledger.Receivable {
	return &ledger.Receivable{
		BaseEntity:  m.BaseModel.ToDomain(),
		SaleID:      m.SaleID,
		Installment: m.Installment,
		Amount:      m.Amount,
		PaidAmount:  m.PaidAmount,
		DueDate:     m.DueDate,
		Status:      m.Status,
		PaidAt:      m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Receivable.
func (m *ReceivableModel) FromDomain(r *ledger.Receivable) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.SaleID = r.SaleID
	m.Installment = r.Installment
	m.Amount = r.Amount
	m.PaidAmount = r.PaidAmount
	m.DueDate = r.DueDate
	m.Status = r.Status
	m.PaidAt = r.PaidAt
}

// ReceivableModelFromDomain creates a new persistence model from a domain Receivable.
func ReceivableModelFromDomain(r *ledger.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}

// PaymentModel is the persistence model for one recorded money receipt.
// There is deliberately no receivable_id column: allocations are recomputed
// by replay, never stored as a join.
type PaymentModel struct {
	BaseModel
	SaleID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	Method           ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	FeePercent       decimal.Decimal      `gorm:"type:decimal(8,4);not null;default:0"`
	FeeAmount        decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	FeeAbsorber      ledger.FeeAbsorber   `gorm:"type:varchar(20);not null;default:'SELLER'"`
	CardInstallments int                  `gorm:"not null;default:1"`
	PaidAt           time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		BaseEntity:       m.BaseModel.ToDomain(),
		SaleID:           m.SaleID,
		Method:           m.Method,
		Amount:           m.Amount,
		FeePercent:       m.FeePercent,
		FeeAmount:        m.FeeAmount,
		FeeAbsorber:      m.FeeAbsorber,
		CardInstallments: m.CardInstallments,
		PaidAt:           m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.SaleID = p.SaleID
	m.Method = p.Method
	m.Amount = p.Amount
	m.FeePercent = p.FeePercent
	m.FeeAmount = p.FeeAmount
	m.FeeAbsorber = p.FeeAbsorber
	m.CardInstallments = p.CardInstallments
	m.PaidAt = p.PaidAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// AllModels returns every ledger model for migrations and test setup
func AllModels() []any {
	return []any{
		&SaleModel{},
		&ReceivableModel{},
		&PaymentModel{},
	}
}
