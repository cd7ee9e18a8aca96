package persistence

import (
	"context"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormUnitOfWork runs a function against transaction-scoped repositories.
// Any error returned by the function rolls the whole transaction back.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a database transaction
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := ledger.Repositories{
			Sales:       NewGormSaleRepository(tx),
			Receivables: NewGormReceivableRepository(tx),
			Payments:    NewGormPaymentRepository(tx),
		}
		return fn(repos)
	})
}
