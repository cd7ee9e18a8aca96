package persistence

import (
	"context"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSummaryReader computes ledger summaries with aggregate queries so the
// totals never depend on loading whole sales into memory.
type GormSummaryReader struct {
	db *gorm.DB
}

// NewGormSummaryReader creates a new GormSummaryReader
func NewGormSummaryReader(db *gorm.DB) *GormSummaryReader {
	return &GormSummaryReader{db: db}
}

type saleTotalsRow struct {
	OpenSales   int64
	Outstanding decimal.Decimal
}

type overdueRow struct {
	OverdueCount int64
	OverdueTotal decimal.Decimal
}

// CustomerSummary returns one customer's open balance and overdue position
func (r *GormSummaryReader) CustomerSummary(ctx context.Context, customerID uuid.UUID, asOf time.Time) (*ledger.CustomerSummary, error) {
	var totals saleTotalsRow
	err := r.db.WithContext(ctx).
		Table("sales").
		Select("COUNT(*) AS open_sales, COALESCE(SUM(total - paid_amount), 0) AS outstanding").
		Where("customer_id = ? AND status = ?", customerID, ledger.SaleStatusPending).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var overdue overdueRow
	err = r.overdueQuery(ctx, asOf).
		Where("sales.customer_id = ?", customerID).
		Scan(&overdue).Error
	if err != nil {
		return nil, err
	}

	nextDue, err := r.nextDueDate(ctx, &customerID, asOf)
	if err != nil {
		return nil, err
	}

	return &ledger.CustomerSummary{
		CustomerID:   customerID,
		OpenSales:    int(totals.OpenSales),
		Outstanding:  totals.Outstanding,
		OverdueCount: int(overdue.OverdueCount),
		OverdueTotal: overdue.OverdueTotal,
		NextDueDate:  nextDue,
	}, nil
}

// GlobalSummary returns the whole ledger's open balance and overdue position
func (r *GormSummaryReader) GlobalSummary(ctx context.Context, asOf time.Time) (*ledger.GlobalSummary, error) {
	var totals saleTotalsRow
	err := r.db.WithContext(ctx).
		Table("sales").
		Select("COUNT(*) AS open_sales, COALESCE(SUM(total - paid_amount), 0) AS outstanding").
		Where("status = ?", ledger.SaleStatusPending).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var overdue overdueRow
	if err := r.overdueQuery(ctx, asOf).Scan(&overdue).Error; err != nil {
		return nil, err
	}

	return &ledger.GlobalSummary{
		OpenSales:    int(totals.OpenSales),
		Outstanding:  totals.Outstanding,
		OverdueCount: int(overdue.OverdueCount),
		OverdueTotal: overdue.OverdueTotal,
	}, nil
}

func (r *GormSummaryReader) overdueQuery(ctx context.Context, asOf time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("receivables").
		Select("COUNT(*) AS overdue_count, COALESCE(SUM(receivables.amount - receivables.paid_amount), 0) AS overdue_total").
		Joins("JOIN sales ON sales.id = receivables.sale_id").
		Where("receivables.status IN ?", []ledger.ReceivableStatus{ledger.ReceivableStatusPending, ledger.ReceivableStatusPartial}).
		Where("receivables.due_date < ?", asOf).
		Where("sales.status <> ?", ledger.SaleStatusCancelled)
}

func (r *GormSummaryReader) nextDueDate(ctx context.Context, customerID *uuid.UUID, asOf time.Time) (*time.Time, error) {
	query := r.db.WithContext(ctx).
		Table("receivables").
		Select("MIN(receivables.due_date) AS next_due").
		Joins("JOIN sales ON sales.id = receivables.sale_id").
		Where("receivables.status IN ?", []ledger.ReceivableStatus{ledger.ReceivableStatusPending, ledger.ReceivableStatusPartial}).
		Where("receivables.due_date >= ?", asOf).
		Where("sales.status <> ?", ledger.SaleStatusCancelled)
	if customerID != nil {
		query = query.Where("sales.customer_id = ?", *customerID)
	}

	var row struct {
		NextDue *time.Time
	}
	if err := query.Scan(&row).Error; err != nil {
		return nil, err
	}
	return row.NextDue, nil
}
