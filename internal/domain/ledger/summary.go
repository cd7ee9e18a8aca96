package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerSummary aggregates one customer's open credit position
type CustomerSummary struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	OpenSales    int             `json:"open_sales"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	OverdueCount int             `json:"overdue_count"`
	OverdueTotal decimal.Decimal `json:"overdue_total"`
	NextDueDate  *time.Time      `json:"next_due_date,omitempty"`
}

// GlobalSummary aggregates the whole ledger's open position
type GlobalSummary struct {
	OpenSales    int             `json:"open_sales"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	OverdueCount int             `json:"overdue_count"`
	OverdueTotal decimal.Decimal `json:"overdue_total"`
}

// SummaryReader aggregates ledger figures straight from storage. The
// queries are plain and synchronous; caching wraps them at the boundary.
type SummaryReader interface {
	CustomerSummary(ctx context.Context, customerID uuid.UUID, asOf time.Time) (*CustomerSummary, error)
	GlobalSummary(ctx context.Context, asOf time.Time) (*GlobalSummary, error)
}
