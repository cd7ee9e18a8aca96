package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImportService brings sales from the old notebook ledger into the system.
// Legacy rows carry a sale-level paid amount but no individual payment
// history, so the import can either distribute that amount over the
// generated installments right away or leave the schedule untouched for a
// later consistency repair pass.
type ImportService struct {
	uow    ledger.UnitOfWork
	clock  ledger.Clock
	logger *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(uow ledger.UnitOfWork, clock ledger.Clock, logger *zap.Logger) *ImportService {
	return &ImportService{uow: uow, clock: clock, logger: logger}
}

// ImportLegacySaleRequest carries one row from the old ledger
type ImportLegacySaleRequest struct {
	CustomerID      uuid.UUID
	CustomerName    string
	Total           decimal.Decimal
	PaidAmount      decimal.Decimal
	NumInstallments int
	PaymentDay      int
	SaleDate        time.Time
	// DistributeOnImport allocates the legacy paid amount over the
	// installments immediately. When false the schedule is left pristine
	// and the sale shows up in the next consistency repair preview.
	DistributeOnImport bool
}

// ImportLegacySale creates a sale with a pre-existing balance. The paid
// amount is trusted as-is; no payment rows are fabricated for it.
func (s *ImportService) ImportLegacySale(ctx context.Context, req ImportLegacySaleRequest) (*SaleWithSchedule, error) {
	now := s.clock.Now()

	if req.PaidAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Legacy paid amount cannot be negative")
	}
	if req.PaidAmount.GreaterThan(req.Total.Add(ledger.Tolerance)) {
		return nil, shared.NewDomainError("AMOUNT_EXCEEDS", "Legacy paid amount exceeds the sale total")
	}

	sale, err := ledger.NewSale(
		req.CustomerID,
		req.CustomerName,
		valueobject.NewMoney(req.Total),
		req.NumInstallments,
		req.PaymentDay,
		nil,
		req.SaleDate,
	)
	if err != nil {
		return nil, err
	}
	// The schedule mirrors the full total, exactly as the old system
	// wrote it; the legacy paid amount sits at the sale level until it is
	// distributed here or by a repair pass.
	receivables, err := ledger.GeneratePlan(sale, now)
	if err != nil {
		return nil, err
	}
	sale.PaidAmount = req.PaidAmount

	if req.DistributeOnImport && req.PaidAmount.GreaterThan(decimal.Zero) {
		ledger.Distribute(req.PaidAmount, receivables, now)
	}
	if sale.PaidAmount.GreaterThanOrEqual(sale.Total.Sub(ledger.Tolerance)) {
		sale.PromoteFromInstallments(dereference(receivables), now)
	}

	err = s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}
		return repos.Receivables.SaveAll(ctx, receivables)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported legacy sale",
		zap.String("sale_id", sale.ID.String()),
		zap.String("customer", sale.CustomerName),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("paid", sale.PaidAmount.StringFixed(2)),
		zap.Bool("distributed", req.DistributeOnImport))

	return &SaleWithSchedule{Sale: sale, Receivables: receivables}, nil
}
