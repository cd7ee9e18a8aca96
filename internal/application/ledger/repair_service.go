package ledger

import (
	"context"
	"fmt"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RepairService detects and fixes sales whose recorded paid amount disagrees
// with the sum of their installments' paid amounts. The drift comes from
// legacy imports that wrote the sale-level figure without distributing to
// installments.
//
// The routine is idempotent: a repaired sale is skipped by the consistency
// check on the next run, so applying twice in a row is a no-op.
type RepairService struct {
	uow      ledger.UnitOfWork
	saleRepo ledger.SaleRepository
	recvRepo ledger.ReceivableRepository
	logger   *zap.Logger
}

// NewRepairService creates a new RepairService
func NewRepairService(uow ledger.UnitOfWork, saleRepo ledger.SaleRepository, recvRepo ledger.ReceivableRepository, logger *zap.Logger) *RepairService {
	return &RepairService{uow: uow, saleRepo: saleRepo, recvRepo: recvRepo, logger: logger}
}

// RepairCandidate describes one inconsistent sale before any change
type RepairCandidate struct {
	SaleID               uuid.UUID       `json:"sale_id"`
	CustomerName         string          `json:"customer_name"`
	SalePaidAmount       decimal.Decimal `json:"sale_paid_amount"`
	ReceivablesPaidTotal decimal.Decimal `json:"receivables_paid_total"`
	Difference           decimal.Decimal `json:"difference"`
}

// RepairDiff records the before/after state of one repaired sale
type RepairDiff struct {
	SaleID            uuid.UUID       `json:"sale_id"`
	PaidBefore        decimal.Decimal `json:"receivables_paid_before"`
	PaidAfter         decimal.Decimal `json:"receivables_paid_after"`
	StatusBefore      string          `json:"status_before"`
	StatusAfter       string          `json:"status_after"`
	InstallmentsMoved int             `json:"installments_moved"`
}

// RepairError records a sale the batch could not fix
type RepairError struct {
	SaleID uuid.UUID `json:"sale_id"`
	Error  string    `json:"error"`
}

// RepairResult summarizes one apply pass
type RepairResult struct {
	Fixed   int           `json:"fixed"`
	Skipped int           `json:"skipped"`
	Errors  []RepairError `json:"errors"`
	Diffs   []RepairDiff  `json:"diffs"`
}

// PreviewRepairs returns the inconsistent sales without mutating anything
func (s *RepairService) PreviewRepairs(ctx context.Context) ([]RepairCandidate, error) {
	ids, err := s.saleRepo.FindInconsistent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for inconsistent sales: %w", err)
	}

	candidates := make([]RepairCandidate, 0, len(ids))
	for _, id := range ids {
		sale, err := s.saleRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		receivables, err := s.recvRepo.FindBySale(ctx, id)
		if err != nil {
			return nil, err
		}
		allocated := ledger.SumAllocated(receivables)
		candidates = append(candidates, RepairCandidate{
			SaleID:               id,
			CustomerName:         sale.CustomerName,
			SalePaidAmount:       sale.PaidAmount,
			ReceivablesPaidTotal: allocated,
			Difference:           sale.PaidAmount.Sub(allocated),
		})
	}

	return candidates, nil
}

// ApplyRepairs redistributes the sale-level paid amount over the
// installments of every inconsistent sale. One bad sale does not abort the
// batch; it is reported in the result and the pass continues.
func (s *RepairService) ApplyRepairs(ctx context.Context) (*RepairResult, error) {
	ids, err := s.saleRepo.FindInconsistent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for inconsistent sales: %w", err)
	}

	result := &RepairResult{}
	for _, id := range ids {
		diff, err := s.repairSale(ctx, id)
		if err != nil {
			s.logger.Warn("repair failed for sale",
				zap.String("sale_id", id.String()),
				zap.Error(err))
			result.Errors = append(result.Errors, RepairError{SaleID: id, Error: err.Error()})
			continue
		}
		if diff == nil {
			result.Skipped++
			continue
		}
		result.Fixed++
		result.Diffs = append(result.Diffs, *diff)
	}

	s.logger.Info("consistency repair pass finished",
		zap.Int("fixed", result.Fixed),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// repairSale fixes a single sale inside its own transaction. Returns nil
// when the sale turned out to be consistent already.
func (s *RepairService) repairSale(ctx context.Context, saleID uuid.UUID) (*RepairDiff, error) {
	var diff *RepairDiff
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		sale, err := repos.Sales.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != ledger.SaleStatusPending || !sale.PaidAmount.GreaterThan(decimal.Zero) {
			return nil
		}

		receivables, err := repos.Receivables.FindBySale(ctx, saleID)
		if err != nil {
			return err
		}

		allocatedBefore := ledger.SumAllocated(receivables)
		if sale.PaidAmount.Sub(allocatedBefore).Abs().LessThan(ledger.Tolerance) {
			return nil
		}

		// Legacy rows carry no individually recoverable payment
		// timestamps, so the sale's creation time stamps any resulting
		// PAID transition.
		for _, r := range receivables {
			r.ResetAllocation(sale.CreatedAt)
		}
		ledger.Distribute(sale.PaidAmount, receivables, sale.CreatedAt)

		statusBefore := sale.Status
		sale.PromoteFromInstallments(dereference(receivables), sale.CreatedAt)

		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}

		moved := 0
		for _, r := range receivables {
			if !r.PaidAmount.IsZero() {
				moved++
			}
		}
		diff = &RepairDiff{
			SaleID:            saleID,
			PaidBefore:        allocatedBefore,
			PaidAfter:         ledger.SumAllocated(receivables),
			StatusBefore:      statusBefore.String(),
			StatusAfter:       sale.Status.String(),
			InstallmentsMoved: moved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return diff, nil
}
