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
)

// SaleService handles sale lifecycle: plan creation, rescheduling and
// cancellation. All mutations run inside a unit of work with the sale row
// locked, so concurrent payment registrations serialize per sale.
type SaleService struct {
	uow      ledger.UnitOfWork
	saleRepo ledger.SaleRepository
	recvRepo ledger.ReceivableRepository
	payRepo  ledger.PaymentRepository
	events   shared.EventPublisher
	clock    ledger.Clock
}

// NewSaleService creates a new SaleService
func NewSaleService(
	uow ledger.UnitOfWork,
	saleRepo ledger.SaleRepository,
	recvRepo ledger.ReceivableRepository,
	payRepo ledger.PaymentRepository,
	events shared.EventPublisher,
	clock ledger.Clock,
) *SaleService {
	return &SaleService{
		uow:      uow,
		saleRepo: saleRepo,
		recvRepo: recvRepo,
		payRepo:  payRepo,
		events:   events,
		clock:    clock,
	}
}

// CreateInstallmentPlanRequest carries the inputs for a new credit sale
type CreateInstallmentPlanRequest struct {
	CustomerID             uuid.UUID
	CustomerName           string
	Total                  decimal.Decimal
	PaidUpfront            decimal.Decimal
	NumInstallments        int
	PaymentDay             int
	FixedInstallmentAmount *decimal.Decimal
	UpfrontMethod          ledger.PaymentMethod
	SaleDate               time.Time
}

// SaleWithSchedule bundles a sale with its installments and payments
type SaleWithSchedule struct {
	Sale        *ledger.Sale         `json:"sale"`
	Receivables []*ledger.Receivable `json:"receivables"`
	Payments    []ledger.Payment     `json:"payments"`
}

// CreateInstallmentPlan creates a sale together with its installment
// schedule in one transaction. A positive upfront amount is recorded as a
// payment and distributed over the fresh schedule immediately.
func (s *SaleService) CreateInstallmentPlan(ctx context.Context, req CreateInstallmentPlanRequest) (*SaleWithSchedule, error) {
	now := s.clock.Now()

	sale, err := ledger.NewSale(
		req.CustomerID,
		req.CustomerName,
		valueobject.NewMoney(req.Total),
		req.NumInstallments,
		req.PaymentDay,
		req.FixedInstallmentAmount,
		req.SaleDate,
	)
	if err != nil {
		return nil, err
	}

	var payments []ledger.Payment
	if req.PaidUpfront.GreaterThan(decimal.Zero) {
		if req.PaidUpfront.GreaterThan(req.Total.Add(ledger.Tolerance)) {
			return nil, shared.NewDomainError("AMOUNT_EXCEEDS", "Upfront payment exceeds the sale total")
		}
		method := req.UpfrontMethod
		if method == "" {
			method = ledger.PaymentMethodCash
		}
		deposit, err := ledger.NewPayment(sale.ID, method, valueobject.NewMoney(req.PaidUpfront), decimal.Zero, ledger.FeeAbsorberSeller, 1, now)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *deposit)
	}

	// The schedule always mirrors the full total; the deposit is applied
	// to it by replay so installment allocations and the payment sum agree
	// from the start.
	receivables, err := ledger.GeneratePlan(sale, now)
	if err != nil {
		return nil, err
	}

	if len(payments) > 0 {
		ledger.Replay(payments, receivables, now)
	}
	asValues := dereference(receivables)
	sale.Reconcile(payments, asValues, now)

	err = s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}
		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}
		for i := range payments {
			if err := repos.Payments.Save(ctx, &payments[i]); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	return &SaleWithSchedule{Sale: sale, Receivables: receivables, Payments: payments}, nil
}

// RescheduleRequest shifts open installments to a new payment day
type RescheduleRequest struct {
	SaleID        uuid.UUID
	NewPaymentDay int
	NewStartDate  *time.Time
}

// RescheduleResult reports the outcome of a reschedule
type RescheduleResult struct {
	Sale             *ledger.Sale `json:"sale"`
	RescheduledCount int          `json:"rescheduled_count"`
}

// Reschedule moves every pending or partial installment of the sale to the
// new payment day. Paid and cancelled installments keep their dates.
func (s *SaleService) Reschedule(ctx context.Context, req RescheduleRequest) (*RescheduleResult, error) {
	now := s.clock.Now()
	anchor := now
	if req.NewStartDate != nil {
		anchor = *req.NewStartDate
	}

	var result *RescheduleResult
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		sale, err := repos.Sales.FindByIDForUpdate(ctx, req.SaleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError("INVALID_STATUS", "Cannot reschedule a cancelled sale")
		}

		receivables, err := repos.Receivables.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}

		open := 0
		for _, r := range receivables {
			if r.Status.CanReceivePayment() {
				open++
			}
		}
		if open == 0 {
			return shared.NewDomainError("NO_RECEIVABLES", "Sale has no open installments to reschedule")
		}

		if err := ledger.Reschedule(sale, receivables, req.NewPaymentDay, anchor, now); err != nil {
			return err
		}

		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}
		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}

		result = &RescheduleResult{Sale: sale, RescheduledCount: open}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Sale)

	return result, nil
}

// CancelSale cancels a sale and all of its open installments. Cancellation
// is terminal.
func (s *SaleService) CancelSale(ctx context.Context, saleID uuid.UUID, reason string) (*ledger.Sale, error) {
	now := s.clock.Now()

	var sale *ledger.Sale
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		sale, err = repos.Sales.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.Cancel(reason, now); err != nil {
			return err
		}

		receivables, err := repos.Receivables.FindBySale(ctx, saleID)
		if err != nil {
			return err
		}
		for _, r := range receivables {
			if r.Status.CanReceivePayment() {
				r.Cancel(now)
			}
		}

		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}
		return repos.Receivables.SaveAll(ctx, receivables)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	return sale, nil
}

// GetSale loads a sale with its installments and payments
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleWithSchedule, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	receivables, err := s.recvRepo.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payRepo.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleWithSchedule{Sale: sale, Receivables: receivables, Payments: payments}, nil
}

// ListSales returns a page of sales
func (s *SaleService) ListSales(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	return s.saleRepo.List(ctx, filter)
}

// ListSalesByCustomer returns a page of one customer's sales
func (s *SaleService) ListSalesByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	return s.saleRepo.FindByCustomer(ctx, customerID, filter)
}

// ListOverdueReceivables returns installments past due as of the current clock
func (s *SaleService) ListOverdueReceivables(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.Receivable], error) {
	return s.recvRepo.FindOverdue(ctx, s.clock.Now(), filter)
}

func (s *SaleService) publishEvents(ctx context.Context, sale *ledger.Sale) {
	if s.events == nil {
		return
	}
	// Event delivery is best effort; ledger state is already committed.
	_ = s.events.Publish(ctx, sale.GetDomainEvents()...)
	sale.ClearDomainEvents()
}

func dereference(receivables []*ledger.Receivable) []ledger.Receivable {
	out := make([]ledger.Receivable, 0, len(receivables))
	for _, r := range receivables {
		out = append(out, *r)
	}
	return out
}
