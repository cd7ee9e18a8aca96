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

// PaymentService registers, edits and removes payments and keeps the sale
// and its installments consistent after every mutation. Each operation locks
// the sale row for the duration of the transaction.
type PaymentService struct {
	uow    ledger.UnitOfWork
	events shared.EventPublisher
	clock  ledger.Clock
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(uow ledger.UnitOfWork, events shared.EventPublisher, clock ledger.Clock) *PaymentService {
	return &PaymentService{uow: uow, events: events, clock: clock}
}

// RegisterPaymentRequest records money received against a sale
type RegisterPaymentRequest struct {
	SaleID           uuid.UUID
	Amount           decimal.Decimal
	Method           ledger.PaymentMethod
	FeePercent       decimal.Decimal
	FeeAbsorber      ledger.FeeAbsorber
	CardInstallments int
	PaidAt           *time.Time
}

// RegisterSalePayment records a payment against the sale and allocates it
// across open installments first to last. Fails with AMOUNT_EXCEEDS when the
// amount is larger than the outstanding balance beyond tolerance; nothing is
// persisted in that case.
func (s *PaymentService) RegisterSalePayment(ctx context.Context, req RegisterPaymentRequest) (*SaleWithSchedule, error) {
	now := s.clock.Now()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	var result *SaleWithSchedule
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		sale, err := repos.Sales.FindByIDForUpdate(ctx, req.SaleID)
		if err != nil {
			return err
		}
		if err := sale.CanAcceptPayment(valueobject.NewMoney(req.Amount)); err != nil {
			return err
		}

		payment, err := ledger.NewPayment(sale.ID, req.Method, valueobject.NewMoney(req.Amount), req.FeePercent, req.FeeAbsorber, req.CardInstallments, paidAt)
		if err != nil {
			return err
		}

		receivables, err := repos.Receivables.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		ledger.Distribute(payment.Amount, receivables, now)

		payments, err := repos.Payments.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		payments = append(payments, *payment)
		sale.Reconcile(payments, dereference(receivables), now)

		if err := repos.Payments.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}

		result = &SaleWithSchedule{Sale: sale, Receivables: receivables, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Sale)

	return result, nil
}

// RegisterReceivablePayment records a payment aimed at one specific
// installment. The amount may not exceed that installment's remaining
// balance. Later payment edits replay allocations first to last, so the
// targeting is a convenience for the counter operator, not a stored link.
func (s *PaymentService) RegisterReceivablePayment(ctx context.Context, receivableID uuid.UUID, req RegisterPaymentRequest) (*SaleWithSchedule, error) {
	now := s.clock.Now()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	var result *SaleWithSchedule
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		receivable, err := repos.Receivables.FindByID(ctx, receivableID)
		if err != nil {
			return err
		}

		sale, err := repos.Sales.FindByIDForUpdate(ctx, receivable.SaleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError("SALE_CANCELLED", "Cannot register payments on a cancelled sale")
		}
		if !receivable.Status.CanReceivePayment() {
			return shared.NewDomainError("RECEIVABLE_NOT_PAYABLE", "Installment is already settled or cancelled")
		}
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
		}
		if req.Amount.GreaterThan(receivable.Remaining().Add(ledger.Tolerance)) {
			return shared.NewDomainError("AMOUNT_EXCEEDS", fmt.Sprintf(
				"Payment amount %s exceeds the installment's remaining balance %s",
				req.Amount.StringFixed(2), receivable.Remaining().StringFixed(2)))
		}

		payment, err := ledger.NewPayment(sale.ID, req.Method, valueobject.NewMoney(req.Amount), req.FeePercent, req.FeeAbsorber, req.CardInstallments, paidAt)
		if err != nil {
			return err
		}
		receivable.Apply(payment.Amount, now)

		receivables, err := repos.Receivables.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		for i, r := range receivables {
			if r.ID == receivable.ID {
				receivables[i] = receivable
			}
		}

		payments, err := repos.Payments.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		payments = append(payments, *payment)
		sale.Reconcile(payments, dereference(receivables), now)

		if err := repos.Payments.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := repos.Receivables.Save(ctx, receivable); err != nil {
			return fmt.Errorf("failed to save receivable: %w", err)
		}
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}

		result = &SaleWithSchedule{Sale: sale, Receivables: receivables, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Sale)

	return result, nil
}

// UpdatePaymentRequest edits an existing payment
type UpdatePaymentRequest struct {
	PaymentID  uuid.UUID
	Amount     decimal.Decimal
	Method     ledger.PaymentMethod
	FeePercent decimal.Decimal
	PaidAt     *time.Time
}

// UpdatePayment edits a payment and replays the full payment history over
// the sale's installments so allocations stay first-to-last consistent.
func (s *PaymentService) UpdatePayment(ctx context.Context, req UpdatePaymentRequest) (*SaleWithSchedule, error) {
	now := s.clock.Now()

	var result *SaleWithSchedule
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		payment, err := repos.Payments.FindByID(ctx, req.PaymentID)
		if err != nil {
			return err
		}

		sale, err := repos.Sales.FindByIDForUpdate(ctx, payment.SaleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError("SALE_CANCELLED", "Cannot edit payments of a cancelled sale")
		}

		payments, err := repos.Payments.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		othersTotal := decimal.Zero
		for _, p := range payments {
			if p.ID != payment.ID {
				othersTotal = othersTotal.Add(p.Amount)
			}
		}
		if othersTotal.Add(req.Amount).GreaterThan(sale.Total.Add(ledger.Tolerance)) {
			return shared.NewDomainError("AMOUNT_EXCEEDS", "Edited payment would push the paid total past the sale total")
		}

		paidAt := payment.PaidAt
		if req.PaidAt != nil {
			paidAt = *req.PaidAt
		}
		if err := payment.Update(req.Method, valueobject.NewMoney(req.Amount), req.FeePercent, paidAt, now); err != nil {
			return err
		}
		for i, p := range payments {
			if p.ID == payment.ID {
				payments[i] = *payment
			}
		}

		receivables, err := repos.Receivables.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		ledger.Replay(payments, receivables, now)
		sale.Reconcile(payments, dereference(receivables), now)

		if err := repos.Payments.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}

		result = &SaleWithSchedule{Sale: sale, Receivables: receivables, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Sale)

	return result, nil
}

// DeletePayment removes a payment and replays the remaining history, rolling
// installments back to the state they would have without it.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID uuid.UUID) (*SaleWithSchedule, error) {
	now := s.clock.Now()

	var result *SaleWithSchedule
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		payment, err := repos.Payments.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}

		sale, err := repos.Sales.FindByIDForUpdate(ctx, payment.SaleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError("SALE_CANCELLED", "Cannot delete payments of a cancelled sale")
		}

		if err := repos.Payments.Delete(ctx, payment.ID); err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}

		payments, err := repos.Payments.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		remaining := payments[:0]
		for _, p := range payments {
			if p.ID != payment.ID {
				remaining = append(remaining, p)
			}
		}

		receivables, err := repos.Receivables.FindBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		ledger.Replay(remaining, receivables, now)
		sale.Reconcile(remaining, dereference(receivables), now)

		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}

		result = &SaleWithSchedule{Sale: sale, Receivables: receivables, Payments: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Sale)

	return result, nil
}

// RecalculateAfterPaymentChange replays the sale's full payment history and
// reconciles the aggregate. Safe to call at any time; a consistent sale is
// left unchanged.
func (s *PaymentService) RecalculateAfterPaymentChange(ctx context.Context, saleID uuid.UUID) error {
	now := s.clock.Now()

	var sale *ledger.Sale
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		sale, err = repos.Sales.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		payments, err := repos.Payments.FindBySale(ctx, saleID)
		if err != nil {
			return err
		}
		receivables, err := repos.Receivables.FindBySale(ctx, saleID)
		if err != nil {
			return err
		}

		ledger.Replay(payments, receivables, now)
		sale.Reconcile(payments, dereference(receivables), now)

		if err := repos.Receivables.SaveAll(ctx, receivables); err != nil {
			return fmt.Errorf("failed to save receivables: %w", err)
		}
		if err := repos.Sales.Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, sale)

	return nil
}

func (s *PaymentService) publishEvents(ctx context.Context, sale *ledger.Sale) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, sale.GetDomainEvents()...)
	sale.ClearDomainEvents()
}
