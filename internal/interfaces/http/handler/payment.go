package handler

import (
	"time"

	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	payments *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RegisterRoutes registers payment routes on the API group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales/:id/payments", h.RegisterForSale)
	rg.POST("/sales/:id/recalculate", h.Recalculate)
	rg.POST("/receivables/:id/payments", h.RegisterForReceivable)

	payments := rg.Group("/payments")
	{
		payments.PUT("/:id", h.Update)
		payments.DELETE("/:id", h.Delete)
	}
}

// RegisterPaymentRequest represents money received against a sale
type RegisterPaymentRequest struct {
	Amount           float64    `json:"amount" binding:"required,gt=0"`
	Method           string     `json:"method" binding:"required,oneof=CASH PIX DEBIT CREDIT"`
	FeePercent       *float64   `json:"fee_percent" binding:"omitempty,gte=0,lte=100"`
	FeeAbsorber      string     `json:"fee_absorber" binding:"omitempty,oneof=SELLER CLIENT"`
	CardInstallments int        `json:"card_installments" binding:"omitempty,min=1"`
	PaidAt           *time.Time `json:"paid_at"`
}

func (r RegisterPaymentRequest) toAppRequest(saleID uuid.UUID) ledgerapp.RegisterPaymentRequest {
	appReq := ledgerapp.RegisterPaymentRequest{
		SaleID:           saleID,
		Amount:           toDecimal(r.Amount),
		Method:           ledger.PaymentMethod(r.Method),
		FeeAbsorber:      ledger.FeeAbsorber(r.FeeAbsorber),
		CardInstallments: r.CardInstallments,
		PaidAt:           r.PaidAt,
	}
	if r.FeePercent != nil {
		appReq.FeePercent = toDecimal(*r.FeePercent)
	}
	if appReq.FeeAbsorber == "" {
		appReq.FeeAbsorber = ledger.FeeAbsorberSeller
	}
	if appReq.CardInstallments == 0 {
		appReq.CardInstallments = 1
	}
	return appReq
}

// RegisterForSale records a payment against a sale, allocating it across
// open installments first to last
func (h *PaymentHandler) RegisterForSale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.payments.RegisterSalePayment(c.Request.Context(), req.toAppRequest(saleID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RegisterForReceivable records a payment aimed at one installment
func (h *PaymentHandler) RegisterForReceivable(c *gin.Context) {
	receivableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receivable ID format")
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.payments.RegisterReceivablePayment(c.Request.Context(), receivableID, req.toAppRequest(uuid.Nil))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// UpdatePaymentRequest edits an existing payment
type UpdatePaymentRequest struct {
	Amount     float64    `json:"amount" binding:"required,gt=0"`
	Method     string     `json:"method" binding:"required,oneof=CASH PIX DEBIT CREDIT"`
	FeePercent *float64   `json:"fee_percent" binding:"omitempty,gte=0,lte=100"`
	PaidAt     *time.Time `json:"paid_at"`
}

// Update edits a payment and replays the sale's payment history
func (h *PaymentHandler) Update(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq := ledgerapp.UpdatePaymentRequest{
		PaymentID: paymentID,
		Amount:    toDecimal(req.Amount),
		Method:    ledger.PaymentMethod(req.Method),
		PaidAt:    req.PaidAt,
	}
	if req.FeePercent != nil {
		appReq.FeePercent = toDecimal(*req.FeePercent)
	}

	result, err := h.payments.UpdatePayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete removes a payment and replays the remaining history
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	result, err := h.payments.DeletePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Recalculate rebuilds the sale's allocations from its payment history
func (h *PaymentHandler) Recalculate(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	if err := h.payments.RecalculateAfterPaymentChange(c.Request.Context(), saleID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
