package handler

import (
	"time"

	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleHandler handles credit sale API endpoints
type SaleHandler struct {
	BaseHandler
	sales *ledgerapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales *ledgerapp.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// RegisterRoutes registers sale routes on the API group
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.Create)
		sales.GET("", h.List)
		sales.GET("/:id", h.GetByID)
		sales.POST("/:id/reschedule", h.Reschedule)
		sales.POST("/:id/cancel", h.Cancel)
	}
	rg.GET("/customers/:id/sales", h.ListByCustomer)
}

// CreateSaleRequest represents a request to open a credit sale
type CreateSaleRequest struct {
	CustomerID             string    `json:"customer_id" binding:"required,uuid"`
	CustomerName           string    `json:"customer_name" binding:"required,min=1,max=200"`
	Total                  float64   `json:"total" binding:"required,gt=0"`
	PaidUpfront            *float64  `json:"paid_upfront" binding:"omitempty,gte=0"`
	Installments           int       `json:"installments" binding:"required,min=1"`
	PaymentDay             int       `json:"payment_day" binding:"required,min=1,max=31"`
	FixedInstallmentAmount *float64  `json:"fixed_installment_amount" binding:"omitempty,gt=0"`
	UpfrontMethod          string    `json:"upfront_method" binding:"omitempty,oneof=CASH PIX DEBIT CREDIT"`
	SaleDate               time.Time `json:"sale_date" binding:"required"`
}

// Create opens a credit sale with its installment schedule
func (h *SaleHandler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	appReq := ledgerapp.CreateInstallmentPlanRequest{
		CustomerID:      customerID,
		CustomerName:    req.CustomerName,
		Total:           toDecimal(req.Total),
		NumInstallments: req.Installments,
		PaymentDay:      req.PaymentDay,
		UpfrontMethod:   ledger.PaymentMethod(req.UpfrontMethod),
		SaleDate:        req.SaleDate,
	}
	if req.PaidUpfront != nil {
		appReq.PaidUpfront = toDecimal(*req.PaidUpfront)
	}
	if req.FixedInstallmentAmount != nil {
		appReq.FixedInstallmentAmount = toDecimalPtr(*req.FixedInstallmentAmount)
	}

	result, err := h.sales.CreateInstallmentPlan(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID returns a sale with its installments and payments
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	result, err := h.sales.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns a page of sales, optionally filtered by customer name search
func (h *SaleHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := req.ToFilter()
	page, err := h.sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListByCustomer returns a page of one customer's sales
func (h *SaleHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := req.ToFilter()
	page, err := h.sales.ListSalesByCustomer(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RescheduleSaleRequest moves open installments to a new payment day
type RescheduleSaleRequest struct {
	PaymentDay int        `json:"payment_day" binding:"required,min=1,max=31"`
	StartDate  *time.Time `json:"start_date"`
}

// Reschedule moves every open installment of the sale to a new payment day
func (h *SaleHandler) Reschedule(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req RescheduleSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.sales.Reschedule(c.Request.Context(), ledgerapp.RescheduleRequest{
		SaleID:        saleID,
		NewPaymentDay: req.PaymentDay,
		NewStartDate:  req.StartDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelSaleRequest carries the cancellation reason
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Cancel cancels a sale and its open installments
func (h *SaleHandler) Cancel(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	sale, err := h.sales.CancelSale(c.Request.Context(), saleID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}
