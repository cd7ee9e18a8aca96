package handler

import (
	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReceivableHandler handles installment query endpoints
type ReceivableHandler struct {
	BaseHandler
	sales *ledgerapp.SaleService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(sales *ledgerapp.SaleService) *ReceivableHandler {
	return &ReceivableHandler{sales: sales}
}

// RegisterRoutes registers receivable routes on the API group
func (h *ReceivableHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/receivables/overdue", h.ListOverdue)
}

// ListOverdue returns installments past due, oldest first
func (h *ReceivableHandler) ListOverdue(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := req.ToFilter()
	page, err := h.sales.ListOverdueReceivables(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
