package handler

import (
	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// RepairHandler handles consistency repair endpoints
type RepairHandler struct {
	BaseHandler
	repairs *ledgerapp.RepairService
}

// NewRepairHandler creates a new RepairHandler
func NewRepairHandler(repairs *ledgerapp.RepairService) *RepairHandler {
	return &RepairHandler{repairs: repairs}
}

// RegisterRoutes registers repair routes on the API group
func (h *RepairHandler) RegisterRoutes(rg *gin.RouterGroup) {
	repairs := rg.Group("/repairs")
	{
		repairs.GET("/preview", h.Preview)
		repairs.POST("/apply", h.Apply)
	}
}

// Preview lists sales whose paid amount disagrees with their installments,
// without changing anything
func (h *RepairHandler) Preview(c *gin.Context) {
	candidates, err := h.repairs.PreviewRepairs(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, candidates)
}

// Apply redistributes each inconsistent sale's paid amount over its
// installments. Running it twice is a no-op.
func (h *RepairHandler) Apply(c *gin.Context) {
	result, err := h.repairs.ApplyRepairs(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
