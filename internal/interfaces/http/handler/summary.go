package handler

import (
	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SummaryHandler handles receivable summary endpoints
type SummaryHandler struct {
	BaseHandler
	summaries *ledgerapp.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(summaries *ledgerapp.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// RegisterRoutes registers summary routes on the API group
func (h *SummaryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.Global)
	rg.GET("/customers/:id/summary", h.Customer)
}

// Global returns the whole ledger's open position
func (h *SummaryHandler) Global(c *gin.Context) {
	summary, err := h.summaries.GlobalSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Customer returns one customer's open credit position
func (h *SummaryHandler) Customer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	summary, err := h.summaries.CustomerSummary(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
