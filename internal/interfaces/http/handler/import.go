package handler

import (
	"net/http"
	"strconv"
	"time"

	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	csvimport "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/import"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxImportFileSize limits uploaded legacy CSV files to 10MB
const maxImportFileSize = 10 * 1024 * 1024

// ImportHandler handles legacy ledger import endpoints
type ImportHandler struct {
	BaseHandler
	imports *ledgerapp.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(imports *ledgerapp.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// RegisterRoutes registers import routes on the API group
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/imports/sales", h.ImportSale)
	rg.POST("/imports/sales/csv", h.ImportSalesCSV)
}

// ImportSaleRequest carries one row from the old paper ledger
type ImportSaleRequest struct {
	CustomerID         string    `json:"customer_id" binding:"required,uuid"`
	CustomerName       string    `json:"customer_name" binding:"required,min=1,max=200"`
	Total              float64   `json:"total" binding:"required,gt=0"`
	PaidAmount         float64   `json:"paid_amount" binding:"omitempty,gte=0"`
	Installments       int       `json:"installments" binding:"required,min=1"`
	PaymentDay         int       `json:"payment_day" binding:"required,min=1,max=31"`
	SaleDate           time.Time `json:"sale_date" binding:"required"`
	DistributeOnImport bool      `json:"distribute_on_import"`
}

// ImportSale brings a legacy sale into the ledger. The paid amount is
// trusted as-is and no payment rows are fabricated for it.
func (h *ImportHandler) ImportSale(c *gin.Context) {
	var req ImportSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	result, err := h.imports.ImportLegacySale(c.Request.Context(), ledgerapp.ImportLegacySaleRequest{
		CustomerID:         customerID,
		CustomerName:       req.CustomerName,
		Total:              toDecimal(req.Total),
		PaidAmount:         toDecimal(req.PaidAmount),
		NumInstallments:    req.Installments,
		PaymentDay:         req.PaymentDay,
		SaleDate:           req.SaleDate,
		DistributeOnImport: req.DistributeOnImport,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ImportSalesCSVResponse summarizes a bulk legacy import
type ImportSalesCSVResponse struct {
	SessionID    string               `json:"session_id"`
	State        string               `json:"state"`
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ImportSalesCSV imports a whole legacy ledger export in one request. The
// file is validated first; a file with any invalid row imports nothing.
// The optional "distribute" form field allocates each row's paid amount
// over its installments immediately.
func (h *ImportHandler) ImportSalesCSV(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" && contentType != "application/vnd.ms-excel" {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return
	}

	distribute, _ := strconv.ParseBool(c.PostForm("distribute"))

	session, result, err := h.imports.ImportCSV(c.Request.Context(), header.Filename, header.Size, file, distribute)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ImportSalesCSVResponse{
		SessionID:    session.ID.String(),
		State:        string(session.State),
		TotalRows:    result.TotalRows,
		ImportedRows: result.ImportedRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}
