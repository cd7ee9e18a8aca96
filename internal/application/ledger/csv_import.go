package ledger

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	csvimport "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// legacyDateFormat is the date layout the old spreadsheet exports use
const legacyDateFormat = "2006-01-02"

// LegacyCSVImportResult summarizes a bulk import of legacy sale rows
type LegacyCSVImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// GetCSVValidationRules returns the validation rules for the legacy sale CSV.
// Columns: customer_id, customer_name, total, paid_amount, installments,
// payment_day, sale_date.
func (s *ImportService) GetCSVValidationRules() []csvimport.FieldRule {
	one := decimal.NewFromInt(1)
	thirtyOne := decimal.NewFromInt(31)
	return []csvimport.FieldRule{
		csvimport.Field("customer_id").UUID().Build(),
		csvimport.Field("customer_name").Required().String().MinLength(1).MaxLength(200).Build(),
		csvimport.Field("total").Required().Decimal().Custom(validatePositiveAmount).Build(),
		csvimport.Field("paid_amount").Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field("installments").Int().Range(one, decimal.NewFromInt(120)).Build(),
		csvimport.Field("payment_day").Required().Int().Range(one, thirtyOne).Build(),
		csvimport.Field("sale_date").Required().Date().DateFormat(legacyDateFormat).Build(),
	}
}

// validatePositiveAmount rejects zero and negative sale totals
func validatePositiveAmount(value string) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return err
	}
	if !d.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Sale total must be positive")
	}
	return nil
}

// ImportCSV validates a legacy CSV export and imports every row in one pass.
// A file with validation errors is rejected outright; nothing is imported.
func (s *ImportService) ImportCSV(ctx context.Context, fileName string, fileSize int64, reader io.Reader, distribute bool) (*csvimport.ImportSession, *LegacyCSVImportResult, error) {
	session := csvimport.NewImportSession(fileName, fileSize)
	processor := csvimport.NewImportProcessor()

	validation, validRows, err := processor.Validate(ctx, session, reader, s.GetCSVValidationRules())
	if err != nil {
		return session, nil, err
	}

	if !validation.IsValid() {
		return session, &LegacyCSVImportResult{
			TotalRows:   validation.TotalRows,
			ErrorRows:   validation.ErrorRows,
			Errors:      validation.Errors,
			IsTruncated: validation.IsTruncated,
			TotalErrors: validation.TotalErrors,
		}, nil
	}

	session.UpdateState(csvimport.StateImporting)

	result := &LegacyCSVImportResult{TotalRows: len(validRows)}
	errors := csvimport.NewErrorCollection(100)

	for _, row := range validRows {
		select {
		case <-ctx.Done():
			session.UpdateState(csvimport.StateCancelled)
			return session, nil, ctx.Err()
		default:
		}

		s.importRow(ctx, row, distribute, result, errors)
	}

	result.Errors = errors.Errors()
	result.IsTruncated = errors.IsTruncated()
	result.TotalErrors = errors.TotalCount()

	if result.ErrorRows > 0 {
		session.UpdateState(csvimport.StateFailed)
	} else {
		session.UpdateState(csvimport.StateCompleted)
	}

	s.logger.Info("legacy CSV import finished",
		zap.String("file", fileName),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported_rows", result.ImportedRows),
		zap.Int("error_rows", result.ErrorRows))

	return session, result, nil
}

// importRow converts one validated CSV row into a legacy sale
func (s *ImportService) importRow(ctx context.Context, row *csvimport.Row, distribute bool, result *LegacyCSVImportResult, errors *csvimport.ErrorCollection) {
	customerID := uuid.New()
	if raw := strings.TrimSpace(row.Get("customer_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "customer_id", csvimport.ErrCodeImportInvalidFormat, "invalid customer id"))
			result.ErrorRows++
			return
		}
		customerID = parsed
	}

	total, err := decimal.NewFromString(strings.TrimSpace(row.Get("total")))
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "total", csvimport.ErrCodeImportInvalidType, "invalid decimal value"))
		result.ErrorRows++
		return
	}

	paidAmount := decimal.Zero
	if raw := strings.TrimSpace(row.Get("paid_amount")); raw != "" {
		paidAmount, err = decimal.NewFromString(raw)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "paid_amount", csvimport.ErrCodeImportInvalidType, "invalid decimal value"))
			result.ErrorRows++
			return
		}
	}

	installments := 1
	if raw := strings.TrimSpace(row.Get("installments")); raw != "" {
		installments, err = strconv.Atoi(raw)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "installments", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
			result.ErrorRows++
			return
		}
	}

	paymentDay, err := strconv.Atoi(strings.TrimSpace(row.Get("payment_day")))
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "payment_day", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
		result.ErrorRows++
		return
	}

	saleDate, err := time.Parse(legacyDateFormat, strings.TrimSpace(row.Get("sale_date")))
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "sale_date", csvimport.ErrCodeImportInvalidFormat, "invalid date value"))
		result.ErrorRows++
		return
	}

	req := ImportLegacySaleRequest{
		CustomerID:         customerID,
		CustomerName:       strings.TrimSpace(row.Get("customer_name")),
		Total:              total,
		PaidAmount:         paidAmount,
		NumInstallments:    installments,
		PaymentDay:         paymentDay,
		SaleDate:           saleDate,
		DistributeOnImport: distribute,
	}

	if _, err := s.ImportLegacySale(ctx, req); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return
	}

	result.ImportedRows++
}
