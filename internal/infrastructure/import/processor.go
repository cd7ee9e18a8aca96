package csvimport

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// ImportState represents the current state of an import session
type ImportState string

const (
	StateCreated    ImportState = "created"
	StateValidating ImportState = "validating"
	StateValidated  ImportState = "validated"
	StateImporting  ImportState = "importing"
	StateCompleted  ImportState = "completed"
	StateFailed     ImportState = "failed"
	StateCancelled  ImportState = "cancelled"
)

// ImportSession tracks a single CSV import from upload through completion
type ImportSession struct {
	ID          uuid.UUID        `json:"id"`
	FileName    string           `json:"file_name"`
	FileSize    int64            `json:"file_size"`
	State       ImportState      `json:"state"`
	TotalRows   int              `json:"total_rows"`
	ValidRows   int              `json:"valid_rows"`
	ErrorRows   int              `json:"error_rows"`
	Errors      []RowError       `json:"errors,omitempty"`
	Preview     []map[string]any `json:"preview,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// NewImportSession creates a new import session
func NewImportSession(fileName string, fileSize int64) *ImportSession {
	now := time.Now()
	return &ImportSession{
		ID:        uuid.New(),
		FileName:  fileName,
		FileSize:  fileSize,
		State:     StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
		Preview:   make([]map[string]any, 0),
		Errors:    make([]RowError, 0),
	}
}

// UpdateState updates the session state
func (s *ImportSession) UpdateState(state ImportState) {
	s.State = state
	s.UpdatedAt = time.Now()
	if state == StateCompleted || state == StateFailed || state == StateCancelled {
		now := time.Now()
		s.CompletedAt = &now
	}
}

// SetValidationResult sets the validation result
func (s *ImportSession) SetValidationResult(result *ValidationResult) {
	s.TotalRows = result.TotalRows
	s.ValidRows = result.ValidRows
	s.ErrorRows = result.ErrorRows
	s.Errors = result.Errors
	s.Preview = result.Preview
	s.UpdatedAt = time.Now()
}

// IsValid returns true if the session has no errors
func (s *ImportSession) IsValid() bool {
	return s.ErrorRows == 0
}

// ImportProcessor validates a CSV stream against field rules
type ImportProcessor struct {
	maxFileSize int64
	maxRows     int
	maxErrors   int
	previewRows int
}

// ProcessorOption is a functional option for ImportProcessor
type ProcessorOption func(*ImportProcessor)

// WithMaxFileSize sets the maximum file size
func WithMaxFileSize(size int64) ProcessorOption {
	return func(p *ImportProcessor) {
		p.maxFileSize = size
	}
}

// WithMaxRows sets the maximum number of rows
func WithMaxRows(rows int) ProcessorOption {
	return func(p *ImportProcessor) {
		p.maxRows = rows
	}
}

// WithMaxErrors sets the maximum number of errors to collect
func WithMaxErrors(errors int) ProcessorOption {
	return func(p *ImportProcessor) {
		p.maxErrors = errors
	}
}

// WithPreviewRows sets the number of preview rows
func WithPreviewRows(rows int) ProcessorOption {
	return func(p *ImportProcessor) {
		p.previewRows = rows
	}
}

// NewImportProcessor creates a new import processor
func NewImportProcessor(opts ...ProcessorOption) *ImportProcessor {
	p := &ImportProcessor{
		maxFileSize: 10 * 1024 * 1024, // 10MB default
		maxRows:     100000,           // 100K rows default
		maxErrors:   100,              // 100 errors default
		previewRows: 5,                // 5 preview rows default
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Validate parses and validates a CSV file without importing. It returns
// the validation result and the rows that passed every rule, in file order.
func (p *ImportProcessor) Validate(ctx context.Context, session *ImportSession, reader io.Reader, rules []FieldRule) (*ValidationResult, []*Row, error) {
	session.UpdateState(StateValidating)

	if session.FileSize > p.maxFileSize {
		session.UpdateState(StateFailed)
		return nil, nil, ErrFileTooLarge
	}

	parser, err := NewCSVParser(reader)
	if err != nil {
		session.UpdateState(StateFailed)
		return nil, nil, err
	}

	if err := parser.ParseHeader(); err != nil {
		session.UpdateState(StateFailed)
		return nil, nil, err
	}

	fieldValidator := NewFieldValidator(rules, p.maxErrors)
	parseErrors := NewErrorCollection(p.maxErrors)

	result := NewValidationResult(session.ID.String())
	validRows := make([]*Row, 0)
	totalRows := 0
	errorRows := 0

	for {
		select {
		case <-ctx.Done():
			session.UpdateState(StateCancelled)
			return nil, nil, ctx.Err()
		default:
		}

		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors.Add(NewRowError(parser.CurrentRow(), "", ErrCodeImportCSVParsing, err.Error()))
			errorRows++
			continue
		}

		if row.IsEmpty() {
			continue
		}

		totalRows++

		if totalRows > p.maxRows {
			parseErrors.Add(NewRowError(row.LineNumber, "", ErrCodeImportValidation,
				"exceeded maximum number of rows"))
			errorRows++
			break
		}

		if !fieldValidator.ValidateRow(row) {
			errorRows++
			continue
		}

		validRows = append(validRows, row)

		// Preview holds the first few valid rows
		if len(result.Preview) < p.previewRows {
			previewRow := make(map[string]any, len(row.Data))
			for k, v := range row.Data {
				previewRow[k] = v
			}
			result.AddPreview(previewRow)
		}
	}

	allErrors := NewErrorCollection(p.maxErrors)
	for _, e := range parseErrors.Errors() {
		allErrors.Add(e)
	}
	for _, e := range fieldValidator.Errors().Errors() {
		allErrors.Add(e)
	}

	result.SetCounts(totalRows, len(validRows), errorRows)
	result.SetErrors(allErrors)
	// Merging drops the per-collection overflow counts, restore them
	result.TotalErrors = parseErrors.TotalCount() + fieldValidator.Errors().TotalCount()
	result.IsTruncated = result.TotalErrors > len(result.Errors)

	session.SetValidationResult(result)
	if errorRows > 0 {
		session.UpdateState(StateFailed)
	} else {
		session.UpdateState(StateValidated)
	}

	return result, validRows, nil
}
