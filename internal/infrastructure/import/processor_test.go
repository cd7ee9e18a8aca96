package csvimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleRules() []FieldRule {
	return []FieldRule{
		Field("customer_name").Required().String().MinLength(1).MaxLength(200).Build(),
		Field("total").Required().Decimal().Build(),
		Field("installments").Int().MinValue(decimal.NewFromInt(1)).MaxValue(decimal.NewFromInt(60)).Build(),
		Field("payment_day").Required().Int().MinValue(decimal.NewFromInt(1)).MaxValue(decimal.NewFromInt(31)).Build(),
		Field("sale_date").Required().Date().DateFormat("2006-01-02").Build(),
	}
}

func TestImportSession(t *testing.T) {
	t.Run("New session", func(t *testing.T) {
		session := NewImportSession("legado.csv", 2048)

		assert.NotEqual(t, "", session.ID.String())
		assert.Equal(t, "legado.csv", session.FileName)
		assert.Equal(t, int64(2048), session.FileSize)
		assert.Equal(t, StateCreated, session.State)
		assert.Nil(t, session.CompletedAt)
	})

	t.Run("State transitions", func(t *testing.T) {
		session := NewImportSession("legado.csv", 100)

		session.UpdateState(StateValidating)
		assert.Equal(t, StateValidating, session.State)
		assert.Nil(t, session.CompletedAt)

		session.UpdateState(StateCompleted)
		assert.Equal(t, StateCompleted, session.State)
		require.NotNil(t, session.CompletedAt)
	})

	t.Run("Terminal states set completion time", func(t *testing.T) {
		for _, state := range []ImportState{StateCompleted, StateFailed, StateCancelled} {
			session := NewImportSession("f.csv", 1)
			session.UpdateState(state)
			assert.NotNil(t, session.CompletedAt, "state %s should set CompletedAt", state)
		}
	})

	t.Run("Validation result applied", func(t *testing.T) {
		session := NewImportSession("legado.csv", 100)

		result := NewValidationResult(session.ID.String())
		result.SetCounts(10, 8, 2)
		result.Errors = []RowError{NewRowError(3, "total", ErrCodeImportInvalidType, "expected decimal")}

		session.SetValidationResult(result)

		assert.Equal(t, 10, session.TotalRows)
		assert.Equal(t, 8, session.ValidRows)
		assert.Equal(t, 2, session.ErrorRows)
		assert.Len(t, session.Errors, 1)
		assert.False(t, session.IsValid())
	})
}

func TestImportProcessor(t *testing.T) {
	t.Run("Valid file", func(t *testing.T) {
		csv := strings.Join([]string{
			"customer_name,total,installments,payment_day,sale_date",
			"Maria Souza,150.00,3,10,2024-03-15",
			"Ana Lima,89.90,1,5,2024-04-01",
		}, "\n")

		processor := NewImportProcessor()
		session := NewImportSession("legado.csv", int64(len(csv)))

		result, rows, err := processor.Validate(context.Background(), session, strings.NewReader(csv), saleRules())
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.ValidRows)
		assert.Equal(t, 0, result.ErrorRows)
		assert.True(t, result.IsValid())
		require.Len(t, rows, 2)
		assert.Equal(t, "Maria Souza", rows[0].Get("customer_name"))
		assert.Equal(t, "89.90", rows[1].Get("total"))
		assert.Equal(t, StateValidated, session.State)
	})

	t.Run("Rows with errors are excluded", func(t *testing.T) {
		csv := strings.Join([]string{
			"customer_name,total,installments,payment_day,sale_date",
			"Maria Souza,150.00,3,10,2024-03-15",
			",89.90,1,5,2024-04-01",
			"Ana Lima,abc,1,5,2024-04-01",
		}, "\n")

		processor := NewImportProcessor()
		session := NewImportSession("legado.csv", int64(len(csv)))

		result, rows, err := processor.Validate(context.Background(), session, strings.NewReader(csv), saleRules())
		require.NoError(t, err)

		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 1, result.ValidRows)
		assert.Equal(t, 2, result.ErrorRows)
		assert.False(t, result.IsValid())
		require.Len(t, rows, 1)
		assert.Equal(t, "Maria Souza", rows[0].Get("customer_name"))
		assert.Equal(t, StateFailed, session.State)

		codes := make(map[string]bool)
		for _, e := range result.Errors {
			codes[e.Code] = true
		}
		assert.True(t, codes[ErrCodeImportRequiredField])
		assert.True(t, codes[ErrCodeImportInvalidType])
	})

	t.Run("Empty rows skipped", func(t *testing.T) {
		csv := strings.Join([]string{
			"customer_name,total,installments,payment_day,sale_date",
			"Maria Souza,150.00,3,10,2024-03-15",
			",,,,",
			"Ana Lima,89.90,1,5,2024-04-01",
		}, "\n")

		processor := NewImportProcessor()
		session := NewImportSession("legado.csv", int64(len(csv)))

		result, rows, err := processor.Validate(context.Background(), session, strings.NewReader(csv), saleRules())
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalRows)
		assert.Len(t, rows, 2)
	})

	t.Run("Preview holds first valid rows", func(t *testing.T) {
		lines := []string{"customer_name,total,installments,payment_day,sale_date"}
		for i := 0; i < 10; i++ {
			lines = append(lines, "Cliente,10.00,1,5,2024-01-15")
		}
		csv := strings.Join(lines, "\n")

		processor := NewImportProcessor(WithPreviewRows(3))
		session := NewImportSession("legado.csv", int64(len(csv)))

		result, _, err := processor.Validate(context.Background(), session, strings.NewReader(csv), saleRules())
		require.NoError(t, err)

		assert.Len(t, result.Preview, 3)
		assert.Equal(t, "Cliente", result.Preview[0]["customer_name"])
	})

	t.Run("Max rows enforced", func(t *testing.T) {
		lines := []string{"customer_name,total,installments,payment_day,sale_date"}
		for i := 0; i < 5; i++ {
			lines = append(lines, "Cliente,10.00,1,5,2024-01-15")
		}
		csv := strings.Join(lines, "\n")

		processor := NewImportProcessor(WithMaxRows(3))
		session := NewImportSession("legado.csv", int64(len(csv)))

		result, _, err := processor.Validate(context.Background(), session, strings.NewReader(csv), saleRules())
		require.NoError(t, err)

		assert.False(t, result.IsValid())
		found := false
		for _, e := range result.Errors {
			if strings.Contains(e.Message, "maximum number of rows") {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("File too large", func(t *testing.T) {
		processor := NewImportProcessor(WithMaxFileSize(10))
		session := NewImportSession("legado.csv", 1024)

		_, _, err := processor.Validate(context.Background(), session, strings.NewReader("a,b\n1,2\n"), nil)
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Equal(t, StateFailed, session.State)
	})

	t.Run("Empty file", func(t *testing.T) {
		processor := NewImportProcessor()
		session := NewImportSession("vazio.csv", 0)

		_, _, err := processor.Validate(context.Background(), session, strings.NewReader(""), saleRules())
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Equal(t, StateFailed, session.State)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		csv := strings.Join([]string{
			"customer_name,total,installments,payment_day,sale_date",
			"Maria Souza,150.00,3,10,2024-03-15",
		}, "\n")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		processor := NewImportProcessor()
		session := NewImportSession("legado.csv", int64(len(csv)))

		_, _, err := processor.Validate(ctx, session, strings.NewReader(csv), saleRules())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateCancelled, session.State)
	})

	t.Run("Error limit truncates collected errors", func(t *testing.T) {
		lines := []string{"customer_name,total,installments,payment_day,sale_date"}
		for i := 0; i < 10; i++ {
			lines = append(lines, ",10.00,1,5,2024-01-15") // Missing required name
		}
		csv := strings.Join(lines, "\n")

		processor := NewImportProcessor(WithMaxErrors(4))
		session := NewImportSession("legado.csv", int64(len(csv)))

		result, _, err := processor.Validate(context.Background(), session, strings.NewReader(csv), saleRules())
		require.NoError(t, err)

		assert.Equal(t, 10, result.ErrorRows)
		assert.Len(t, result.Errors, 4)
		assert.True(t, result.IsTruncated)
	})
}

func TestImportSessionTimestamps(t *testing.T) {
	session := NewImportSession("legado.csv", 1)
	created := session.UpdatedAt

	time.Sleep(time.Millisecond)
	session.UpdateState(StateValidating)

	assert.True(t, session.UpdatedAt.After(created) || session.UpdatedAt.Equal(created))
}
