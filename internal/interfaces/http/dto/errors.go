package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Ledger business rule error codes
const (
	// ErrCodeAmountExceeds is used when a payment is larger than what is owed
	ErrCodeAmountExceeds = "ERR_AMOUNT_EXCEEDS"
	// ErrCodeNoReceivables is used when a sale has no open installments
	ErrCodeNoReceivables = "ERR_NO_RECEIVABLES"
	// ErrCodeReceivableNotPayable is used when an installment cannot take money
	ErrCodeReceivableNotPayable = "ERR_RECEIVABLE_NOT_PAYABLE"
	// ErrCodeSaleCancelled is used when operating on a cancelled sale
	ErrCodeSaleCancelled = "ERR_SALE_CANCELLED"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation and input errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeAmountExceeds:        http.StatusUnprocessableEntity,
	ErrCodeNoReceivables:        http.StatusUnprocessableEntity,
	ErrCodeReceivableNotPayable: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,

	// Cancelled sales reject further writes -> 409 Conflict
	ErrCodeSaleCancelled: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the ERR_ response codes.
// The INVALID_* family collapses into ERR_INVALID_INPUT; the message keeps
// the field-level detail.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"AMOUNT_EXCEEDS":         ErrCodeAmountExceeds,
	"NO_RECEIVABLES":         ErrCodeNoReceivables,
	"RECEIVABLE_NOT_PAYABLE": ErrCodeReceivableNotPayable,
	"SALE_CANCELLED":         ErrCodeSaleCancelled,
	"INVALID_STATUS":         ErrCodeInvalidState,
	"INVALID_STATE":          ErrCodeInvalidState,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_AMOUNT":         ErrCodeInvalidInput,
	"INVALID_CUSTOMER":       ErrCodeInvalidInput,
	"INVALID_CUSTOMER_NAME":  ErrCodeInvalidInput,
	"INVALID_FEE":            ErrCodeInvalidInput,
	"INVALID_INSTALLMENT":    ErrCodeInvalidInput,
	"INVALID_METHOD":         ErrCodeInvalidInput,
	"INVALID_PAYMENT_DAY":    ErrCodeInvalidInput,
	"INVALID_REASON":         ErrCodeInvalidInput,
	"INVALID_SALE":           ErrCodeInvalidInput,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the response format
// If the code is already in the ERR_ format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
