package dto

import "net/http"

// Error codes returned by the API surface itself (as opposed to codes
// originating in the domain layer).
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "AUTHENTICATION_REQUIRED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Resource lookups map to 404, business-rule violations to 403,
// malformed or unverifiable input to 400, and write conflicts to 409.
var ErrorCodeHTTPStatus = map[string]int{
	// Not found
	"ORDER_NOT_FOUND":   http.StatusNotFound,
	"PRODUCT_NOT_FOUND": http.StatusNotFound,
	"ADDRESS_NOT_FOUND": http.StatusNotFound,
	"PAYMENT_NOT_FOUND": http.StatusNotFound,
	"REFUND_NOT_FOUND":  http.StatusNotFound,
	"INVOICE_NOT_FOUND": http.StatusNotFound,

	// Business-rule violations
	"UNAUTHORIZED":         http.StatusForbidden,
	"MIXED_SELLERS":        http.StatusForbidden,
	"INVALID_TRANSITION":   http.StatusForbidden,
	"INVALID_REFUND_STATE": http.StatusForbidden,

	// Invalid input or state
	"INSUFFICIENT_STOCK":        http.StatusBadRequest,
	"INVALID_ORDER_STATUS":      http.StatusBadRequest,
	"INVALID_PAYMENT_SIGNATURE": http.StatusBadRequest,
	"INVALID_PAYMENT_STATE":     http.StatusBadRequest,
	"INVALID_SHIPMENT":          http.StatusBadRequest,
	"ORDER_NOT_EDITABLE":        http.StatusBadRequest,
	"INVALID_ADDRESS":           http.StatusBadRequest,
	"INVALID_QUANTITY":          http.StatusBadRequest,
	"INVALID_UNIT_PRICE":        http.StatusBadRequest,
	"INVALID_STOCK":             http.StatusBadRequest,
	"INVALID_STOCK_STATE":       http.StatusBadRequest,
	"INVALID_PRODUCT_NAME":      http.StatusBadRequest,
	"INVALID_ORDER":             http.StatusBadRequest,

	// Conflicts
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"ALREADY_EXISTS":       http.StatusConflict,

	// Interface-level codes
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// GetHTTPStatus resolves a domain error code to its HTTP status.
// Unknown codes map to 500 so mapping gaps surface loudly.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
