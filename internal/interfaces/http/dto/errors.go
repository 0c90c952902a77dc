package dto

import (
	"net/http"

	"github.com/storefront/backend/internal/domain/shared"
)

// Error codes returned in ErrorInfo.Code. Domain codes pass through as-is.
const (
	CodeValidation          = shared.CodeValidation
	CodeNotFound            = shared.CodeNotFound
	CodeInvalidState        = shared.CodeInvalidState
	CodeInsufficientStock   = shared.CodeInsufficientStock
	CodeConcurrencyConflict = shared.CodeConcurrencyConflict
	CodeAlreadyExists       = shared.CodeAlreadyExists

	CodeBadRequest      = "BAD_REQUEST"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	CodeValidation:          http.StatusBadRequest,
	CodeBadRequest:          http.StatusBadRequest,
	CodeInvalidJSON:         http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeAlreadyExists:       http.StatusConflict,
	CodeConcurrencyConflict: http.StatusConflict,
	CodeInvalidState:        http.StatusUnprocessableEntity,
	CodeInsufficientStock:   http.StatusUnprocessableEntity,
	CodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	CodeRateLimited:         http.StatusTooManyRequests,
	CodeInternal:            http.StatusInternalServerError,
	CodeUnavailable:         http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a client may retry a request that failed with code
func IsRetryable(code string) bool {
	return code == CodeConcurrencyConflict || code == CodeRateLimited || code == CodeUnavailable
}
