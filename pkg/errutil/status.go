package errutil

import "net/http"

// CoreStatus is the closed set of business failure codes surfaced by the API.
type CoreStatus string

const (
	StatusBadRequest       CoreStatus = "BAD_REQUEST"
	StatusValidationFailed CoreStatus = "VALIDATION_FAILED"
	StatusUnauthorized     CoreStatus = "UNAUTHORIZED"
	StatusForbidden        CoreStatus = "FORBIDDEN"
	StatusNotFound         CoreStatus = "NOT_FOUND"
	StatusConflict         CoreStatus = "CONFLICT"
	StatusTooManyRequests  CoreStatus = "TOO_MANY_REQUESTS"
	StatusInternal         CoreStatus = "INTERNAL"
	StatusUnknown          CoreStatus = "UNKNOWN"

	// Reward/wallet domain codes. They render as 400s but keep the
	// failure kind machine-readable for clients.
	StatusAlreadyCompleted  CoreStatus = "ALREADY_COMPLETED"
	StatusLimitExceeded     CoreStatus = "LIMIT_EXCEEDED"
	StatusBelowMinimum      CoreStatus = "BELOW_MINIMUM"
	StatusInsufficientFunds CoreStatus = "INSUFFICIENT_FUNDS"
	StatusInvalidRequest    CoreStatus = "INVALID_REQUEST"
	StatusCodeGenExhausted  CoreStatus = "CODE_GENERATION_EXHAUSTED"
	StatusInvalidTransition CoreStatus = "INVALID_TRANSITION"
)

// HTTPStatus converts the CoreStatus to its HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed, StatusInvalidRequest,
		StatusAlreadyCompleted, StatusLimitExceeded, StatusBelowMinimum,
		StatusInsufficientFunds, StatusInvalidTransition:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusTooManyRequests:
		return http.StatusTooManyRequests
	case StatusInternal, StatusCodeGenExhausted, StatusUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
