package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrMetricNotFound flags an unknown metric id. Clone it with a message
	// naming the id before surfacing.
	ErrMetricNotFound = New("METRIC_NOT_FOUND", http.StatusNotFound, "metric not found")

	// ErrLRSUnavailable carries an intentionally generic message so internal
	// transport detail never leaks to API consumers.
	ErrLRSUnavailable = New("LRS_UNAVAILABLE", http.StatusServiceUnavailable, "Learning Record Store is currently unavailable")

	// ErrCacheMiss is a sentinel used between the cache repository and the
	// cache service. It never crosses the HTTP boundary.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// LRS transport error categories. Each carries a distinct code so telemetry
// and callers can tell an auth problem from a flaky network.
var (
	ErrLRSTimeout    = New("LRS_TIMEOUT", http.StatusGatewayTimeout, "LRS request timed out")
	ErrLRSConnection = New("LRS_CONNECTION", http.StatusBadGateway, "could not connect to LRS")
	ErrLRSAuth       = New("LRS_AUTH", http.StatusBadGateway, "LRS rejected credentials")
	ErrLRSRateLimit  = New("LRS_RATE_LIMIT", http.StatusBadGateway, "LRS rate limit exceeded")
	ErrLRSServer     = New("LRS_SERVER", http.StatusBadGateway, "LRS server error")
	ErrLRSUnknown    = New("LRS_UNKNOWN", http.StatusBadGateway, "unexpected LRS failure")
)

// LRSCategory returns the telemetry label for a transport error, or "" when
// the error is not one of the LRS transport categories.
func LRSCategory(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	switch e.Code {
	case ErrLRSTimeout.Code:
		return "timeout"
	case ErrLRSConnection.Code:
		return "connection"
	case ErrLRSAuth.Code:
		return "auth"
	case ErrLRSRateLimit.Code:
		return "rate_limit"
	case ErrLRSServer.Code:
		return "server"
	case ErrLRSUnknown.Code:
		return "unknown"
	}
	return ""
}

// IsLRSTransport reports whether err belongs to the LRS transport taxonomy.
func IsLRSTransport(err error) bool {
	return LRSCategory(err) != ""
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
