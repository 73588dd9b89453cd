// Package errors defines structured error types for the dispatch service.
// Errors carry a machine-readable code, an HTTP status, and optional metadata
// so the HTTP boundary can translate them without type switches per call site.
package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ridewave/dispatch/pkg/constants"
)

// ================================================================================
// Error Interface
// ================================================================================

// AppError represents a structured error with additional metadata.
type AppError interface {
	error

	// Code returns the machine-readable error code.
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code.
	HTTPStatus() int

	// Description returns a human-readable description.
	Description() string

	// Unwrap returns the underlying error for error chain support.
	Unwrap() error

	// WithCause adds a cause error to the error chain.
	WithCause(cause error) AppError

	// WithMetadata adds additional context metadata.
	WithMetadata(key string, value interface{}) AppError

	// Metadata returns all metadata.
	Metadata() map[string]interface{}
}

// baseError is the internal implementation of AppError.
type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.description
}

func (e *baseError) Code() constants.ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) Description() string { return e.description }

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) WithCause(cause error) AppError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} { return e.metadata }

// NewError creates a new AppError with the specified parameters.
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) AppError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrInvalidRequest creates an invalid_request error.
func ErrInvalidRequest(message string) AppError {
	return NewError(
		constants.ErrCodeInvalidRequest,
		http.StatusBadRequest,
		"The request is missing a required parameter or includes an invalid parameter value.",
		message,
	)
}

// ErrInvalidCredentials creates an invalid_credentials error.
// The description is deliberately vague so callers cannot distinguish an
// unknown account from a wrong password.
func ErrInvalidCredentials() AppError {
	return NewError(
		constants.ErrCodeInvalidCredentials,
		http.StatusUnauthorized,
		"Invalid email or password.",
		"invalid email or password",
	)
}

// ErrForbidden creates a forbidden error.
func ErrForbidden(message string) AppError {
	return NewError(
		constants.ErrCodeForbidden,
		http.StatusForbidden,
		"The authenticated account is not allowed to perform this operation.",
		message,
	)
}

// ErrServerError creates a server_error error.
func ErrServerError(message string) AppError {
	return NewError(
		constants.ErrCodeServerError,
		http.StatusInternalServerError,
		"The server encountered an unexpected condition that prevented it from fulfilling the request.",
		message,
	)
}

// ErrStoreUnavailable creates a store_unavailable error. Enforcement paths
// fail open on it; counting paths surface it as a non-fatal warning; the
// sequence allocation path treats it as fatal to the confirming transaction.
func ErrStoreUnavailable(message string) AppError {
	return NewError(
		constants.ErrCodeStoreUnavailable,
		http.StatusServiceUnavailable,
		"The shared counter store is unreachable.",
		message,
	)
}

// ================================================================================
// Domain-Specific Error Constructors
// ================================================================================

// ErrRateLimitExceeded creates the user-facing 429 error for a blocked
// identity. blockedUntil is carried as epoch milliseconds so the caller can
// render a countdown; minutesRemaining is ceil(remaining TTL / 60s).
func ErrRateLimitExceeded(blockedUntil time.Time, minutesRemaining int) AppError {
	return NewError(
		constants.ErrCodeRateLimitExceeded,
		http.StatusTooManyRequests,
		"Rate Limit Exceeded",
		fmt.Sprintf("Too many failed login attempts. Try again in %d more minute(s).", minutesRemaining),
	).WithMetadata("blocked_until", blockedUntil.UnixMilli()).
		WithMetadata("minutes_remaining", minutesRemaining)
}

// ErrBookingNotFound creates a not_found error for a missing booking.
func ErrBookingNotFound(bookingID string) AppError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"Booking not found",
		fmt.Sprintf("booking not found: %s", bookingID),
	).WithMetadata("booking_id", bookingID)
}

// ErrUserNotFound creates a not_found error for a missing operator account.
func ErrUserNotFound(email string) AppError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"User not found",
		fmt.Sprintf("user not found: %s", email),
	)
}

// ErrAllocationConflict creates an allocation_conflict error. Raised when the
// sequence allocator exhausts its retry budget; the caller must retry the
// whole confirmation transaction.
func ErrAllocationConflict(message string) AppError {
	return NewError(
		constants.ErrCodeAllocationConflict,
		http.StatusConflict,
		"Booking number allocation conflict",
		message,
	)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsAppError attempts to cast an error to AppError.
func AsAppError(err error) (AppError, bool) {
	appErr, ok := err.(AppError)
	return appErr, ok
}

// IsRateLimitError checks if an error is a rate limit rejection.
func IsRateLimitError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeRateLimitExceeded
	}
	return false
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeNotFound
	}
	return false
}

// IsStoreUnavailable checks if an error is a counter store outage.
func IsStoreUnavailable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeStoreUnavailable
	}
	return false
}

// IsAllocationConflict checks if an error is a sequence allocation conflict.
func IsAllocationConflict(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeAllocationConflict
	}
	return false
}

// IsRetryable reports whether the triggering operation is worth retrying.
// Allocation conflicts and store outages are transient; everything else is not.
func IsRetryable(err error) bool {
	return IsAllocationConflict(err) || IsStoreUnavailable(err)
}
