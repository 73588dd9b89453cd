// Package constants defines system-wide constants for the dispatch service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Booking Status Constants
// ================================================================================

// BookingStatus represents the lifecycle status of a booking.
type BookingStatus string

const (
	// BookingStatusCreated indicates the booking has been placed but not yet quoted.
	BookingStatusCreated BookingStatus = "created"

	// BookingStatusPendingPayment indicates the booking is waiting for payment.
	BookingStatusPendingPayment BookingStatus = "pending_payment"

	// BookingStatusConfirmed indicates payment has been confirmed. Entering this
	// state is the unique trigger for booking number allocation.
	BookingStatusConfirmed BookingStatus = "confirmed"

	// BookingStatusInProgress indicates the transfer is underway.
	BookingStatusInProgress BookingStatus = "in_progress"

	// BookingStatusCompleted indicates the transfer has finished.
	BookingStatusCompleted BookingStatus = "completed"

	// BookingStatusCancelled indicates the booking was cancelled. An already
	// assigned booking number is kept; sequence values are never reused.
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusCreated, BookingStatusPendingPayment, BookingStatusConfirmed,
		BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// allowedTransitions maps each status to the statuses it may move to.
// Confirmed allows re-entry so replayed payment notifications stay idempotent,
// and a cancelled booking can be reinstated to confirmed without losing or
// re-allocating its number.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusCreated:        {BookingStatusPendingPayment, BookingStatusCancelled},
	BookingStatusPendingPayment: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:      {BookingStatusConfirmed, BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress:     {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted:      {},
	BookingStatusCancelled:      {BookingStatusConfirmed},
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ================================================================================
// Login Guard Constants
// ================================================================================

const (
	// DefaultMaxLoginAttempts is the number of failed attempts that installs a block.
	DefaultMaxLoginAttempts = 10

	// DefaultAttemptWindow is the rolling window during which failures accumulate.
	// The window re-anchors on every failure.
	DefaultAttemptWindow = 15 * time.Minute

	// DefaultBlockDuration is how long an identity stays blocked.
	DefaultBlockDuration = 5 * time.Minute

	// RateLimitKeyPrefix is the Redis key namespace of the login guard.
	// Changing it orphans live counters and blocks, so treat it as frozen.
	RateLimitKeyPrefix = "ratelimit"
)

// ================================================================================
// Booking Sequence Constants
// ================================================================================

const (
	// DefaultSequenceStart is the first booking number ever assigned.
	DefaultSequenceStart = 203

	// DefaultSequencePrefix is the letter prepended to the sequence integer.
	DefaultSequencePrefix = "B"

	// SequenceRedisKey is the Redis key holding the last assigned sequence value.
	SequenceRedisKey = "booking:sequence"
)

// ================================================================================
// User Role Constants
// ================================================================================

// UserRole represents the access level of an operator account.
type UserRole string

const (
	// RoleAdmin can manage blocks and all bookings.
	RoleAdmin UserRole = "admin"

	// RoleDispatcher can manage bookings.
	RoleDispatcher UserRole = "dispatcher"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type used for values stored on request contexts.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request correlation ID.
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyClientIdentity carries the derived client identity string.
	// Empty value means the identity is unknown and the guard fails open.
	ContextKeyClientIdentity ContextKey = "client_identity"

	// ContextKeyUserID carries the authenticated operator ID.
	ContextKeyUserID ContextKey = "user_id"

	// ContextKeyUserRole carries the authenticated operator role.
	ContextKeyUserRole ContextKey = "user_role"

	// ContextKeySessionClaims carries the verified session claims.
	ContextKeySessionClaims ContextKey = "session_claims"
)

// ================================================================================
// Error Codes
// ================================================================================

// ErrorCode is a machine-readable error identifier surfaced on API responses.
type ErrorCode string

const (
	ErrCodeInvalidRequest     ErrorCode = "invalid_request"
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	ErrCodeForbidden          ErrorCode = "forbidden"
	ErrCodeNotFound           ErrorCode = "not_found"
	ErrCodeRateLimitExceeded  ErrorCode = "rate_limit_exceeded"
	ErrCodeAllocationConflict ErrorCode = "allocation_conflict"
	ErrCodeStoreUnavailable   ErrorCode = "store_unavailable"
	ErrCodeServerError        ErrorCode = "server_error"
)
