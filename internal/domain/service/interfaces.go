// Package service defines domain service interfaces. Implementations live
// under internal/infrastructure and are wired together in cmd/server.
package service

import (
	"context"
	"time"

	"github.com/ridewave/dispatch/internal/domain/models"
)

// BlockStatus describes the block state of a client identity.
type BlockStatus struct {
	// Blocked is true when a live block exists for the identity.
	Blocked bool

	// BlockedUntil is the wall-clock time the block expires. Zero when not blocked.
	BlockedUntil time.Time

	// MinutesRemaining is ceil(remaining TTL / 60s), at least 1 while blocked.
	MinutesRemaining int
}

// LoginGuard tracks failed login attempts per client identity and enforces
// temporary blocks. All state lives in the shared counter store; nothing is
// cached in-process, so the guarantees hold across horizontally scaled
// instances.
//
// Failure semantics: store errors surface to the caller, which must fail open
// on the enforcement path (an outage of the store must not become a denial of
// service against legitimate users). This availability-over-strictness
// trade-off is deliberate.
type LoginGuard interface {
	// CheckAllowed returns the block status of identity. An empty identity is
	// never blocked (fail open: with no usable client address there is nothing
	// to key the state on).
	CheckAllowed(ctx context.Context, identity string) (*BlockStatus, error)

	// RecordFailedAttempt counts a failed login. Crossing the attempt threshold
	// installs a block and removes the counter as one atomic unit; the returned
	// status reports the freshly installed block in that case. A no-op for
	// empty identities.
	RecordFailedAttempt(ctx context.Context, identity string) (*BlockStatus, error)

	// ClearAttempts removes the attempt counter after a successful login. It
	// never removes an installed block.
	ClearAttempts(ctx context.Context, identity string) error

	// Unblock removes a block and any counter early. Administrative use only.
	Unblock(ctx context.Context, identity string) error
}

// SequenceAllocator hands out booking number sequence values. Next is
// linearizable across the whole deployment: under N concurrent calls it
// returns N distinct consecutive integers. Values are never reused; a value
// lost to a crashed transaction leaves a gap, which is acceptable, while a
// duplicate never is.
type SequenceAllocator interface {
	// Next advances the sequence and returns the new value. The first call
	// ever returns the configured start value.
	Next(ctx context.Context) (int64, error)
}

// TokenManager issues and verifies operator session tokens.
type TokenManager interface {
	// Issue creates a signed session token for the given account.
	Issue(user *models.User) (token string, jti string, expiresAt time.Time, err error)

	// Verify parses and validates a token, returning its claims.
	Verify(token string) (*SessionClaims, error)
}

// SessionClaims are the verified claims of a session token.
type SessionClaims struct {
	UserID    string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// AuditService records security-relevant events. Recording is best effort
// from the caller's perspective: a failed write is logged and must never fail
// the operation that produced the event.
type AuditService interface {
	// LogEvent persists an audit event.
	LogEvent(ctx context.Context, event models.AuditEvent) error
}

// TokenBlacklist invalidates session tokens before their natural expiry.
type TokenBlacklist interface {
	// Revoke marks a token ID as revoked until its expiry time.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether a token ID has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
