// Package service implements the application services that orchestrate domain
// operations behind the HTTP and Kafka boundaries.
package service

import (
	"context"
	"strconv"

	"github.com/ridewave/dispatch/internal/application/dto"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/repository"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/internal/infrastructure/crypto"
	"github.com/ridewave/dispatch/internal/infrastructure/monitoring"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

// AuthAppService handles operator sign-in, sign-out, and block administration.
//
// The login guard wraps only the login path. Its store errors never fail a
// login: enforcement degrades to allow (an unreachable counter store must not
// lock every operator out), while counting degrades to a lost data point.
type AuthAppService struct {
	users     repository.UserRepository
	guard     service.LoginGuard
	tokens    service.TokenManager
	blacklist service.TokenBlacklist
	audit     service.AuditService
	metrics   *monitoring.Metrics
	logger    logger.Logger
}

// NewAuthAppService wires the authentication application service.
func NewAuthAppService(
	users repository.UserRepository,
	guard service.LoginGuard,
	tokens service.TokenManager,
	blacklist service.TokenBlacklist,
	audit service.AuditService,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *AuthAppService {
	return &AuthAppService{
		users:     users,
		guard:     guard,
		tokens:    tokens,
		blacklist: blacklist,
		audit:     audit,
		metrics:   metrics,
		logger:    log.WithComponent("auth_service"),
	}
}

// recordAudit persists a security event. Audit failures are logged and
// swallowed; they must never fail the operation that produced the event.
func (s *AuthAppService) recordAudit(ctx context.Context, event models.AuditEvent) {
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "failed to record audit event",
			logger.String("action", event.Action),
			logger.Error(err),
		)
	}
}

// Login authenticates an operator. identity is the derived client identity
// the guard keys its state on; empty means unknown and skips enforcement.
func (s *AuthAppService) Login(ctx context.Context, identity string, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	status, err := s.guard.CheckAllowed(ctx, identity)
	if err != nil {
		s.metrics.GuardStoreErrors.Inc()
		s.logger.Warn(ctx, "login guard check failed, allowing request",
			logger.String("identity", identity),
			logger.Error(err),
		)
		status = &service.BlockStatus{}
	}
	if status.Blocked {
		s.metrics.RateLimitRejections.Inc()
		s.metrics.RecordLoginAttempt("blocked")
		s.logger.Warn(ctx, "login rejected by active block",
			logger.String("identity", identity),
			logger.Int("minutes_remaining", status.MinutesRemaining),
		)
		return nil, errors.ErrRateLimitExceeded(status.BlockedUntil, status.MinutesRemaining)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, s.failLogin(ctx, identity)
		}
		return nil, err
	}
	if !crypto.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, s.failLogin(ctx, identity)
	}

	if err := s.guard.ClearAttempts(ctx, identity); err != nil {
		s.metrics.GuardStoreErrors.Inc()
		s.logger.Warn(ctx, "failed to clear attempt counter",
			logger.String("identity", identity),
			logger.Error(err),
		)
	}

	token, _, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, errors.ErrServerError("failed to issue session token").WithCause(err)
	}

	s.metrics.RecordLoginAttempt("success")
	s.logger.Info(ctx, "operator signed in",
		logger.String("user_id", user.ID),
		logger.String("identity", identity),
	)
	return dto.NewLoginResponse(token, expiresAt, user), nil
}

// failLogin counts the failure and returns the credential error. When this
// failure crosses the attempt threshold, the freshly installed block is
// reported instead, so the caller sees the rejection immediately rather than
// on the next try.
func (s *AuthAppService) failLogin(ctx context.Context, identity string) error {
	s.metrics.RecordLoginAttempt("failure")

	status, err := s.guard.RecordFailedAttempt(ctx, identity)
	if err != nil {
		s.metrics.GuardStoreErrors.Inc()
		s.logger.Warn(ctx, "failed to record login attempt",
			logger.String("identity", identity),
			logger.Error(err),
		)
		return errors.ErrInvalidCredentials()
	}
	if status != nil && status.Blocked {
		s.metrics.RecordBlockInstalled("threshold")
		s.logger.Warn(ctx, "login block installed",
			logger.String("identity", identity),
			logger.Time("blocked_until", status.BlockedUntil),
		)
		s.recordAudit(ctx, models.AuditEvent{
			Action:  "auth.block_installed",
			Subject: identity,
			Detail:  `{"blocked_until":` + strconv.FormatInt(status.BlockedUntil.UnixMilli(), 10) + `}`,
		})
		return errors.ErrRateLimitExceeded(status.BlockedUntil, status.MinutesRemaining)
	}
	return errors.ErrInvalidCredentials()
}

// Logout revokes the current session token.
func (s *AuthAppService) Logout(ctx context.Context, claims *service.SessionClaims) error {
	if err := s.blacklist.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info(ctx, "operator signed out", logger.String("user_id", claims.UserID))
	return nil
}

// Unblock lifts a login block and clears the attempt counter for an identity.
// Exposed to admins only; authorization happens at the HTTP boundary.
func (s *AuthAppService) Unblock(ctx context.Context, identity string) error {
	if identity == "" {
		return errors.ErrInvalidRequest("identity must not be empty")
	}
	if err := s.guard.Unblock(ctx, identity); err != nil {
		return err
	}
	s.logger.Info(ctx, "login block lifted", logger.String("identity", identity))
	s.recordAudit(ctx, models.AuditEvent{
		Action:  "auth.block_lifted",
		Subject: identity,
	})
	return nil
}

// VerifySession validates a token and checks it has not been revoked.
func (s *AuthAppService) VerifySession(ctx context.Context, token string) (*service.SessionClaims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		// The blacklist is advisory; an unreachable store must not sign
		// every operator out.
		s.logger.Warn(ctx, "revocation check failed, accepting token", logger.Error(err))
		return claims, nil
	}
	if revoked {
		return nil, errors.ErrInvalidCredentials()
	}
	return claims, nil
}
