package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

var _ service.TokenBlacklist = (*TokenBlacklist)(nil)

const blacklistKeyPrefix = "auth:revoked:"

// TokenBlacklist stores revoked session token IDs in Redis. Entries expire
// together with the token they revoke, so the set cleans itself up.
type TokenBlacklist struct {
	client goredis.UniversalClient
	logger logger.Logger
}

// NewTokenBlacklist creates a Redis-backed token blacklist.
func NewTokenBlacklist(client goredis.UniversalClient, log logger.Logger) *TokenBlacklist {
	return &TokenBlacklist{
		client: client,
		logger: log.WithComponent("token_blacklist"),
	}
}

// Revoke marks a token ID as revoked until its expiry time. Tokens already
// past expiry need no entry.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.ErrStoreUnavailable("failed to revoke token").WithCause(err)
	}
	b.logger.Info(ctx, "token revoked", logger.String("jti", jti))
	return nil
}

// IsRevoked reports whether a token ID has been revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.ErrStoreUnavailable("failed to check token revocation").WithCause(err)
	}
	return n > 0, nil
}
