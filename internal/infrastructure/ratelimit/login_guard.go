// Package ratelimit implements the login abuse guard on Redis: per-identity
// failed-attempt counting with a rolling window, threshold-triggered blocks,
// and TTL-based automatic unblocking.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

var _ service.LoginGuard = (*RedisLoginGuard)(nil)

// RedisLoginGuard implements service.LoginGuard on a shared Redis instance.
// Keys: {prefix}:attempts:{identity} holds the failed-attempt count with the
// attempt window as TTL; {prefix}:blocked:{identity} is the block marker with
// the block duration as TTL. For a given identity at most one of the two is
// live: installing a block deletes the counter in the same Lua script.
type RedisLoginGuard struct {
	client redis.UniversalClient
	cfg    *config.RateLimitConfig
	logger logger.Logger
}

// recordAttemptScript atomically increments the attempt counter and re-anchors
// its TTL to the attempt window. When the count reaches the threshold it
// installs the block and deletes the counter in the same script execution,
// returning -1. No reader can observe a count at the threshold without the
// block being present.
var recordAttemptScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[1])
if count >= tonumber(ARGV[2]) then
    redis.call('SET', KEYS[2], '1', 'EX', ARGV[3])
    redis.call('DEL', KEYS[1])
    return -1
end
return count
`)

// NewRedisLoginGuard creates a Redis-backed login guard.
func NewRedisLoginGuard(client redis.UniversalClient, cfg *config.RateLimitConfig, log logger.Logger) *RedisLoginGuard {
	return &RedisLoginGuard{
		client: client,
		cfg:    cfg,
		logger: log.WithComponent("login_guard"),
	}
}

// CheckAllowed reports whether identity may attempt a login. It must run
// before credential verification on every login attempt.
func (g *RedisLoginGuard) CheckAllowed(ctx context.Context, identity string) (*service.BlockStatus, error) {
	if identity == "" {
		return &service.BlockStatus{}, nil
	}

	exists, err := g.client.Exists(ctx, g.blockedKey(identity)).Result()
	if err != nil {
		return nil, errors.ErrStoreUnavailable("block status check failed").WithCause(err)
	}
	if exists == 0 {
		return &service.BlockStatus{}, nil
	}

	ttl, err := g.client.TTL(ctx, g.blockedKey(identity)).Result()
	if err != nil {
		return nil, errors.ErrStoreUnavailable("block TTL read failed").WithCause(err)
	}
	// A live blocked key with a non-positive TTL is a store inconsistency.
	// Treat it as blocked with the minimum remaining time, never as an allow.
	if ttl <= 0 {
		ttl = time.Minute
	}

	status := g.blockStatus(ttl)
	g.logger.Debug(ctx, "login attempt rejected by active block",
		logger.String("identity", identity),
		logger.Int("minutes_remaining", status.MinutesRemaining),
	)
	return status, nil
}

// RecordFailedAttempt counts a failed login for identity. When the count
// reaches the configured maximum the block is installed atomically with the
// counter deletion, and the returned status describes the new block.
func (g *RedisLoginGuard) RecordFailedAttempt(ctx context.Context, identity string) (*service.BlockStatus, error) {
	if identity == "" {
		return &service.BlockStatus{}, nil
	}

	res, err := recordAttemptScript.Run(ctx, g.client,
		[]string{g.attemptsKey(identity), g.blockedKey(identity)},
		int(g.cfg.AttemptWindow().Seconds()),
		g.cfg.MaxAttempts,
		int(g.cfg.BlockDuration().Seconds()),
	).Int64()
	if err != nil {
		return nil, errors.ErrStoreUnavailable("failed attempt increment failed").WithCause(err)
	}

	if res == -1 {
		status := g.blockStatus(g.cfg.BlockDuration())
		g.logger.Warn(ctx, "login block installed",
			logger.String("identity", identity),
			logger.Int("max_attempts", g.cfg.MaxAttempts),
			logger.Duration("block_duration", g.cfg.BlockDuration()),
		)
		return status, nil
	}

	g.logger.Debug(ctx, "failed login attempt recorded",
		logger.String("identity", identity),
		logger.Int64("attempts", res),
	)
	return &service.BlockStatus{}, nil
}

// ClearAttempts removes the attempt counter for identity. The block key is
// left untouched: a successful authentication must not lift a block.
func (g *RedisLoginGuard) ClearAttempts(ctx context.Context, identity string) error {
	if identity == "" {
		return nil
	}
	if err := g.client.Del(ctx, g.attemptsKey(identity)).Err(); err != nil {
		return errors.ErrStoreUnavailable("attempt counter delete failed").WithCause(err)
	}
	return nil
}

// Unblock removes the block and the counter for identity ahead of the TTL.
func (g *RedisLoginGuard) Unblock(ctx context.Context, identity string) error {
	if identity == "" {
		return nil
	}
	if err := g.client.Del(ctx, g.blockedKey(identity), g.attemptsKey(identity)).Err(); err != nil {
		return errors.ErrStoreUnavailable("unblock failed").WithCause(err)
	}
	g.logger.Info(ctx, "identity unblocked", logger.String("identity", identity))
	return nil
}

func (g *RedisLoginGuard) blockStatus(remaining time.Duration) *service.BlockStatus {
	minutes := int(math.Ceil(remaining.Seconds() / 60))
	if minutes < 1 {
		minutes = 1
	}
	return &service.BlockStatus{
		Blocked:          true,
		BlockedUntil:     time.Now().Add(remaining),
		MinutesRemaining: minutes,
	}
}

func (g *RedisLoginGuard) attemptsKey(identity string) string {
	return g.cfg.KeyPrefix + ":attempts:" + identity
}

func (g *RedisLoginGuard) blockedKey(identity string) string {
	return g.cfg.KeyPrefix + ":blocked:" + identity
}
