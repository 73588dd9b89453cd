package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewave/dispatch/pkg/logger"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DISPATCH_AUTH_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 900, cfg.RateLimit.AttemptWindowSeconds)
	assert.Equal(t, 300, cfg.RateLimit.BlockDurationSeconds)
	assert.Equal(t, "ratelimit", cfg.RateLimit.KeyPrefix)
	assert.Equal(t, int64(203), cfg.Sequence.Start)
	assert.Equal(t, "B", cfg.Sequence.Prefix)
	assert.Equal(t, "database", cfg.Sequence.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DISPATCH_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("DISPATCH_RATE_LIMIT_MAX_ATTEMPTS", "3")
	t.Setenv("DISPATCH_SEQUENCE_BACKEND", "redis")

	cfg, err := LoadConfig(logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, "redis", cfg.Sequence.Backend)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("DISPATCH_AUTH_JWT_SECRET", "")

	_, err := LoadConfig(logger.NewNoopLogger())
	assert.Error(t, err)
}

func TestConfigValidate_BadBackend(t *testing.T) {
	cfg := &Config{
		Auth:      AuthConfig{JWTSecret: "s"},
		RateLimit: RateLimitConfig{MaxAttempts: 10},
		Sequence:  SequenceConfig{Backend: "etcd", Start: 203},
	}
	assert.Error(t, cfg.Validate())
}
