package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/logger"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the DISPATCH_ prefix with underscores in place of
// dots, e.g. DISPATCH_RATE_LIMIT_MAX_ATTEMPTS.
func LoadConfig(log logger.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/dispatch/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Debug(context.Background(), "no config file found, using defaults and environment")
	}

	v.SetEnvPrefix("DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Re-read on config file changes so operational knobs (log level, guard
	// thresholds) can be tuned without a restart. Consumers of *Config hold a
	// pointer, so only fields read per-operation pick the change up.
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info(context.Background(), "config file changed, reloading",
			logger.String("file", e.Name),
		)
		var updated Config
		if err := v.Unmarshal(&updated); err != nil {
			log.Warn(context.Background(), "config reload failed, keeping previous values", logger.Error(err))
			return
		}
		if err := updated.Validate(); err != nil {
			log.Warn(context.Background(), "reloaded config is invalid, keeping previous values", logger.Error(err))
			return
		}
		cfg.RateLimit = updated.RateLimit
		cfg.Log = updated.Log
	})
	v.WatchConfig()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.shutdown_timeout", 15)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dispatch")
	v.SetDefault("database.database", "dispatch")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)

	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	// Empty default keeps the key visible to Unmarshal so the env override
	// (DISPATCH_AUTH_JWT_SECRET) is picked up; Validate rejects the empty value.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 3600)
	v.SetDefault("auth.token_issuer", "dispatch")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_attempts", constants.DefaultMaxLoginAttempts)
	v.SetDefault("rate_limit.attempt_window_seconds", int(constants.DefaultAttemptWindow.Seconds()))
	v.SetDefault("rate_limit.block_duration_seconds", int(constants.DefaultBlockDuration.Seconds()))
	v.SetDefault("rate_limit.key_prefix", constants.RateLimitKeyPrefix)

	v.SetDefault("sequence.backend", "database")
	v.SetDefault("sequence.start", constants.DefaultSequenceStart)
	v.SetDefault("sequence.prefix", constants.DefaultSequencePrefix)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.payment_topic", "payment-events")
	v.SetDefault("kafka.group_id", "dispatch-payment-consumers")
	v.SetDefault("kafka.audit_topic", "audit-events")

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.sink", "database")
	v.SetDefault("audit.signing_secret", "")

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl_seconds", 86400)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", "dispatch")
	v.SetDefault("tracing.sample_ratio", 0.1)
}
