package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Sequence    SequenceConfig    `mapstructure:"sequence"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`      // in seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`     // in seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`  // in seconds
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in minutes
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`
	DialTimeout  int      `mapstructure:"dial_timeout"`  // in seconds
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenTTL    int    `mapstructure:"token_ttl"` // in seconds
	TokenIssuer string `mapstructure:"token_issuer"`
}

// RateLimitConfig tunes the login guard. All knobs are externally tunable;
// the defaults match the documented abuse policy.
type RateLimitConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	MaxAttempts          int    `mapstructure:"max_attempts"`
	AttemptWindowSeconds int    `mapstructure:"attempt_window_seconds"`
	BlockDurationSeconds int    `mapstructure:"block_duration_seconds"`
	KeyPrefix            string `mapstructure:"key_prefix"`
}

func (c *RateLimitConfig) AttemptWindow() time.Duration {
	return time.Duration(c.AttemptWindowSeconds) * time.Second
}

func (c *RateLimitConfig) BlockDuration() time.Duration {
	return time.Duration(c.BlockDurationSeconds) * time.Second
}

// SequenceConfig tunes the booking number allocator. Backend selects the
// coordination substrate: "redis" (atomic INCR) or "database" (row-locked
// sequence table bound to the booking transaction).
type SequenceConfig struct {
	Backend string `mapstructure:"backend"`
	Start   int64  `mapstructure:"start"`
	Prefix  string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	PaymentTopic string   `mapstructure:"payment_topic"`
	AuditTopic   string   `mapstructure:"audit_topic"`
	GroupID      string   `mapstructure:"group_id"`
}

// AuditConfig controls the security event trail. Sink selects where events
// go: "database" (audit_events table) or "kafka" (the configured audit
// topic). SigningSecret enables tamper-evident HMAC signatures when set.
type AuditConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Sink          string `mapstructure:"sink"`
	SigningSecret string `mapstructure:"signing_secret"`
}

type IdempotencyConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

func (c *IdempotencyConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("rate_limit.max_attempts must be positive")
	}
	if c.Sequence.Start <= 0 {
		return fmt.Errorf("sequence.start must be positive")
	}
	switch c.Sequence.Backend {
	case "redis", "database":
	default:
		return fmt.Errorf("sequence.backend must be \"redis\" or \"database\", got %q", c.Sequence.Backend)
	}
	if c.Audit.Enabled {
		switch c.Audit.Sink {
		case "database":
		case "kafka":
			if c.Kafka.AuditTopic == "" {
				return fmt.Errorf("kafka.audit_topic is required for the kafka audit sink")
			}
		default:
			return fmt.Errorf("audit.sink must be \"database\" or \"kafka\", got %q", c.Audit.Sink)
		}
	}
	return nil
}
