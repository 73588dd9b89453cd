package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appservice "github.com/ridewave/dispatch/internal/application/service"
	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/infrastructure/audit"
	"github.com/ridewave/dispatch/internal/infrastructure/crypto"
	"github.com/ridewave/dispatch/internal/infrastructure/monitoring"
	"github.com/ridewave/dispatch/internal/infrastructure/persistence/postgres"
	redisstore "github.com/ridewave/dispatch/internal/infrastructure/persistence/redis"
	"github.com/ridewave/dispatch/internal/infrastructure/ratelimit"
	"github.com/ridewave/dispatch/internal/interfaces/http/handlers"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/logger"
)

type apiEnv struct {
	router *Router
	redis  *miniredis.Miniredis
	db     *gorm.DB
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, postgres.Migrate(db))

	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-at-least-32-bytes-long!",
			TokenTTL:    3600,
			TokenIssuer: "dispatch",
		},
		RateLimit: config.RateLimitConfig{
			Enabled:              true,
			MaxAttempts:          10,
			AttemptWindowSeconds: 900,
			BlockDurationSeconds: 300,
			KeyPrefix:            "ratelimit",
		},
		Sequence:    config.SequenceConfig{Backend: "database", Start: 203, Prefix: "B"},
		Idempotency: config.IdempotencyConfig{Enabled: true, TTLSeconds: 3600},
	}

	log := logger.NewNoopLogger()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	alloc := postgres.NewGormAllocator(db, &cfg.Sequence, log)
	bookingRepo := postgres.NewBookingRepository(db, alloc, &cfg.Sequence, log)
	userRepo := postgres.NewUserRepository(db, log)
	guard := ratelimit.NewRedisLoginGuard(client, &cfg.RateLimit, log)
	tokens := crypto.NewJWTManager(&cfg.Auth)
	blacklist := redisstore.NewTokenBlacklist(client, log)

	auditTrail := audit.NewGormAuditService(db, "test-audit-secret")
	authService := appservice.NewAuthAppService(userRepo, guard, tokens, blacklist, auditTrail, metrics, log)
	bookingService := appservice.NewBookingAppService(bookingRepo, auditTrail, metrics, log)

	r := NewRouter(cfg, log, metrics, otel.Tracer("test"), client, authService,
		handlers.NewHealthHandler(db, client),
		handlers.NewAuthHandler(authService),
		handlers.NewBookingHandler(bookingService),
	)

	hash, err := crypto.HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		ID:           uuid.NewString(),
		Email:        "admin@ridewave.example",
		PasswordHash: hash,
		Name:         "Admin",
		Role:         constants.RoleAdmin,
	}).Error)

	return &apiEnv{router: r, redis: s, db: db}
}

func (e *apiEnv) do(method, path, ip, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.Engine().ServeHTTP(w, req)
	return w
}

func (e *apiEnv) login(t *testing.T, ip, email, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	w := e.do("POST", "/api/v1/auth/login", ip, "", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		return w, ""
	}
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp.Token
}

func TestAPI_LoginAndBookingFlow(t *testing.T) {
	env := newAPIEnv(t)

	w, token := env.login(t, "203.0.113.7", "admin@ridewave.example", "s3cret-pass")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, token)

	create := env.do("POST", "/api/v1/bookings", "203.0.113.7", token, map[string]interface{}{
		"pickup_address":  "12 Harbour Road",
		"dropoff_address": "Airport Terminal 2",
		"pickup_at":       time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"passenger_name":  "Lena Voss",
	})
	require.Equal(t, http.StatusCreated, create.Code)

	var booking struct {
		ID            string `json:"id"`
		BookingNumber string `json:"booking_number"`
		Status        string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &booking))
	assert.Empty(t, booking.BookingNumber)

	pending := env.do("POST", "/api/v1/bookings/"+booking.ID+"/status", "203.0.113.7", token,
		map[string]string{"status": "pending_payment"})
	require.Equal(t, http.StatusOK, pending.Code)

	webhook := env.do("POST", "/api/v1/webhooks/payment", "", "", map[string]string{
		"event_id":   "evt-1",
		"booking_id": booking.ID,
		"status":     "succeeded",
	})
	require.Equal(t, http.StatusOK, webhook.Code)
	assert.Contains(t, webhook.Body.String(), `"B203"`)

	// A replayed delivery is absorbed by the idempotency middleware.
	replay := env.do("POST", "/api/v1/webhooks/payment", "", "", map[string]string{
		"event_id":   "evt-1",
		"booking_id": booking.ID,
		"status":     "succeeded",
	})
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Contains(t, replay.Body.String(), "duplicate")

	get := env.do("GET", "/api/v1/bookings/number/B203", "", token, nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), booking.ID)
}

func TestAPI_RateLimitResponseShape(t *testing.T) {
	env := newAPIEnv(t)
	ip := "198.51.100.9"

	for i := 0; i < 9; i++ {
		w, _ := env.login(t, ip, "admin@ridewave.example", "wrong")
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	w, _ := env.login(t, ip, "admin@ridewave.example", "wrong")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body struct {
		StatusCode   int    `json:"statusCode"`
		Message      string `json:"message"`
		Error        string `json:"error"`
		BlockedUntil int64  `json:"blockedUntil"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)
	assert.Equal(t, "Rate Limit Exceeded", body.Error)
	assert.Contains(t, body.Message, "Too many failed login attempts")
	assert.InDelta(t, time.Now().Add(5*time.Minute).UnixMilli(), body.BlockedUntil, float64(5*time.Second/time.Millisecond))

	// The block keys the client identity, not the account.
	ok, token := env.login(t, "203.0.113.50", "admin@ridewave.example", "s3cret-pass")
	require.Equal(t, http.StatusOK, ok.Code)
	require.NotEmpty(t, token)

	// An admin from an unblocked address can lift the block.
	unblock := env.do("POST", "/api/v1/admin/unblock", "203.0.113.50", token,
		map[string]string{"identity": ip})
	require.Equal(t, http.StatusOK, unblock.Code)

	after, _ := env.login(t, ip, "admin@ridewave.example", "s3cret-pass")
	assert.Equal(t, http.StatusOK, after.Code)
}

func TestAPI_UnauthenticatedBookingAccess(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do("GET", "/api/v1/bookings", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_LogoutRevokesToken(t *testing.T) {
	env := newAPIEnv(t)

	w, token := env.login(t, "203.0.113.7", "admin@ridewave.example", "s3cret-pass")
	require.Equal(t, http.StatusOK, w.Code)

	logout := env.do("POST", "/api/v1/auth/logout", "", token, nil)
	require.Equal(t, http.StatusNoContent, logout.Code)

	after := env.do("GET", "/api/v1/bookings", "", token, nil)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestAPI_HealthEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	live := env.do("GET", "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, live.Code)

	ready := env.do("GET", "/readyz", "", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)

	env.redis.Close()
	down := env.do("GET", "/readyz", "", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}
