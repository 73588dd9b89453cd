// Package router assembles the Gin engine and owns the HTTP server lifecycle.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/infrastructure/monitoring"
	"github.com/ridewave/dispatch/internal/interfaces/http/handlers"
	"github.com/ridewave/dispatch/internal/interfaces/http/middleware"
	"github.com/ridewave/dispatch/pkg/logger"
)

// Router wires the middleware chain and the API routes.
type Router struct {
	engine  *gin.Engine
	config  *config.Config
	logger  logger.Logger
	server  *http.Server
	health  *handlers.HealthHandler
	auth    *handlers.AuthHandler
	booking *handlers.BookingHandler
}

// NewRouter creates the router with all routes registered.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	metrics *monitoring.Metrics,
	tracer trace.Tracer,
	redisClient redis.UniversalClient,
	verifier middleware.SessionVerifier,
	health *handlers.HealthHandler,
	auth *handlers.AuthHandler,
	booking *handlers.BookingHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:  engine,
		config:  cfg,
		logger:  log.WithComponent("router"),
		health:  health,
		auth:    auth,
		booking: booking,
	}

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.ClientIdentity(),
		middleware.RequestLogger(log),
		middleware.Observability(tracer, metrics),
		cors.Default(),
	)

	engine.GET("/healthz", health.Live)
	engine.GET("/readyz", health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(engine)

	api := engine.Group("/api/v1")
	{
		api.POST("/auth/login", auth.Login)
		api.POST("/webhooks/payment",
			middleware.Idempotency(redisClient, &cfg.Idempotency, log),
			booking.PaymentWebhook,
		)

		authed := api.Group("", middleware.JWTAuth(verifier))
		{
			authed.POST("/auth/logout", auth.Logout)
			authed.POST("/bookings", booking.Create)
			authed.GET("/bookings", booking.List)
			authed.GET("/bookings/:id", booking.Get)
			authed.GET("/bookings/number/:number", booking.GetByNumber)
			authed.POST("/bookings/:id/status", booking.Transition)

			admin := authed.Group("/admin", middleware.RequireAdmin())
			admin.POST("/unblock", auth.Unblock)
		}
	}

	return r
}

// Engine exposes the underlying Gin engine, mainly for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Start runs the HTTP server until the listener fails or Shutdown is called.
func (r *Router) Start() error {
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(r.config.Server.WriteTimeout) * time.Second,
	}

	r.logger.Info(context.Background(), "http server listening", logger.String("addr", addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
