// Command server runs the dispatch API: booking lifecycle management with
// gapless booking number allocation, and operator authentication guarded by
// a per-client login attempt limiter.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ridewave/dispatch/internal/application/service"
	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/repository"
	domainservice "github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/internal/infrastructure/audit"
	"github.com/ridewave/dispatch/internal/infrastructure/consumers"
	"github.com/ridewave/dispatch/internal/infrastructure/crypto"
	"github.com/ridewave/dispatch/internal/infrastructure/monitoring"
	"github.com/ridewave/dispatch/internal/infrastructure/persistence/postgres"
	redisstore "github.com/ridewave/dispatch/internal/infrastructure/persistence/redis"
	"github.com/ridewave/dispatch/internal/infrastructure/ratelimit"
	"github.com/ridewave/dispatch/internal/infrastructure/sequence"
	"github.com/ridewave/dispatch/internal/interfaces/http/handlers"
	"github.com/ridewave/dispatch/internal/interfaces/http/router"
	"github.com/ridewave/dispatch/pkg/logger"
)

func main() {
	bootLog, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(bootLog)
	if err != nil {
		bootLog.Fatal(context.Background(), "failed to load configuration", err)
	}

	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		bootLog.Fatal(context.Background(), "failed to initialize logger", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, log)
	if err != nil {
		log.Fatal(ctx, "failed to initialize tracing", err)
	}

	db, err := postgres.NewDBConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal(ctx, "failed to connect to database", err)
	}

	redisClient, err := redisstore.NewClient(&cfg.Redis, log)
	if err != nil {
		log.Fatal(ctx, "failed to connect to redis", err)
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// The sequence backend decides where booking numbers are coordinated:
	// the database allocator joins the confirming transaction, the Redis
	// allocator trades that coupling for a single atomic counter.
	var allocator domainservice.SequenceAllocator
	switch cfg.Sequence.Backend {
	case "redis":
		allocator = sequence.NewRedisAllocator(redisClient, &cfg.Sequence, log)
	default:
		allocator = postgres.NewGormAllocator(db, &cfg.Sequence, log)
	}

	var bookingRepo repository.BookingRepository = postgres.NewBookingRepository(db, allocator, &cfg.Sequence, log)
	userRepo := postgres.NewUserRepository(db, log)

	guard := ratelimit.NewRedisLoginGuard(redisClient, &cfg.RateLimit, log)
	tokens := crypto.NewJWTManager(&cfg.Auth)
	blacklist := redisstore.NewTokenBlacklist(redisClient, log)

	var auditTrail domainservice.AuditService
	var auditProducer *audit.KafkaProducer
	switch {
	case !cfg.Audit.Enabled:
		auditTrail = audit.NewNoopAuditService()
	case cfg.Audit.Sink == "kafka":
		auditProducer = audit.NewKafkaProducer(&cfg.Kafka, cfg.Audit.SigningSecret, log)
		auditTrail = auditProducer
	default:
		auditTrail = audit.NewGormAuditService(db, cfg.Audit.SigningSecret)
	}

	authService := service.NewAuthAppService(userRepo, guard, tokens, blacklist, auditTrail, metrics, log)
	bookingService := service.NewBookingAppService(bookingRepo, auditTrail, metrics, log)

	healthHandler := handlers.NewHealthHandler(db, redisClient)
	authHandler := handlers.NewAuthHandler(authService)
	bookingHandler := handlers.NewBookingHandler(bookingService)

	r := router.NewRouter(cfg, log, metrics, tracing.Tracer(), redisClient,
		authService, healthHandler, authHandler, bookingHandler)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return r.Start()
	})

	var consumer *consumers.PaymentConsumer
	if cfg.Kafka.Enabled {
		consumer = consumers.NewPaymentConsumer(&cfg.Kafka, bookingService, log)
		group.Go(func() error {
			consumer.Start(groupCtx)
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if consumer != nil {
			consumer.Stop()
		}
		if err := r.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "http server shutdown failed", err)
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "tracing shutdown failed", err)
		}
		if auditProducer != nil {
			_ = auditProducer.Close()
		}
		_ = redisClient.Close()
		return nil
	})

	log.Info(ctx, "dispatch service started",
		logger.String("sequence_backend", cfg.Sequence.Backend),
		logger.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	if err := group.Wait(); err != nil {
		log.Fatal(context.Background(), "service exited with error", err)
	}
	log.Info(context.Background(), "dispatch service stopped")
}
