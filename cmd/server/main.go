package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kidcoins/internal/config"
	"kidcoins/internal/database"
	"kidcoins/internal/events"
	"kidcoins/internal/handlers"
	"kidcoins/internal/logger"
	"kidcoins/internal/metrics"
	"kidcoins/internal/security"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	status := handlers.NewStartupStatus()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	status.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	status.CompleteStep(handlers.StepDatabase)
	log.WithField("type", cfg.DatabaseType).Info("database connection established")

	// Run migrations
	status.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	status.CompleteStep(handlers.StepMigrations)
	log.Info("migrations completed successfully")

	// Token revocation and domain events
	status.SetCurrentStep(handlers.StepBrokers)
	revoked := newRevocationList(ctx, cfg, log)
	if closer, ok := revoked.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	publisher := newPublisher(cfg, log)
	defer publisher.Close()
	status.CompleteStep(handlers.StepBrokers)

	// Initialize services
	status.SetCurrentStep(handlers.StepServices)
	emailService, err := service.NewEmailService(ctx, cfg.SESRegion, cfg.SESFromEmail, "KidCoins", log)
	if err != nil {
		log.WithError(err).Warn("email service disabled")
	}

	m := metrics.New()
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.SessionDuration)
	svc := service.New(
		service.Options{DB: db, Logger: log, Events: publisher, Metrics: m},
		service.Settings{StreakLocation: cfg.StreakLocation(), InviteCodeTTL: cfg.InviteCodeTTL},
		tokens, revoked, emailService,
	)
	status.CompleteStep(handlers.StepServices)

	// Sign-in and invitation codes allow 10 attempts per minute per IP
	limiter := security.NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	handler := handlers.NewRouter(handlers.RouterConfig{
		Services: svc,
		Logger:   log,
		Metrics:  m,
		Limiter:  limiter,
		Health:   handlers.NewHealthHandler(status, db, db, log),
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background invitation code sweep
	go sweepExpiredCodes(ctx, svc.Family, log)

	go func() {
		log.Infof("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	status.MarkReady()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info("server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// newRevocationList uses redis when configured and falls back to memory
func newRevocationList(ctx context.Context, cfg *config.Config, log *logrus.Logger) security.RevocationList {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, sign-outs are kept in memory")
		return security.NewMemoryRevocationList()
	}

	list, err := security.NewRedisRevocationList(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to configure redis: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := list.Ping(pingCtx); err != nil {
		log.Fatalf("Failed to reach redis: %v", err)
	}
	log.Info("token revocation list backed by redis")
	return list
}

// newPublisher connects to RabbitMQ when configured
func newPublisher(cfg *config.Config, log *logrus.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		log.Info("AMQP_URL not set, domain events are discarded")
		return events.NoopPublisher{}
	}

	publisher, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	if err != nil {
		log.WithError(err).Warn("event broker unavailable, domain events are discarded")
		return events.NoopPublisher{}
	}
	log.WithField("queue", cfg.AMQPQueue).Info("publishing domain events to rabbitmq")
	return publisher
}

// sweepExpiredCodes periodically removes expired invitation codes
func sweepExpiredCodes(ctx context.Context, family *service.FamilyService, log *logrus.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := family.SweepExpiredCodes(ctx); err != nil {
				log.WithError(err).Error("error sweeping expired invitation codes")
			}
		}
	}
}
