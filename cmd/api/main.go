package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealerportal_backend/internal/contacts"
	"dealerportal_backend/internal/email"
	"dealerportal_backend/internal/events"
	apphttp "dealerportal_backend/internal/http"
	"dealerportal_backend/internal/http/router"
	"dealerportal_backend/internal/ingestion"
	"dealerportal_backend/internal/leads"
	"dealerportal_backend/internal/notification"
	"dealerportal_backend/internal/scheduler"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/db"
	"dealerportal_backend/platform/logger"
	"dealerportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg, cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, cfg, eventBus, val, log)
	contactsModule := contacts.NewModule(pool, eventBus, val, log)
	ingestionModule := ingestion.NewModule(pool, leadsModule.Repository(), cfg, eventBus, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notification.NewModule(pool, leadsModule.Repository(), sender, cfg, eventBus, log)

	// Outbox dispatcher feeds parked deliveries to the worker via asynq
	if cfg.GetRedisURL() != "" {
		outboxDispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
		if err != nil {
			log.Error("failed to initialize outbox dispatcher", "error", err)
			panic("failed to initialize outbox dispatcher: " + err.Error())
		}
		defer func() {
			_ = outboxDispatcher.Close()
		}()
		go outboxDispatcher.Run(ctx)
	} else {
		log.Warn("REDIS_URL not configured; notification retry dispatch disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			contactsModule,
			ingestionModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
