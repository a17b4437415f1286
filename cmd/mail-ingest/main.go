package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dealerportal_backend/internal/dedup"
	"dealerportal_backend/internal/email"
	"dealerportal_backend/internal/events"
	ingestionservice "dealerportal_backend/internal/ingestion/service"
	leadsrepo "dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/internal/mailbox"
	"dealerportal_backend/internal/notification"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/db"
	"dealerportal_backend/platform/logger"
)

// mail-ingest polls the configured IMAP inbox for ADF lead emails and runs
// them through the same ingestion pipeline as the webhook. Duplicate
// suppression makes it safe to run alongside webhook delivery of the same
// leads.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	if !cfg.IsMailboxEnabled() {
		log.Error("IMAP_HOST not configured; nothing to poll")
		os.Exit(1)
	}
	log.Info("starting mail ingest", "env", cfg.Env, "host", cfg.IMAPHost, "folder", cfg.IMAPFolder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg, cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	leadStore := leadsrepo.New(pool)
	notification.NewModule(pool, leadStore, sender, cfg, eventBus, log)

	ingestSvc := ingestionservice.New(leadStore, dedup.New(pool), cfg, eventBus, log)

	poller := mailbox.NewPoller(ingestSvc, cfg, log)
	poller.Run(ctx)
	log.Info("mail ingest stopped")
}
