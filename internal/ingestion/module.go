// Package ingestion provides the inbound lead ingestion bounded context:
// the ADF webhook and the parse/dedup/persist pipeline behind it.
package ingestion

import (
	"dealerportal_backend/internal/dedup"
	"dealerportal_backend/internal/events"
	apphttp "dealerportal_backend/internal/http"
	"dealerportal_backend/internal/ingestion/handler"
	"dealerportal_backend/internal/ingestion/service"
	leadsrepo "dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the ingestion bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the ingestion module. It persists
// through the leads repository so that contact, lead, hash-guard and claim
// rows share one transaction.
func NewModule(pool *pgxpool.Pool, leadStore *leadsrepo.Repository, cfg config.ClaimConfig, eventBus events.Bus, log *logger.Logger) *Module {
	svc := service.New(leadStore, dedup.New(pool), cfg, eventBus, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "ingestion"
}

// Service returns the ingestion service for external use (the mailbox
// poller feeds it directly).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the ingestion webhook on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
