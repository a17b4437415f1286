// Package leads provides the lead lifecycle bounded context: lead reads,
// the audit trail, and the claim lock manager for unattended leads.
package leads

import (
	"dealerportal_backend/internal/events"
	apphttp "dealerportal_backend/internal/http"
	"dealerportal_backend/internal/leads/handler"
	"dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/internal/leads/service"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"
	"dealerportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.ClaimConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repository: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the lead repository. The ingestion module persists
// through it so that contact, lead, hash-guard and claim rows share one
// transaction.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
