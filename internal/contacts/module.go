// Package contacts provides the contact records bounded context, including
// the destructive two-record merge engine.
package contacts

import (
	"dealerportal_backend/internal/contacts/handler"
	"dealerportal_backend/internal/contacts/repository"
	"dealerportal_backend/internal/contacts/service"
	"dealerportal_backend/internal/events"
	apphttp "dealerportal_backend/internal/http"
	"dealerportal_backend/platform/logger"
	"dealerportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the contacts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the contact service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts contacts routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/contacts")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
