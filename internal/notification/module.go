package notification

import (
	"dealerportal_backend/internal/email"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/internal/notification/outbox"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the notification dispatcher to the event bus. It exposes no
// HTTP routes; its only trigger is the lead-ingested event.
type Module struct {
	dispatcher *Dispatcher
	outbox     *outbox.Repository
}

// NewModule creates the notification module and subscribes it to lead
// ingestion events.
func NewModule(pool *pgxpool.Pool, store DealershipStore, sender email.Sender, cfg config.NotificationConfig, bus events.Bus, log *logger.Logger) *Module {
	box := outbox.New(pool)
	d := NewDispatcher(sender, store, box, cfg.GetAppBaseURL(), log)

	bus.Subscribe(events.LeadIngested{}.EventName(), events.HandlerFunc(d.HandleLeadIngested))

	return &Module{dispatcher: d, outbox: box}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Outbox returns the outbox repository for the scheduler and worker.
func (m *Module) Outbox() *outbox.Repository {
	return m.outbox
}
