// Package notification delivers the new-lead email to a dealership's
// configured recipients. Delivery is best-effort and fully decoupled from
// ingestion: a failed send is logged and handed to the outbox for retry,
// never surfaced to the webhook caller.
package notification

import (
	"context"
	"fmt"
	"strings"

	"dealerportal_backend/internal/email"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/internal/notification/outbox"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TemplateNewLead names the delivery template in outbox rows and logs.
const TemplateNewLead = "new_lead"

// DealershipStore resolves the routing target of a notification.
type DealershipStore interface {
	GetDealership(ctx context.Context, id uuid.UUID) (repository.Dealership, error)
}

// Dispatcher fans the new-lead email out to every configured recipient of
// the target dealership.
type Dispatcher struct {
	sender  email.Sender
	store   DealershipStore
	outbox  *outbox.Repository
	baseURL string
	log     *logger.Logger
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(sender email.Sender, store DealershipStore, box *outbox.Repository, baseURL string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		store:   store,
		outbox:  box,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// HandleLeadIngested delivers the new-lead notification. It always returns
// nil: notification outcomes never bubble into the ingestion path.
func (d *Dispatcher) HandleLeadIngested(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadIngested)
	if !ok {
		return nil
	}

	dealership, err := d.store.GetDealership(ctx, e.DealershipID)
	if err != nil {
		d.log.NotificationFailure("", TemplateNewLead, fmt.Errorf("resolve dealership %s: %w", e.DealershipID, err))
		return nil
	}
	if len(dealership.NotificationEmails) == 0 {
		return nil
	}

	vars := email.NewLeadVars{
		CustomerName:    e.CustomerName,
		CustomerEmail:   e.CustomerEmail,
		CustomerPhone:   e.CustomerPhone,
		VehicleSummary:  vehicleSummary(e),
		Comments:        e.Comments,
		DealershipName:  dealership.Name,
		PreferredMethod: e.PreferredMethod,
		LeadURL:         fmt.Sprintf("%s/leads/%s", d.baseURL, e.LeadID),
	}
	if err := vars.Validate(); err != nil {
		d.log.NotificationFailure("", TemplateNewLead, err)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, recipient := range dealership.NotificationEmails {
		g.Go(func() error {
			if err := d.sender.SendNewLeadEmail(gctx, recipient, vars); err != nil {
				d.log.NotificationFailure(recipient, TemplateNewLead, err)
				d.parkForRetry(gctx, e, recipient, vars, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

// parkForRetry records a failed delivery in the outbox so the worker can
// retry it later.
func (d *Dispatcher) parkForRetry(ctx context.Context, e events.LeadIngested, recipient string, vars email.NewLeadVars, sendErr error) {
	if d.outbox == nil {
		return
	}
	msg := sendErr.Error()
	if _, err := d.outbox.Insert(ctx, outbox.InsertParams{
		LeadID:    e.LeadID,
		Recipient: recipient,
		Template:  TemplateNewLead,
		Payload:   vars,
		LastError: &msg,
	}); err != nil {
		d.log.NotificationFailure(recipient, TemplateNewLead, fmt.Errorf("outbox insert: %w", err))
	}
}

func vehicleSummary(e events.LeadIngested) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{e.VehicleYear, e.VehicleMake, e.VehicleModel, e.VehicleTrim} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
