// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"dealerportal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// LeadIngested is published when an inbound ADF payload produces a new lead.
// The notification module subscribes to deliver responder emails; delivery is
// best-effort and never affects the ingestion result.
type LeadIngested struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	ContactID       uuid.UUID `json:"contactId"`
	DealershipID    uuid.UUID `json:"dealershipId"`
	IdentityHash    string    `json:"identityHash"`
	Source          string    `json:"source"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail,omitempty"`
	CustomerPhone   string    `json:"customerPhone,omitempty"`
	VehicleYear     string    `json:"vehicleYear,omitempty"`
	VehicleMake     string    `json:"vehicleMake,omitempty"`
	VehicleModel    string    `json:"vehicleModel,omitempty"`
	VehicleTrim     string    `json:"vehicleTrim,omitempty"`
	ExteriorColor   string    `json:"exteriorColor,omitempty"`
	InteriorColor   string    `json:"interiorColor,omitempty"`
	Transmission    string    `json:"transmission,omitempty"`
	Comments        string    `json:"comments,omitempty"`
	PreferredMethod string    `json:"preferredMethod"`
}

func (e LeadIngested) EventName() string { return "leads.ingested" }

// LeadClaimed is published when a responder acquires the exclusive claim on
// an unattended lead.
type LeadClaimed struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	ClaimedBy uuid.UUID `json:"claimedBy"`
}

func (e LeadClaimed) EventName() string { return "leads.claimed" }

// LeadResponded is published when a responder completes their action on a
// claimed lead and the lead advances out of the unattended state.
type LeadResponded struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	RespondedBy uuid.UUID `json:"respondedBy"`
}

func (e LeadResponded) EventName() string { return "leads.responded" }

// ContactsMerged is published when two contact records are merged.
type ContactsMerged struct {
	BaseEvent
	PrimaryID   uuid.UUID `json:"primaryId"`
	SecondaryID uuid.UUID `json:"secondaryId"`
	MergedBy    uuid.UUID `json:"mergedBy"`
}

func (e ContactsMerged) EventName() string { return "contacts.merged" }
