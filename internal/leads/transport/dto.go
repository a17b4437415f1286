// Package transport defines the request/response DTOs for the leads API.
package transport

import (
	"time"

	"dealerportal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// RespondToLeadRequest carries the optional note recorded with the response.
type RespondToLeadRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID            uuid.UUID  `json:"id"`
	ContactID     uuid.UUID  `json:"contactId"`
	DealershipID  uuid.UUID  `json:"dealershipId"`
	VehicleYear   string     `json:"vehicleYear,omitempty"`
	VehicleMake   string     `json:"vehicleMake,omitempty"`
	VehicleModel  string     `json:"vehicleModel,omitempty"`
	VehicleTrim   string     `json:"vehicleTrim,omitempty"`
	ExteriorColor string     `json:"exteriorColor,omitempty"`
	InteriorColor string     `json:"interiorColor,omitempty"`
	Transmission  string     `json:"transmission,omitempty"`
	Source        string     `json:"source,omitempty"`
	Provider      string     `json:"provider,omitempty"`
	Comments      string     `json:"comments,omitempty"`
	Status        string     `json:"status"`
	AssigneeID    *uuid.UUID `json:"assigneeId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ToLeadResponse maps a repository lead to its API representation.
func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:            l.ID,
		ContactID:     l.ContactID,
		DealershipID:  l.DealershipID,
		VehicleYear:   l.VehicleYear,
		VehicleMake:   l.VehicleMake,
		VehicleModel:  l.VehicleModel,
		VehicleTrim:   l.VehicleTrim,
		ExteriorColor: l.ExteriorColor,
		InteriorColor: l.InteriorColor,
		Transmission:  l.Transmission,
		Source:        l.Source,
		Provider:      l.Provider,
		Comments:      l.Comments,
		Status:        l.Status,
		AssigneeID:    l.AssigneeID,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// ClaimResponse is the API representation of the claim row on an unattended
// lead. RemainingSeconds is zero for an unclaimed or expired claim; clients
// drive the countdown timer from it.
type ClaimResponse struct {
	LeadID           uuid.UUID  `json:"leadId"`
	ContactID        uuid.UUID  `json:"contactId"`
	DealershipID     uuid.UUID  `json:"dealershipId"`
	ClaimantID       *uuid.UUID `json:"claimantId,omitempty"`
	ClaimedAt        *time.Time `json:"claimedAt,omitempty"`
	ClaimExpiresAt   *time.Time `json:"claimExpiresAt,omitempty"`
	ResponseDeadline time.Time  `json:"responseDeadline"`
	RemainingSeconds int64      `json:"remainingSeconds"`
	Expired          bool       `json:"expired"`
}

// ToClaimResponse maps a claim row plus derived lease state to its API
// representation.
func ToClaimResponse(c repository.Claim, remaining time.Duration, expired bool) ClaimResponse {
	return ClaimResponse{
		LeadID:           c.LeadID,
		ContactID:        c.ContactID,
		DealershipID:     c.DealershipID,
		ClaimantID:       c.ClaimantID,
		ClaimedAt:        c.ClaimedAt,
		ClaimExpiresAt:   c.ClaimExpiresAt,
		ResponseDeadline: c.ResponseDeadline,
		RemainingSeconds: int64(remaining / time.Second),
		Expired:          expired,
	}
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	Action      string    `json:"action"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToActivityResponses maps the audit trail to its API representation.
func ToActivityResponses(items []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ActivityResponse{
			ID:          a.ID,
			LeadID:      a.LeadID,
			Action:      a.Action,
			Actor:       a.Actor,
			Description: a.Description,
			CreatedAt:   a.CreatedAt,
		})
	}
	return out
}
