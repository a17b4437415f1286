// Package transport defines the response DTOs for the ingestion webhook.
package transport

import "dealerportal_backend/internal/ingestion/service"

// IngestResponse reports the outcome of one inbound ADF payload.
type IngestResponse struct {
	LeadID       string `json:"leadId"`
	ContactID    string `json:"contactId,omitempty"`
	IdentityHash string `json:"identityHash"`
	Duplicate    bool   `json:"duplicate"`
}

// ToIngestResponse maps an ingestion result to its API representation.
func ToIngestResponse(r service.Result) IngestResponse {
	return IngestResponse{
		LeadID:       r.LeadID,
		ContactID:    r.ContactID,
		IdentityHash: r.IdentityHash,
		Duplicate:    r.Duplicate,
	}
}
