// Package transport defines the request/response DTOs for the contacts API.
package transport

import (
	"time"

	"dealerportal_backend/internal/contacts/repository"

	"github.com/google/uuid"
)

// MergeContactsRequest asks for the secondary contact to be merged into the
// primary. Selections map a mergeable field name to 0 (primary wins) or
// 1 (secondary wins); unselected fields default to the primary's value.
type MergeContactsRequest struct {
	PrimaryID   uuid.UUID      `json:"primaryId" validate:"required"`
	SecondaryID uuid.UUID      `json:"secondaryId" validate:"required"`
	Selections  map[string]int `json:"selections" validate:"max=16"`
}

// ContactResponse is the API representation of a contact record.
type ContactResponse struct {
	ID             uuid.UUID   `json:"id"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	Title          *string     `json:"title,omitempty"`
	PrimaryEmail   *string     `json:"primaryEmail,omitempty"`
	MobilePhone    *string     `json:"mobilePhone,omitempty"`
	Emails         []string    `json:"emails"`
	Phones         []string    `json:"phones"`
	AddressStreet  string      `json:"addressStreet,omitempty"`
	AddressCity    string      `json:"addressCity,omitempty"`
	AddressRegion  string      `json:"addressRegion,omitempty"`
	AddressPostal  string      `json:"addressPostal,omitempty"`
	AddressCountry string      `json:"addressCountry,omitempty"`
	LeadIDs        []uuid.UUID `json:"leadIds"`
	MergedInto     *uuid.UUID  `json:"mergedInto,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ToContactResponse maps a repository contact to its API representation.
func ToContactResponse(c repository.Contact) ContactResponse {
	return ContactResponse{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Title:          c.Title,
		PrimaryEmail:   c.PrimaryEmail,
		MobilePhone:    c.MobilePhone,
		Emails:         c.Emails,
		Phones:         c.Phones,
		AddressStreet:  c.AddressStreet,
		AddressCity:    c.AddressCity,
		AddressRegion:  c.AddressRegion,
		AddressPostal:  c.AddressPostal,
		AddressCountry: c.AddressCountry,
		LeadIDs:        c.LeadIDs,
		MergedInto:     c.MergedInto,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
