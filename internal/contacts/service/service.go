// Package service implements the contact merge engine: reconciling two
// duplicate contact records into one canonical contact without losing
// associated leads.
package service

import (
	"context"
	"errors"

	"dealerportal_backend/internal/contacts/repository"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/platform/apperr"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
)

// Side selects which contact's value wins for a field.
type Side int

const (
	// SidePrimary keeps the primary contact's value.
	SidePrimary Side = 0
	// SideSecondary takes the secondary contact's value.
	SideSecondary Side = 1
)

// Mergeable field names. The set is explicit and closed: a selection naming
// any other field is rejected rather than silently ignored.
const (
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldTitle        = "title"
	FieldPrimaryEmail = "primary_email"
	FieldMobilePhone  = "mobile_phone"
)

var mergeableFields = map[string]struct{}{
	FieldFirstName:    {},
	FieldLastName:     {},
	FieldTitle:        {},
	FieldPrimaryEmail: {},
	FieldMobilePhone:  {},
}

// ContactStore is the persistence interface the merge engine depends on.
type ContactStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Contact, error)
	Merge(ctx context.Context, primaryID, secondaryID uuid.UUID, resolve repository.MergeResolver) (repository.Contact, error)
}

// Service is the contact merge engine.
type Service struct {
	store    ContactStore
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new contact service.
func New(store ContactStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, log: log}
}

// Get returns a single contact.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Contact, error) {
	contact, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Contact{}, apperr.NotFound("contact not found")
	}
	if err != nil {
		return repository.Contact{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err)
	}
	return contact, nil
}

// Merge merges the secondary contact into the primary, applying the per-field
// selections (unselected fields default to the primary's value). The write is
// atomic: field updates, lead reassignment, tombstone, and audit entries all
// commit together or not at all.
func (s *Service) Merge(ctx context.Context, primaryID, secondaryID uuid.UUID, selections map[string]Side, actorID uuid.UUID) (repository.Contact, error) {
	if primaryID == secondaryID {
		return repository.Contact{}, apperr.Validation("cannot merge a contact with itself")
	}
	for field, side := range selections {
		if _, ok := mergeableFields[field]; !ok {
			return repository.Contact{}, apperr.Validation("field is not mergeable: " + field)
		}
		if side != SidePrimary && side != SideSecondary {
			return repository.Contact{}, apperr.Validation("selection must be 0 (primary) or 1 (secondary)")
		}
	}

	merged, err := s.store.Merge(ctx, primaryID, secondaryID, func(primary, secondary repository.Contact) repository.MergeParams {
		return resolveSelections(primary, secondary, selections, actorID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMerged):
			return repository.Contact{}, apperr.Conflict("contact already merged")
		case errors.Is(err, repository.ErrNotFound):
			return repository.Contact{}, apperr.NotFound("contact not found")
		default:
			return repository.Contact{}, apperr.Wrap(apperr.KindInternal, "merge failed", err)
		}
	}

	s.eventBus.Publish(ctx, events.ContactsMerged{
		BaseEvent:   events.NewBaseEvent(),
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
		MergedBy:    actorID,
	})

	return merged, nil
}

func resolveSelections(primary, secondary repository.Contact, selections map[string]Side, actorID uuid.UUID) repository.MergeParams {
	pick := func(field string, primaryVal, secondaryVal string) string {
		if selections[field] == SideSecondary {
			return secondaryVal
		}
		return primaryVal
	}
	pickPtr := func(field string, primaryVal, secondaryVal *string) *string {
		if selections[field] == SideSecondary {
			return secondaryVal
		}
		return primaryVal
	}

	return repository.MergeParams{
		PrimaryID:    primary.ID,
		SecondaryID:  secondary.ID,
		FirstName:    pick(FieldFirstName, primary.FirstName, secondary.FirstName),
		LastName:     pick(FieldLastName, primary.LastName, secondary.LastName),
		Title:        pickPtr(FieldTitle, primary.Title, secondary.Title),
		PrimaryEmail: pickPtr(FieldPrimaryEmail, primary.PrimaryEmail, secondary.PrimaryEmail),
		MobilePhone:  pickPtr(FieldMobilePhone, primary.MobilePhone, secondary.MobilePhone),
		ActorID:      actorID,
	}
}
