package service

import (
	"context"
	"errors"
	"testing"

	"dealerportal_backend/internal/contacts/repository"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/platform/apperr"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeContactStore applies the same merge outcome as the repository
// transaction: resolved fields onto the primary, union of emails/phones and
// lead ids, tombstone on the secondary.
type fakeContactStore struct {
	contacts map[uuid.UUID]repository.Contact
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: make(map[uuid.UUID]repository.Contact)}
}

func (s *fakeContactStore) add(c repository.Contact) repository.Contact {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.contacts[c.ID] = c
	return c
}

func (s *fakeContactStore) GetByID(_ context.Context, id uuid.UUID) (repository.Contact, error) {
	c, ok := s.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *fakeContactStore) Merge(_ context.Context, primaryID, secondaryID uuid.UUID, resolve repository.MergeResolver) (repository.Contact, error) {
	primary, ok := s.contacts[primaryID]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	secondary, ok := s.contacts[secondaryID]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	if primary.MergedInto != nil || secondary.MergedInto != nil {
		return repository.Contact{}, repository.ErrAlreadyMerged
	}

	params := resolve(primary, secondary)
	primary.FirstName = params.FirstName
	primary.LastName = params.LastName
	primary.Title = params.Title
	primary.PrimaryEmail = params.PrimaryEmail
	primary.MobilePhone = params.MobilePhone
	primary.Emails = unionStrings(primary.Emails, secondary.Emails)
	primary.Phones = unionStrings(primary.Phones, secondary.Phones)
	primary.LeadIDs = unionIDs(primary.LeadIDs, secondary.LeadIDs)

	secondary.MergedInto = &primary.ID
	secondary.LeadIDs = nil

	s.contacts[primaryID] = primary
	s.contacts[secondaryID] = secondary
	return primary, nil
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func unionIDs(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0, len(a)+len(b))
	for _, v := range append(append([]uuid.UUID{}, a...), b...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func strPtr(s string) *string { return &s }

func newMergeService(store ContactStore) *Service {
	log := logger.New("development")
	return New(store, events.NewInMemoryBus(log), log)
}

func mergeKind(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	return appErr.Kind
}

func TestMergeDefaultsToPrimaryValues(t *testing.T) {
	store := newFakeContactStore()
	leadA, leadB := uuid.New(), uuid.New()
	primary := store.add(repository.Contact{
		FirstName:    "Jane",
		LastName:     "Doe",
		PrimaryEmail: strPtr("jane@example.com"),
		Emails:       []string{"jane@example.com"},
		LeadIDs:      []uuid.UUID{leadA},
	})
	secondary := store.add(repository.Contact{
		FirstName:    "Janet",
		LastName:     "Doe",
		PrimaryEmail: strPtr("janet@example.com"),
		Emails:       []string{"janet@example.com"},
		LeadIDs:      []uuid.UUID{leadB},
	})

	merged, err := newMergeService(store).Merge(context.Background(), primary.ID, secondary.ID, nil, uuid.New())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if merged.FirstName != "Jane" {
		t.Errorf("first name = %q, want primary's value by default", merged.FirstName)
	}
	if merged.PrimaryEmail == nil || *merged.PrimaryEmail != "jane@example.com" {
		t.Errorf("primary email = %v, want primary's value", merged.PrimaryEmail)
	}
	if len(merged.Emails) != 2 {
		t.Errorf("emails = %v, want union of both", merged.Emails)
	}
	if len(merged.LeadIDs) != 2 {
		t.Errorf("lead ids = %v, want union of both", merged.LeadIDs)
	}

	tombstoned, err := store.GetByID(context.Background(), secondary.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if tombstoned.MergedInto == nil || *tombstoned.MergedInto != primary.ID {
		t.Error("secondary not tombstoned to primary")
	}
}

func TestMergeSecondarySelections(t *testing.T) {
	store := newFakeContactStore()
	primary := store.add(repository.Contact{FirstName: "Jane", LastName: "Doe", MobilePhone: strPtr("+12025550143")})
	secondary := store.add(repository.Contact{FirstName: "Janet", LastName: "Dough", MobilePhone: strPtr("+12025550188")})

	selections := map[string]Side{
		FieldFirstName:   SideSecondary,
		FieldMobilePhone: SideSecondary,
	}
	merged, err := newMergeService(store).Merge(context.Background(), primary.ID, secondary.ID, selections, uuid.New())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if merged.FirstName != "Janet" {
		t.Errorf("first name = %q, want secondary's value", merged.FirstName)
	}
	if merged.LastName != "Doe" {
		t.Errorf("last name = %q, unselected field must stay primary", merged.LastName)
	}
	if merged.MobilePhone == nil || *merged.MobilePhone != "+12025550188" {
		t.Errorf("mobile phone = %v, want secondary's value", merged.MobilePhone)
	}
}

func TestMergeRejectsSelfMerge(t *testing.T) {
	store := newFakeContactStore()
	c := store.add(repository.Contact{FirstName: "Jane"})

	_, err := newMergeService(store).Merge(context.Background(), c.ID, c.ID, nil, uuid.New())
	if mergeKind(t, err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMergeRejectsUnknownField(t *testing.T) {
	store := newFakeContactStore()
	primary := store.add(repository.Contact{FirstName: "Jane"})
	secondary := store.add(repository.Contact{FirstName: "Janet"})

	_, err := newMergeService(store).Merge(context.Background(), primary.ID, secondary.ID,
		map[string]Side{"address_street": SideSecondary}, uuid.New())
	if mergeKind(t, err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMergeRejectsInvalidSide(t *testing.T) {
	store := newFakeContactStore()
	primary := store.add(repository.Contact{FirstName: "Jane"})
	secondary := store.add(repository.Contact{FirstName: "Janet"})

	_, err := newMergeService(store).Merge(context.Background(), primary.ID, secondary.ID,
		map[string]Side{FieldFirstName: Side(2)}, uuid.New())
	if mergeKind(t, err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMergeAlreadyMergedContact(t *testing.T) {
	store := newFakeContactStore()
	primary := store.add(repository.Contact{FirstName: "Jane"})
	secondary := store.add(repository.Contact{FirstName: "Janet"})
	third := store.add(repository.Contact{FirstName: "Janice"})

	svc := newMergeService(store)
	if _, err := svc.Merge(context.Background(), primary.ID, secondary.ID, nil, uuid.New()); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}

	_, err := svc.Merge(context.Background(), third.ID, secondary.ID, nil, uuid.New())
	if mergeKind(t, err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict on tombstoned contact", err)
	}
}

func TestMergeUnknownContact(t *testing.T) {
	store := newFakeContactStore()
	primary := store.add(repository.Contact{FirstName: "Jane"})

	_, err := newMergeService(store).Merge(context.Background(), primary.ID, uuid.New(), nil, uuid.New())
	if mergeKind(t, err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}
