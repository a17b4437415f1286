package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"dealerportal_backend/internal/email"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	lastVar email.NewLeadVars
	failFor map[string]error
}

func (s *fakeSender) SendNewLeadEmail(_ context.Context, toEmail string, vars email.NewLeadVars) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[toEmail]; ok {
		return err
	}
	s.sent = append(s.sent, toEmail)
	s.lastVar = vars
	return nil
}

func (s *fakeSender) SendCustomEmail(context.Context, string, string, string) error {
	return nil
}

func (s *fakeSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string{}, s.sent...)
	sort.Strings(out)
	return out
}

type fakeDealershipStore struct {
	dealership repository.Dealership
	err        error
}

func (s *fakeDealershipStore) GetDealership(_ context.Context, id uuid.UUID) (repository.Dealership, error) {
	if s.err != nil {
		return repository.Dealership{}, s.err
	}
	if id != s.dealership.ID {
		return repository.Dealership{}, repository.ErrDealershipNotFound
	}
	return s.dealership, nil
}

func ingestedEvent(dealershipID uuid.UUID) events.LeadIngested {
	return events.LeadIngested{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          uuid.New(),
		ContactID:       uuid.New(),
		DealershipID:    dealershipID,
		CustomerName:    "Jane Doe",
		CustomerEmail:   "jane@example.com",
		VehicleYear:     "2024",
		VehicleMake:     "Ford",
		VehicleModel:    "F-150",
		PreferredMethod: "email",
	}
}

func TestDispatcherFansOutToAllRecipients(t *testing.T) {
	dealership := repository.Dealership{
		ID:                 uuid.New(),
		Name:               "Smith Ford",
		NotificationEmails: []string{"sales@smithford.example", "manager@smithford.example"},
	}
	sender := &fakeSender{}
	d := NewDispatcher(sender, &fakeDealershipStore{dealership: dealership}, nil, "https://portal.example.com/", logger.New("development"))

	event := ingestedEvent(dealership.ID)
	if err := d.HandleLeadIngested(context.Background(), event); err != nil {
		t.Fatalf("HandleLeadIngested returned %v", err)
	}

	got := sender.recipients()
	want := []string{"manager@smithford.example", "sales@smithford.example"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("recipients = %v, want %v", got, want)
	}

	if sender.lastVar.DealershipName != "Smith Ford" {
		t.Errorf("dealership name = %q", sender.lastVar.DealershipName)
	}
	if sender.lastVar.VehicleSummary != "2024 Ford F-150" {
		t.Errorf("vehicle summary = %q", sender.lastVar.VehicleSummary)
	}
	wantURL := "https://portal.example.com/leads/" + event.LeadID.String()
	if sender.lastVar.LeadURL != wantURL {
		t.Errorf("lead url = %q, want %q", sender.lastVar.LeadURL, wantURL)
	}
}

func TestDispatcherSendFailureDoesNotError(t *testing.T) {
	dealership := repository.Dealership{
		ID:                 uuid.New(),
		Name:               "Smith Ford",
		NotificationEmails: []string{"down@smithford.example", "sales@smithford.example"},
	}
	sender := &fakeSender{failFor: map[string]error{
		"down@smithford.example": errors.New("smtp timeout"),
	}}
	d := NewDispatcher(sender, &fakeDealershipStore{dealership: dealership}, nil, "https://portal.example.com", logger.New("development"))

	if err := d.HandleLeadIngested(context.Background(), ingestedEvent(dealership.ID)); err != nil {
		t.Fatalf("delivery failure surfaced as error: %v", err)
	}

	got := sender.recipients()
	if len(got) != 1 || got[0] != "sales@smithford.example" {
		t.Errorf("recipients = %v, want healthy recipient only", got)
	}
}

func TestDispatcherUnknownDealership(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeDealershipStore{err: repository.ErrDealershipNotFound}
	d := NewDispatcher(sender, store, nil, "https://portal.example.com", logger.New("development"))

	if err := d.HandleLeadIngested(context.Background(), ingestedEvent(uuid.New())); err != nil {
		t.Fatalf("HandleLeadIngested returned %v", err)
	}
	if len(sender.recipients()) != 0 {
		t.Error("send attempted without a resolved dealership")
	}
}

func TestDispatcherNoRecipientsConfigured(t *testing.T) {
	dealership := repository.Dealership{ID: uuid.New(), Name: "Smith Ford"}
	sender := &fakeSender{}
	d := NewDispatcher(sender, &fakeDealershipStore{dealership: dealership}, nil, "https://portal.example.com", logger.New("development"))

	if err := d.HandleLeadIngested(context.Background(), ingestedEvent(dealership.ID)); err != nil {
		t.Fatalf("HandleLeadIngested returned %v", err)
	}
	if len(sender.recipients()) != 0 {
		t.Error("send attempted with no configured recipients")
	}
}

func TestDispatcherIgnoresOtherEvents(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, &fakeDealershipStore{}, nil, "https://portal.example.com", logger.New("development"))

	if err := d.HandleLeadIngested(context.Background(), events.LeadClaimed{BaseEvent: events.NewBaseEvent()}); err != nil {
		t.Fatalf("HandleLeadIngested returned %v", err)
	}
	if len(sender.recipients()) != 0 {
		t.Error("send attempted for an unrelated event type")
	}
}
