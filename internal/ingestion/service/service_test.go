package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dealerportal_backend/internal/dedup"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/platform/apperr"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
)

const ingestADF = `<adf><prospect>
	<customer><contact>
		<name part="first">Jane</name>
		<name part="last">Doe</name>
		<email>jane@example.com</email>
	</contact></customer>
	<vehicle><year>2024</year><make>Ford</make><model>F-150</model></vehicle>
	<vendor><vendorname>Smith Ford</vendorname></vendor>
</prospect></adf>`

type fakeLeadStore struct {
	dealerships map[string]repository.Dealership
	created     []repository.CreateContactAndLeadParams
	result      repository.CreateContactAndLeadResult
	createErr   error
}

func newFakeLeadStore() *fakeLeadStore {
	d := repository.Dealership{ID: uuid.New(), Name: "Smith Ford", NotificationEmails: []string{"sales@smithford.example"}}
	lead := repository.Lead{ID: uuid.New(), ContactID: uuid.New(), DealershipID: d.ID}
	return &fakeLeadStore{
		dealerships: map[string]repository.Dealership{"smith ford": d},
		result:      repository.CreateContactAndLeadResult{Lead: lead, ContactID: lead.ContactID},
	}
}

func (s *fakeLeadStore) FindDealershipByName(_ context.Context, name string) (repository.Dealership, error) {
	for key, d := range s.dealerships {
		if strings.Contains(key, strings.ToLower(name)) || strings.Contains(strings.ToLower(name), key) {
			return d, nil
		}
	}
	return repository.Dealership{}, repository.ErrDealershipNotFound
}

func (s *fakeLeadStore) ListDealershipNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.dealerships))
	for _, d := range s.dealerships {
		names = append(names, d.Name)
	}
	return names, nil
}

func (s *fakeLeadStore) CreateContactAndLead(_ context.Context, params repository.CreateContactAndLeadParams) (repository.CreateContactAndLeadResult, error) {
	s.created = append(s.created, params)
	if s.createErr != nil {
		return repository.CreateContactAndLeadResult{}, s.createErr
	}
	return s.result, nil
}

type fakeHashIndex struct {
	known map[string]dedup.ProcessedHash
}

func (h *fakeHashIndex) GetByHash(_ context.Context, hash string) (dedup.ProcessedHash, error) {
	if rec, ok := h.known[hash]; ok {
		return rec, nil
	}
	return dedup.ProcessedHash{}, dedup.ErrNotFound
}

type ingestClaimConfig struct{}

func (ingestClaimConfig) GetClaimTTL() time.Duration         { return 20 * time.Minute }
func (ingestClaimConfig) GetResponseDeadline() time.Duration { return 24 * time.Hour }

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) record(_ context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturedEvents) all() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event{}, c.events...)
}

func newIngestService(store *fakeLeadStore, hashes *fakeHashIndex) (*Service, *capturedEvents) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	captured := &capturedEvents{}
	bus.Subscribe(events.LeadIngested{}.EventName(), events.HandlerFunc(captured.record))
	if hashes == nil {
		hashes = &fakeHashIndex{known: map[string]dedup.ProcessedHash{}}
	}
	return New(store, hashes, ingestClaimConfig{}, bus, log), captured
}

func waitForEvents(t *testing.T, captured *capturedEvents, want int) []events.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := captured.all(); len(got) >= want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", want)
	return nil
}

func TestIngestCreatesLead(t *testing.T) {
	store := newFakeLeadStore()
	svc, captured := newIngestService(store, nil)

	before := time.Now()
	result, err := svc.Ingest(context.Background(), []byte(ingestADF), "webhook")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if result.Duplicate {
		t.Fatal("fresh lead reported as duplicate")
	}
	if result.LeadID != store.result.Lead.ID.String() {
		t.Errorf("lead id = %s", result.LeadID)
	}
	if result.IdentityHash == "" {
		t.Error("identity hash missing from result")
	}

	if len(store.created) != 1 {
		t.Fatalf("CreateContactAndLead called %d times, want 1", len(store.created))
	}
	params := store.created[0]
	if params.FirstName != "Jane" || params.LastName != "Doe" {
		t.Errorf("name = %q %q", params.FirstName, params.LastName)
	}
	if params.Email == nil || *params.Email != "jane@example.com" {
		t.Errorf("email = %v", params.Email)
	}
	if params.Source != "webhook" {
		t.Errorf("source = %q", params.Source)
	}
	if params.DealershipID != store.result.Lead.DealershipID {
		t.Error("dealership not resolved from vendor name")
	}
	wantDeadline := before.Add(24 * time.Hour)
	if params.ResponseDeadline.Before(wantDeadline.Add(-time.Minute)) || params.ResponseDeadline.After(wantDeadline.Add(time.Minute)) {
		t.Errorf("response deadline = %v, want ~%v", params.ResponseDeadline, wantDeadline)
	}
	if len(params.Snapshot) == 0 {
		t.Error("snapshot missing")
	}

	got := waitForEvents(t, captured, 1)
	ingested, ok := got[0].(events.LeadIngested)
	if !ok {
		t.Fatalf("event = %T, want LeadIngested", got[0])
	}
	if ingested.LeadID != store.result.Lead.ID || ingested.CustomerName != "Jane Doe" {
		t.Errorf("unexpected event: %+v", ingested)
	}
	if ingested.PreferredMethod != "email" {
		t.Errorf("preferred method = %q", ingested.PreferredMethod)
	}
}

func TestIngestDuplicateShortCircuits(t *testing.T) {
	store := newFakeLeadStore()
	existingID := uuid.New()

	// Prime the hash index with the exact hash the payload will produce.
	probe, _ := newIngestService(newFakeLeadStore(), nil)
	probeResult, err := probe.Ingest(context.Background(), []byte(ingestADF), "webhook")
	if err != nil {
		t.Fatalf("probe Ingest failed: %v", err)
	}

	hashes := &fakeHashIndex{known: map[string]dedup.ProcessedHash{
		probeResult.IdentityHash: {Hash: probeResult.IdentityHash, LeadID: existingID},
	}}
	svc, captured := newIngestService(store, hashes)

	result, err := svc.Ingest(context.Background(), []byte(ingestADF), "webhook")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("duplicate not detected")
	}
	if result.LeadID != existingID.String() {
		t.Errorf("lead id = %s, want existing lead", result.LeadID)
	}
	if len(store.created) != 0 {
		t.Error("duplicate payload reached the store")
	}
	if got := captured.all(); len(got) != 0 {
		t.Error("duplicate payload published an ingestion event")
	}
}

func TestIngestConcurrentDuplicateFromStore(t *testing.T) {
	store := newFakeLeadStore()
	existingID := uuid.New()
	store.result = repository.CreateContactAndLeadResult{Duplicate: true, ExistingLeadID: existingID}
	svc, captured := newIngestService(store, nil)

	result, err := svc.Ingest(context.Background(), []byte(ingestADF), "webhook")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !result.Duplicate || result.LeadID != existingID.String() {
		t.Errorf("result = %+v, want duplicate with existing id", result)
	}
	if got := captured.all(); len(got) != 0 {
		t.Error("race loser published an ingestion event")
	}
}

func TestIngestMalformedPayload(t *testing.T) {
	store := newFakeLeadStore()
	svc, _ := newIngestService(store, nil)

	_, err := svc.Ingest(context.Background(), []byte("not xml at all"), "webhook")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(store.created) != 0 {
		t.Error("malformed payload reached the store")
	}
}

func TestIngestMissingVehicle(t *testing.T) {
	payload := `<adf><prospect>
		<customer><contact><name part="first">Jane</name><email>jane@example.com</email></contact></customer>
		<vendor><vendorname>Smith Ford</vendorname></vendor>
	</prospect></adf>`
	store := newFakeLeadStore()
	svc, _ := newIngestService(store, nil)

	_, err := svc.Ingest(context.Background(), []byte(payload), "webhook")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(store.created) != 0 {
		t.Error("incomplete payload reached the store")
	}
}

func TestIngestUnknownDealership(t *testing.T) {
	payload := strings.ReplaceAll(ingestADF, "Smith Ford", "Nowhere Motors")
	store := newFakeLeadStore()
	svc, _ := newIngestService(store, nil)

	_, err := svc.Ingest(context.Background(), []byte(payload), "webhook")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}

	diag, ok := appErr.Details.(DealershipDiagnostic)
	if !ok {
		t.Fatalf("details = %T, want DealershipDiagnostic", appErr.Details)
	}
	if diag.VendorName != "Nowhere Motors" {
		t.Errorf("vendor name = %q", diag.VendorName)
	}
	if len(diag.KnownNames) != 1 || diag.KnownNames[0] != "Smith Ford" {
		t.Errorf("known names = %v", diag.KnownNames)
	}
	if len(store.created) != 0 {
		t.Error("unroutable payload reached the store")
	}
}

func TestIngestStoreFailure(t *testing.T) {
	store := newFakeLeadStore()
	store.createErr = errors.New("connection refused")
	svc, _ := newIngestService(store, nil)

	_, err := svc.Ingest(context.Background(), []byte(ingestADF), "webhook")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInternal {
		t.Fatalf("err = %v, want internal error", err)
	}
}
