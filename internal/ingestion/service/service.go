// Package service implements the lead ingestion pipeline: parse the inbound
// ADF envelope, compute the canonical identity hash, resolve the target
// dealership, and persist contact, lead and claim records atomically.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dealerportal_backend/internal/adf"
	"dealerportal_backend/internal/dedup"
	"dealerportal_backend/internal/events"
	"dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/platform/apperr"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"
)

// HashIndex is the read side of the processed-hash index, used to
// short-circuit duplicates before any row is written.
type HashIndex interface {
	GetByHash(ctx context.Context, hash string) (dedup.ProcessedHash, error)
}

// LeadStore is the persistence interface the ingestion pipeline writes through.
type LeadStore interface {
	FindDealershipByName(ctx context.Context, name string) (repository.Dealership, error)
	ListDealershipNames(ctx context.Context) ([]string, error)
	CreateContactAndLead(ctx context.Context, params repository.CreateContactAndLeadParams) (repository.CreateContactAndLeadResult, error)
}

// Service runs the ingestion pipeline for inbound ADF payloads.
type Service struct {
	store            LeadStore
	hashes           HashIndex
	responseDeadline time.Duration
	eventBus         events.Bus
	log              *logger.Logger
	now              func() time.Time
}

// New creates a new ingestion service.
func New(store LeadStore, hashes HashIndex, cfg config.ClaimConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:            store,
		hashes:           hashes,
		responseDeadline: cfg.GetResponseDeadline(),
		eventBus:         eventBus,
		log:              log,
		now:              time.Now,
	}
}

// Result reports the outcome of one ingestion attempt.
type Result struct {
	LeadID       string
	ContactID    string
	IdentityHash string
	Duplicate    bool
}

// DealershipDiagnostic is attached to the rejection when the vendor name in
// the payload matches no known dealership. The known names let an operator
// see at a glance whether the provider misspelled the store.
type DealershipDiagnostic struct {
	VendorName string   `json:"vendorName"`
	KnownNames []string `json:"knownNames"`
}

// Ingest processes one raw ADF payload end to end. Duplicates are not
// errors: a payload whose canonical identity was already processed returns
// the existing lead's identity with Duplicate set.
func (s *Service) Ingest(ctx context.Context, raw []byte, source string) (Result, error) {
	lead, err := adf.Parse(raw)
	if err != nil {
		switch {
		case errors.Is(err, adf.ErrMalformedInput):
			return Result{}, apperr.Wrap(apperr.KindValidation, "malformed ADF payload", err)
		case errors.Is(err, adf.ErrMissingRequiredFields):
			return Result{}, apperr.Wrap(apperr.KindValidation, "ADF payload missing required fields", err)
		default:
			return Result{}, apperr.Wrap(apperr.KindInternal, "failed to parse ADF payload", err)
		}
	}

	hash := dedup.IdentityHash(lead)

	// Cheap read-side check first; the hash guard inside the creation
	// transaction remains the authority under concurrency.
	if existing, err := s.hashes.GetByHash(ctx, hash); err == nil {
		s.log.IngestionEvent(source, hash, true)
		return Result{
			LeadID:       existing.LeadID.String(),
			IdentityHash: hash,
			Duplicate:    true,
		}, nil
	} else if !errors.Is(err, dedup.ErrNotFound) {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to check processed hashes", err)
	}

	dealership, err := s.store.FindDealershipByName(ctx, lead.VendorName)
	if errors.Is(err, repository.ErrDealershipNotFound) {
		known, listErr := s.store.ListDealershipNames(ctx)
		if listErr != nil {
			s.log.DatabaseError("list dealership names", listErr)
		}
		return Result{}, apperr.Validation("unknown dealership in ADF vendor").WithDetails(DealershipDiagnostic{
			VendorName: lead.VendorName,
			KnownNames: known,
		})
	}
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to resolve dealership", err)
	}

	snapshot, err := json.Marshal(lead)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to snapshot parsed lead", err)
	}

	params := repository.CreateContactAndLeadParams{
		DealershipID:     dealership.ID,
		FirstName:        lead.FirstName,
		LastName:         lead.LastName,
		AddressStreet:    lead.Address.Street,
		AddressCity:      lead.Address.City,
		AddressRegion:    lead.Address.RegionCode,
		AddressPostal:    lead.Address.PostalCode,
		AddressCountry:   lead.Address.Country,
		VehicleYear:      lead.Vehicle.Year,
		VehicleMake:      lead.Vehicle.Make,
		VehicleModel:     lead.Vehicle.Model,
		VehicleTrim:      lead.Vehicle.Trim,
		ExteriorColor:    lead.Vehicle.ExteriorColor,
		InteriorColor:    lead.Vehicle.InteriorColor,
		Transmission:     lead.Vehicle.Transmission,
		Source:           source,
		Provider:         lead.ProviderName,
		Comments:         lead.Comments,
		IdentityHash:     hash,
		Snapshot:         snapshot,
		ResponseDeadline: s.now().Add(s.responseDeadline),
	}
	if lead.Email != "" {
		params.Email = &lead.Email
	}
	if lead.Phone != "" {
		params.Phone = &lead.Phone
	}

	result, err := s.store.CreateContactAndLead(ctx, params)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to persist lead", err)
	}
	if result.Duplicate {
		// A concurrent ingestion of the same identity won the race.
		s.log.IngestionEvent(source, hash, true)
		return Result{
			LeadID:       result.ExistingLeadID.String(),
			IdentityHash: hash,
			Duplicate:    true,
		}, nil
	}

	s.log.IngestionEvent(source, hash, false)

	s.eventBus.Publish(ctx, events.LeadIngested{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          result.Lead.ID,
		ContactID:       result.ContactID,
		DealershipID:    dealership.ID,
		IdentityHash:    hash,
		Source:          source,
		CustomerName:    lead.FullName(),
		CustomerEmail:   lead.Email,
		CustomerPhone:   lead.Phone,
		VehicleYear:     lead.Vehicle.Year,
		VehicleMake:     lead.Vehicle.Make,
		VehicleModel:    lead.Vehicle.Model,
		VehicleTrim:     lead.Vehicle.Trim,
		ExteriorColor:   lead.Vehicle.ExteriorColor,
		InteriorColor:   lead.Vehicle.InteriorColor,
		Transmission:    lead.Vehicle.Transmission,
		Comments:        lead.Comments,
		PreferredMethod: string(lead.PreferredContactMethod()),
	})

	return Result{
		LeadID:       result.Lead.ID.String(),
		ContactID:    result.ContactID.String(),
		IdentityHash: hash,
	}, nil
}
