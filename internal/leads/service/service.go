// Package service implements lead reads and the claim lock manager: a
// lease-based exclusive lock that hands an unattended lead to exactly one
// responder at a time.
package service

import (
	"context"
	"errors"
	"time"

	"dealerportal_backend/internal/events"
	"dealerportal_backend/internal/leads/repository"
	"dealerportal_backend/platform/apperr"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence interface the lead service depends on.
type Store interface {
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetClaim(ctx context.Context, leadID uuid.UUID) (repository.Claim, error)
	AcquireClaim(ctx context.Context, leadID, callerID uuid.UUID, ttl time.Duration) (repository.Claim, error)
	RespondToLead(ctx context.Context, leadID, callerID uuid.UUID, note string) (repository.Lead, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
}

// Service coordinates lead reads and claim transitions.
type Service struct {
	store    Store
	claimTTL time.Duration
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new lead service.
func New(store Store, cfg config.ClaimConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		claimTTL: cfg.GetClaimTTL(),
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

// Activities returns the audit trail for a lead.
func (s *Service) Activities(ctx context.Context, id uuid.UUID) ([]repository.Activity, error) {
	items, err := s.store.ListActivities(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead activity", err)
	}
	return items, nil
}

// ClaimConflictDetails is attached to AlreadyClaimed conflict responses so
// callers can show who holds the lead and for how long.
type ClaimConflictDetails struct {
	ClaimedBy        *uuid.UUID `json:"claimedBy,omitempty"`
	RemainingSeconds int64      `json:"remainingSeconds"`
}

// Acquire takes the exclusive time-boxed claim on an unattended lead for the
// caller. Acquisition fails fast: a lead held unexpired by another caller
// yields a conflict, never a wait. Re-entry by the current holder returns the
// existing claim unchanged.
func (s *Service) Acquire(ctx context.Context, leadID, callerID uuid.UUID) (repository.Claim, error) {
	claim, err := s.store.AcquireClaim(ctx, leadID, callerID, s.claimTTL)
	switch {
	case err == nil:
		s.eventBus.Publish(ctx, events.LeadClaimed{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			ClaimedBy: callerID,
		})
		return claim, nil
	case errors.Is(err, repository.ErrAlreadyClaimed):
		return repository.Claim{}, apperr.Conflict("lead already claimed").WithDetails(ClaimConflictDetails{
			ClaimedBy:        claim.ClaimantID,
			RemainingSeconds: int64(s.TimeRemaining(claim) / time.Second),
		})
	case errors.Is(err, repository.ErrClaimNotFound):
		return repository.Claim{}, apperr.NotFound("lead is not in the unattended set")
	default:
		return repository.Claim{}, apperr.Wrap(apperr.KindInternal, "failed to acquire claim", err)
	}
}

// ClaimState returns the current claim row for a lead. Expiry is discovered
// here or at the next Acquire; there is no background sweep.
func (s *Service) ClaimState(ctx context.Context, leadID uuid.UUID) (repository.Claim, error) {
	claim, err := s.store.GetClaim(ctx, leadID)
	if errors.Is(err, repository.ErrClaimNotFound) {
		return repository.Claim{}, apperr.NotFound("lead is not in the unattended set")
	}
	if err != nil {
		return repository.Claim{}, apperr.Wrap(apperr.KindInternal, "failed to load claim", err)
	}
	return claim, nil
}

// Respond completes the responder's action on a claimed lead: the claim row
// is removed and the lead advances out of the unattended state. Only the
// current unexpired claimant may respond.
func (s *Service) Respond(ctx context.Context, leadID, callerID uuid.UUID, note string) (repository.Lead, error) {
	lead, err := s.store.RespondToLead(ctx, leadID, callerID, note)
	switch {
	case err == nil:
		s.eventBus.Publish(ctx, events.LeadResponded{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      leadID,
			RespondedBy: callerID,
		})
		return lead, nil
	case errors.Is(err, repository.ErrClaimNotFound):
		return repository.Lead{}, apperr.NotFound("lead is not in the unattended set")
	case errors.Is(err, repository.ErrNotClaimHolder):
		return repository.Lead{}, apperr.Conflict("caller does not hold an unexpired claim on this lead")
	default:
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to respond to lead", err)
	}
}

// TimeRemaining reports how much of the claim lease is left. Zero means the
// claim is unclaimed or expired; callers use this to render countdowns and to
// redirect when it reaches zero.
func (s *Service) TimeRemaining(claim repository.Claim) time.Duration {
	if claim.ClaimExpiresAt == nil {
		return 0
	}
	remaining := claim.ClaimExpiresAt.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the claim's lease has lapsed. An unclaimed row is
// not expired; it is simply unclaimed.
func (s *Service) Expired(claim repository.Claim) bool {
	return claim.ClaimantID != nil && claim.ClaimExpiresAt != nil && !claim.ClaimExpiresAt.After(s.now())
}
