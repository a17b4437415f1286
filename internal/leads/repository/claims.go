package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrClaimNotFound is returned when no unattended claim row exists for a
	// lead (the lead was already responded to, or never existed).
	ErrClaimNotFound = errors.New("unattended lead claim not found")
	// ErrAlreadyClaimed is returned when the lead is held by a different
	// caller whose lease has not expired.
	ErrAlreadyClaimed = errors.New("lead already claimed")
	// ErrNotClaimHolder is returned when a respond/release is attempted by a
	// caller who does not hold an unexpired claim on the lead.
	ErrNotClaimHolder = errors.New("caller does not hold the claim")
)

// Claim is the unattended-lead claim row: the durable backing for the
// lease-based exclusive lock. At most one unexpired claimant exists at any
// instant. The response deadline is a separate, longer-lived SLA set at lead
// creation and is unrelated to the claim lease.
type Claim struct {
	LeadID           uuid.UUID
	ContactID        uuid.UUID
	DealershipID     uuid.UUID
	ClaimantID       *uuid.UUID
	ClaimedAt        *time.Time
	ClaimExpiresAt   *time.Time
	ResponseDeadline time.Time
}

const claimColumns = `lead_id, contact_id, dealership_id, claimant_id, claimed_at, claim_expires_at, response_deadline`

func scanClaim(row pgx.Row) (Claim, error) {
	var c Claim
	err := row.Scan(
		&c.LeadID, &c.ContactID, &c.DealershipID,
		&c.ClaimantID, &c.ClaimedAt, &c.ClaimExpiresAt, &c.ResponseDeadline,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Claim{}, ErrClaimNotFound
	}
	return c, err
}

// GetClaim returns the claim row for a lead.
func (r *Repository) GetClaim(ctx context.Context, leadID uuid.UUID) (Claim, error) {
	return scanClaim(r.pool.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM unattended_lead_claims WHERE lead_id = $1`, leadID))
}

// AcquireClaim attempts to take the exclusive claim on an unattended lead as
// a single atomic conditional update. The WHERE clause admits three cases:
// unclaimed, expired, or already held by the same caller. For same-caller
// unexpired re-entry the CASE expressions keep the existing lease untouched
// (idempotent re-entry); every other admitted case starts a fresh lease.
//
// Zero rows affected means the lead is either gone from the unattended set
// (ErrClaimNotFound) or held unexpired by a different caller
// (ErrAlreadyClaimed, with the current row returned for diagnostics).
// Deciding exclusivity inside one UPDATE is what closes the read-then-write
// race window between concurrent acquirers.
func (r *Repository) AcquireClaim(ctx context.Context, leadID, callerID uuid.UUID, ttl time.Duration) (Claim, error) {
	claim, err := scanClaim(r.pool.QueryRow(ctx, `
		UPDATE unattended_lead_claims SET
			claimant_id = $2,
			claimed_at = CASE
				WHEN claimant_id = $2 AND claim_expires_at > now() THEN claimed_at
				ELSE now()
			END,
			claim_expires_at = CASE
				WHEN claimant_id = $2 AND claim_expires_at > now() THEN claim_expires_at
				ELSE now() + make_interval(secs => $3)
			END
		WHERE lead_id = $1
		  AND (claimant_id IS NULL OR claim_expires_at <= now() OR claimant_id = $2)
		RETURNING `+claimColumns,
		leadID, callerID, ttl.Seconds(),
	))
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, ErrClaimNotFound) {
		return Claim{}, err
	}

	// The conditional update matched nothing: distinguish a missing row from
	// a live claim held by someone else.
	current, getErr := r.GetClaim(ctx, leadID)
	if getErr != nil {
		return Claim{}, getErr
	}
	return current, ErrAlreadyClaimed
}

// RespondToLead completes the responder's action on a claimed lead as one
// transaction: delete the claim row and advance the lead out of the
// unattended state, recording the responder as assignee plus an audit entry.
// Only the current unexpired claimant may respond.
func (r *Repository) RespondToLead(ctx context.Context, leadID, callerID uuid.UUID, note string) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM unattended_lead_claims
		WHERE lead_id = $1 AND claimant_id = $2 AND claim_expires_at > now()
	`, leadID, callerID)
	if err != nil {
		return Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		// Either no claim row remains or the caller's lease lapsed.
		if _, getErr := r.GetClaim(ctx, leadID); errors.Is(getErr, ErrClaimNotFound) {
			return Lead{}, ErrClaimNotFound
		}
		return Lead{}, ErrNotClaimHolder
	}

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET status = $2, assignee_id = $3, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+leadColumns,
		leadID, StatusInProcess, callerID, StatusUnattended,
	))
	if err != nil {
		return Lead{}, err
	}

	description := "Lead responded"
	if note != "" {
		description = note
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, action, actor, description)
		VALUES ($1, 'lead_responded', $2, $3)
	`, leadID, callerID.String(), description); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}

	return lead, nil
}
