// Package repository persists contact records and owns the merge
// transaction, including the merged_into tombstone relation and
// lead reassignment.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a contact does not exist.
	ErrNotFound = errors.New("contact not found")
	// ErrAlreadyMerged is returned when either side of a merge is tombstoned.
	ErrAlreadyMerged = errors.New("contact already merged")
)

// Contact is a durable customer record. The losing side of a merge is never
// deleted; MergedInto points at the surviving record.
type Contact struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	Title         *string
	PrimaryEmail  *string
	MobilePhone   *string
	Emails        []string
	Phones        []string
	AddressStreet string
	AddressCity   string
	AddressRegion string
	AddressPostal string
	AddressCountry string
	LeadIDs       []uuid.UUID
	MergedInto    *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const contactColumns = `id, first_name, last_name, title, primary_email, mobile_phone,
	emails, phones, address_street, address_city, address_region, address_postal, address_country,
	lead_ids, merged_into, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Title, &c.PrimaryEmail, &c.MobilePhone,
		&c.Emails, &c.Phones, &c.AddressStreet, &c.AddressCity, &c.AddressRegion,
		&c.AddressPostal, &c.AddressCountry, &c.LeadIDs, &c.MergedInto,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
}

// MergeParams carries the already-resolved field values the merge should
// write onto the primary contact. The service applies the per-field
// selection; the repository only guarantees atomicity.
type MergeParams struct {
	PrimaryID    uuid.UUID
	SecondaryID  uuid.UUID
	FirstName    string
	LastName     string
	Title        *string
	PrimaryEmail *string
	MobilePhone  *string
	ActorID      uuid.UUID
}

// MergeResolver inspects the two locked contact rows and resolves the final
// field values for the primary. It runs inside the merge transaction so the
// values it sees cannot change before they are written.
type MergeResolver func(primary, secondary Contact) MergeParams

// Merge performs the destructive two-record merge as a single transaction:
// write resolved field values onto the primary, repoint every lead from the
// secondary to the primary, union the secondary's lead list and contact
// channels onto the primary, tombstone the secondary, and append an audit
// entry per moved lead. Any failure rolls the whole operation back.
func (r *Repository) Merge(ctx context.Context, primaryID, secondaryID uuid.UUID, resolve MergeResolver) (Contact, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Contact{}, err
	}
	defer tx.Rollback(ctx)

	// Lock both rows in deterministic id order to avoid deadlocking against
	// a concurrent merge of the same pair in the opposite direction.
	first, second := primaryID, secondaryID
	if second.String() < first.String() {
		first, second = second, first
	}
	locked := map[uuid.UUID]Contact{}
	for _, id := range []uuid.UUID{first, second} {
		c, err := scanContact(tx.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return Contact{}, err
		}
		locked[id] = c
	}

	primary := locked[primaryID]
	secondary := locked[secondaryID]
	if primary.MergedInto != nil || secondary.MergedInto != nil {
		return Contact{}, ErrAlreadyMerged
	}

	params := resolve(primary, secondary)

	merged, err := scanContact(tx.QueryRow(ctx, `
		UPDATE contacts SET
			first_name = $2,
			last_name = $3,
			title = $4,
			primary_email = $5,
			mobile_phone = $6,
			emails = (SELECT ARRAY(SELECT DISTINCT e FROM unnest(emails || $7::text[]) AS e WHERE e <> '')),
			phones = (SELECT ARRAY(SELECT DISTINCT p FROM unnest(phones || $8::text[]) AS p WHERE p <> '')),
			lead_ids = (SELECT ARRAY(SELECT DISTINCT l FROM unnest(lead_ids || $9::uuid[]) AS l)),
			updated_at = now()
		WHERE id = $1
		RETURNING `+contactColumns,
		primaryID,
		params.FirstName, params.LastName, params.Title, params.PrimaryEmail, params.MobilePhone,
		secondary.Emails, secondary.Phones, secondary.LeadIDs,
	))
	if err != nil {
		return Contact{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE leads SET contact_id = $1, updated_at = now() WHERE contact_id = $2`,
		primaryID, secondaryID,
	); err != nil {
		return Contact{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE unattended_lead_claims SET contact_id = $1 WHERE contact_id = $2`,
		primaryID, secondaryID,
	); err != nil {
		return Contact{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contacts SET merged_into = $1, updated_at = now() WHERE id = $2`,
		primaryID, secondaryID,
	); err != nil {
		return Contact{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, action, actor, description)
		SELECT id, 'contact_merged', $1,
			'Contact ' || $2::text || ' merged into ' || $3::text
		FROM leads WHERE contact_id = $4 AND id = ANY($5::uuid[])`,
		params.ActorID.String(), secondaryID, primaryID, primaryID, secondary.LeadIDs,
	); err != nil {
		return Contact{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Contact{}, err
	}

	return merged, nil
}
