// Package repository persists leads, dealerships and the unattended-lead
// claim rows. It exclusively owns creation and referential consistency of
// Contact, Lead and ProcessedLeadHash records.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrLeadNotFound is returned when a lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrDealershipNotFound is returned when no dealership matches a name.
	ErrDealershipNotFound = errors.New("dealership not found")
)

// Lead statuses. A lead is created UNATTENDED and advances to IN_PROCESS
// when a responder acts on it.
const (
	StatusUnattended = "UNATTENDED"
	StatusInProcess  = "IN_PROCESS"
)

// Dealership is a store a lead can be routed to.
type Dealership struct {
	ID                 uuid.UUID
	DealerGroupID      uuid.UUID
	Name               string
	NotificationEmails []string
}

// Lead is a durable sales opportunity created once per unique canonical
// identity hash.
type Lead struct {
	ID            uuid.UUID
	ContactID     uuid.UUID
	DealershipID  uuid.UUID
	VehicleYear   string
	VehicleMake   string
	VehicleModel  string
	VehicleTrim   string
	ExteriorColor string
	InteriorColor string
	Transmission  string
	Source        string
	Provider      string
	Comments      string
	Status        string
	AssigneeID    *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const leadColumns = `id, contact_id, dealership_id, vehicle_year, vehicle_make, vehicle_model,
	vehicle_trim, exterior_color, interior_color, transmission, source, provider, comments,
	status, assignee_id, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.ContactID, &l.DealershipID, &l.VehicleYear, &l.VehicleMake, &l.VehicleModel,
		&l.VehicleTrim, &l.ExteriorColor, &l.InteriorColor, &l.Transmission, &l.Source,
		&l.Provider, &l.Comments, &l.Status, &l.AssigneeID, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrLeadNotFound
	}
	return l, err
}

// GetLead returns a single lead by id.
func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

// GetDealership returns a dealership by id.
func (r *Repository) GetDealership(ctx context.Context, id uuid.UUID) (Dealership, error) {
	var d Dealership
	err := r.pool.QueryRow(ctx, `
		SELECT id, dealer_group_id, name, notification_emails
		FROM dealerships
		WHERE id = $1
	`, id).Scan(&d.ID, &d.DealerGroupID, &d.Name, &d.NotificationEmails)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dealership{}, ErrDealershipNotFound
	}
	return d, err
}

// FindDealershipByName matches a dealership by partial, case-insensitive name.
// The tolerance is deliberate: lead providers format vendor names
// inconsistently ("Smith Ford" vs "Smith Ford of Springfield"), and strict
// matching would reject well-formed leads. It can also match the wrong store
// when names overlap, which is why the searched name is kept in diagnostics.
func (r *Repository) FindDealershipByName(ctx context.Context, name string) (Dealership, error) {
	var d Dealership
	err := r.pool.QueryRow(ctx, `
		SELECT id, dealer_group_id, name, notification_emails
		FROM dealerships
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY length(name) ASC
		LIMIT 1
	`, name).Scan(&d.ID, &d.DealerGroupID, &d.Name, &d.NotificationEmails)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dealership{}, ErrDealershipNotFound
	}
	return d, err
}

// ListDealershipNames returns all known dealership names, for the diagnostic
// attached to an unresolvable vendor name.
func (r *Repository) ListDealershipNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM dealerships ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateContactAndLeadParams carries everything needed to persist an ingested lead.
type CreateContactAndLeadParams struct {
	DealershipID     uuid.UUID
	FirstName        string
	LastName         string
	Email            *string
	Phone            *string
	AddressStreet    string
	AddressCity      string
	AddressRegion    string
	AddressPostal    string
	AddressCountry   string
	VehicleYear      string
	VehicleMake      string
	VehicleModel     string
	VehicleTrim      string
	ExteriorColor    string
	InteriorColor    string
	Transmission     string
	Source           string
	Provider         string
	Comments         string
	IdentityHash     string
	Snapshot         json.RawMessage
	ResponseDeadline time.Time
}

// CreateContactAndLeadResult reports either the created records or, when the
// identity hash was already recorded by a concurrent ingestion, the existing
// lead's identity.
type CreateContactAndLeadResult struct {
	Lead           Lead
	ContactID      uuid.UUID
	Duplicate      bool
	ExistingLeadID uuid.UUID
}

// CreateContactAndLead persists an ingested lead in a single transaction:
// contact row, lead row, the lead id appended to the contact's lead list, an
// unattended claim row with claimant unset, the processed-hash guard row, and
// an ingestion audit entry. All writes commit together or not at all.
//
// The hash insert uses ON CONFLICT DO NOTHING on the unique hash column; a
// conflict means a concurrent ingestion won the race, so the transaction is
// rolled back and the existing lead's identity is returned instead.
func (r *Repository) CreateContactAndLead(ctx context.Context, params CreateContactAndLeadParams) (CreateContactAndLeadResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CreateContactAndLeadResult{}, err
	}
	defer tx.Rollback(ctx)

	emails := []string{}
	if params.Email != nil && *params.Email != "" {
		emails = append(emails, *params.Email)
	}
	phones := []string{}
	if params.Phone != nil && *params.Phone != "" {
		phones = append(phones, *params.Phone)
	}

	var contactID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO contacts (
			first_name, last_name, primary_email, mobile_phone, emails, phones,
			address_street, address_city, address_region, address_postal, address_country
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		params.FirstName, params.LastName, params.Email, params.Phone, emails, phones,
		params.AddressStreet, params.AddressCity, params.AddressRegion,
		params.AddressPostal, params.AddressCountry,
	).Scan(&contactID)
	if err != nil {
		return CreateContactAndLeadResult{}, err
	}

	lead, err := scanLead(tx.QueryRow(ctx, `
		INSERT INTO leads (
			contact_id, dealership_id, vehicle_year, vehicle_make, vehicle_model, vehicle_trim,
			exterior_color, interior_color, transmission, source, provider, comments, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+leadColumns,
		contactID, params.DealershipID, params.VehicleYear, params.VehicleMake, params.VehicleModel,
		params.VehicleTrim, params.ExteriorColor, params.InteriorColor, params.Transmission,
		params.Source, params.Provider, params.Comments, StatusUnattended,
	))
	if err != nil {
		return CreateContactAndLeadResult{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contacts SET lead_ids = array_append(lead_ids, $1), updated_at = now() WHERE id = $2`,
		lead.ID, contactID,
	); err != nil {
		return CreateContactAndLeadResult{}, err
	}

	// Atomic duplicate guard: the unique hash decides which concurrent
	// ingestion wins. The loser rolls back everything above.
	var insertedHash string
	err = tx.QueryRow(ctx, `
		INSERT INTO processed_lead_hashes (hash, lead_id, snapshot)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING
		RETURNING hash
	`, params.IdentityHash, lead.ID, params.Snapshot).Scan(&insertedHash)
	if errors.Is(err, pgx.ErrNoRows) {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return CreateContactAndLeadResult{}, rbErr
		}
		var existingID uuid.UUID
		if err := r.pool.QueryRow(ctx,
			`SELECT lead_id FROM processed_lead_hashes WHERE hash = $1`,
			params.IdentityHash,
		).Scan(&existingID); err != nil {
			return CreateContactAndLeadResult{}, err
		}
		return CreateContactAndLeadResult{Duplicate: true, ExistingLeadID: existingID}, nil
	}
	if err != nil {
		return CreateContactAndLeadResult{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO unattended_lead_claims (lead_id, contact_id, dealership_id, response_deadline)
		VALUES ($1, $2, $3, $4)
	`, lead.ID, contactID, params.DealershipID, params.ResponseDeadline); err != nil {
		return CreateContactAndLeadResult{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, action, actor, description)
		VALUES ($1, 'lead_ingested', $2, $3)
	`, lead.ID, params.Provider, "Lead ingested from "+params.Source); err != nil {
		return CreateContactAndLeadResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return CreateContactAndLeadResult{}, err
	}

	return CreateContactAndLeadResult{Lead: lead, ContactID: contactID}, nil
}
