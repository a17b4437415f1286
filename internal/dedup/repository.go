package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no processed hash record exists.
var ErrNotFound = errors.New("processed lead hash not found")

// ProcessedHash maps a canonical identity hash to the lead it produced,
// together with a snapshot of the parsed payload for operator triage.
type ProcessedHash struct {
	Hash      string
	LeadID    uuid.UUID
	Snapshot  json.RawMessage
	CreatedAt time.Time
}

// Repository persists processed lead hashes. The hash column carries a UNIQUE
// constraint; Record inside the ingestion transaction is the atomic guard
// against duplicate lead creation under concurrency — Exists is only the
// fast-path short-circuit.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new dedup repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Exists reports whether the hash has already been ingested.
func (r *Repository) Exists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_lead_hashes WHERE hash = $1)`,
		hash,
	).Scan(&exists)
	return exists, err
}

// GetByHash returns the processed record for a hash.
func (r *Repository) GetByHash(ctx context.Context, hash string) (ProcessedHash, error) {
	var rec ProcessedHash
	err := r.pool.QueryRow(ctx,
		`SELECT hash, lead_id, snapshot, created_at FROM processed_lead_hashes WHERE hash = $1`,
		hash,
	).Scan(&rec.Hash, &rec.LeadID, &rec.Snapshot, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProcessedHash{}, ErrNotFound
	}
	return rec, err
}
