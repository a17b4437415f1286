package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activity is one append-only audit trail entry for a lead.
type Activity struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Action      string
	Actor       string
	Description string
	CreatedAt   time.Time
}

// AppendActivity writes one audit entry. The trail is write-only from the
// perspective of the lead lifecycle core.
func (r *Repository) AppendActivity(ctx context.Context, leadID uuid.UUID, action, actor, description string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, action, actor, description)
		VALUES ($1, $2, $3, $4)
	`, leadID, action, actor, description)
	return err
}

// ListActivities returns the audit trail for a lead, oldest first.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, action, actor, description, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Action, &a.Actor, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
