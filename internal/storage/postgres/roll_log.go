package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/exa/internal/game/roll"
)

// RollLogRepository persists resolved rolls. It implements roll.Sink.
type RollLogRepository struct {
	db *pgxpool.Pool
}

// NewRollLogRepository creates a RollLogRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRollLogRepository(db *pgxpool.Pool) *RollLogRepository {
	return &RollLogRepository{db: db}
}

// Publish inserts out. Publishing the same outcome twice is a no-op.
//
// Postcondition: Returns nil on success or a wrapped error.
func (r *RollLogRepository) Publish(ctx context.Context, out roll.Outcome, meta roll.Metadata) error {
	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding roll outcome: %w", err)
	}
	metaBody, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding roll metadata: %w", err)
	}
	var linkedID *string
	if out.Linked != nil {
		linkedID = &out.Linked.EntityID
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO roll_log (id, entity_id, linked_id, label, successes, outcome, metadata, rolled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		out.ID.String(), out.Primary.EntityID, linkedID, out.Label, out.Successes, body, metaBody, out.RolledAt,
	)
	if err != nil {
		return fmt.Errorf("inserting roll outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit outcomes rolled by or linked to entityID,
// newest first.
//
// Precondition: limit > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *RollLogRepository) Recent(ctx context.Context, entityID string, limit int) ([]roll.Outcome, error) {
	rows, err := r.db.Query(ctx, `
		SELECT outcome FROM roll_log
		WHERE entity_id = $1 OR linked_id = $1
		ORDER BY rolled_at DESC, id ASC
		LIMIT $2`,
		entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rolls: %w", err)
	}
	defer rows.Close()

	out := make([]roll.Outcome, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning roll row: %w", err)
		}
		var o roll.Outcome
		if err := json.Unmarshal(body, &o); err != nil {
			return nil, fmt.Errorf("decoding roll outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
