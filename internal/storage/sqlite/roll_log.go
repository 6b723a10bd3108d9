package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cory-johannsen/exa/internal/game/roll"
)

// RollLogRepository persists resolved rolls. It implements roll.Sink.
type RollLogRepository struct {
	db *sql.DB
}

// NewRollLogRepository creates a RollLogRepository on db.
func NewRollLogRepository(db *DB) *RollLogRepository {
	return &RollLogRepository{db: db.SQL()}
}

// Publish inserts out. Publishing the same outcome twice is a no-op.
func (r *RollLogRepository) Publish(ctx context.Context, out roll.Outcome, meta roll.Metadata) error {
	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding roll outcome: %w", err)
	}
	metaBody, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding roll metadata: %w", err)
	}
	var linkedID sql.NullString
	if out.Linked != nil {
		linkedID = sql.NullString{String: out.Linked.EntityID, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO roll_log (id, entity_id, linked_id, label, successes, outcome, metadata, rolled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		out.ID.String(), out.Primary.EntityID, linkedID, out.Label, out.Successes,
		string(body), string(metaBody), toMillis(out.RolledAt),
	)
	if err != nil {
		return fmt.Errorf("inserting roll outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit outcomes rolled by or linked to entityID,
// newest first.
func (r *RollLogRepository) Recent(ctx context.Context, entityID string, limit int) ([]roll.Outcome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT outcome FROM roll_log
		WHERE entity_id = ? OR linked_id = ?
		ORDER BY rolled_at DESC, rowid DESC
		LIMIT ?`,
		entityID, entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rolls: %w", err)
	}
	defer rows.Close()

	out := make([]roll.Outcome, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning roll row: %w", err)
		}
		var o roll.Outcome
		if err := json.Unmarshal([]byte(body), &o); err != nil {
			return nil, fmt.Errorf("decoding roll outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
