package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/storage"
)

// ErrEntityExists is returned when creating an entity whose id is taken.
var ErrEntityExists = errors.New("entity already exists")

// EntityRepository stores each entity's attribute tree as a JSON document.
// It implements storage.Store.
type EntityRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewEntityRepository creates an EntityRepository on db.
//
// Precondition: db must be open.
func NewEntityRepository(db *DB) *EntityRepository {
	return &EntityRepository{db: db.SQL(), now: time.Now}
}

// Create inserts rec and sets its timestamps.
//
// Postcondition: Returns nil, ErrEntityExists on duplicate id, or a wrapped error.
func (r *EntityRepository) Create(ctx context.Context, rec *storage.Record) error {
	data, err := encodeData(rec.Data)
	if err != nil {
		return err
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO entities (id, kind, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), data, toMillis(now), toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEntityExists
		}
		return fmt.Errorf("inserting entity: %w", err)
	}
	rec.CreatedAt, rec.UpdatedAt = now, now
	return nil
}

// Get retrieves an entity by id.
//
// Postcondition: Returns the Record or storage.ErrNotFound.
func (r *EntityRepository) Get(ctx context.Context, id string) (*storage.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `
		SELECT id, kind, data, created_at, updated_at
		FROM entities WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying entity: %w", err)
	}
	return rec, nil
}

// List returns every entity of kind, ordered by created_at.
func (r *EntityRepository) List(ctx context.Context, kind entity.Kind) ([]*storage.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, data, created_at, updated_at
		FROM entities WHERE kind = ? ORDER BY created_at ASC, rowid ASC`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	out := make([]*storage.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Mutate applies fn and writes the new tree in one immediate transaction.
//
// Postcondition: Returns the updated Record, storage.ErrNotFound, or fn's
// error with the row unchanged.
func (r *EntityRepository) Mutate(ctx context.Context, id string, fn storage.MutateFunc) (*storage.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanRecord(tx.QueryRowContext(ctx, `
		SELECT id, kind, data, created_at, updated_at
		FROM entities WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("reading entity: %w", err)
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	data, err := encodeData(rec.Data)
	if err != nil {
		return nil, err
	}
	rec.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)
	if _, err := tx.ExecContext(ctx, `
		UPDATE entities SET data = ?, updated_at = ? WHERE id = ?`,
		data, toMillis(rec.UpdatedAt), id,
	); err != nil {
		return nil, fmt.Errorf("updating entity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing entity: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*storage.Record, error) {
	var (
		rec                  storage.Record
		kind, data           string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&rec.ID, &kind, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.Kind = entity.Kind(kind)
	rec.CreatedAt, rec.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("decoding entity data: %w", err)
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	return &rec, nil
}

func encodeData(d map[string]any) (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding entity data: %w", err)
	}
	return string(b), nil
}
