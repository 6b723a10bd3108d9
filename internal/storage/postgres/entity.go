package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/storage"
)

// ErrEntityExists is returned when creating an entity whose id is taken.
var ErrEntityExists = errors.New("entity already exists")

// EntityRepository stores each entity's attribute tree as a JSONB document.
// It implements storage.Store.
type EntityRepository struct {
	db *pgxpool.Pool
}

// NewEntityRepository creates an EntityRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEntityRepository(db *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: db}
}

// Create inserts rec and sets its timestamps.
//
// Precondition: rec.ID must be non-empty; rec.Kind must be valid.
// Postcondition: Returns nil, ErrEntityExists on duplicate id, or a wrapped error.
func (r *EntityRepository) Create(ctx context.Context, rec *storage.Record) error {
	data, err := json.Marshal(dataOrEmpty(rec.Data))
	if err != nil {
		return fmt.Errorf("encoding entity data: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO entities (id, kind, data)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		rec.ID, string(rec.Kind), data,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrEntityExists
		}
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

// Get retrieves an entity by id.
//
// Postcondition: Returns the Record or storage.ErrNotFound.
func (r *EntityRepository) Get(ctx context.Context, id string) (*storage.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `
		SELECT id, kind, data, created_at, updated_at
		FROM entities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying entity: %w", err)
	}
	return rec, nil
}

// List returns every entity of kind, ordered by created_at.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *EntityRepository) List(ctx context.Context, kind entity.Kind) ([]*storage.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, data, created_at, updated_at
		FROM entities WHERE kind = $1 ORDER BY created_at ASC, id ASC`,
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

// Mutate locks the row, applies fn and writes the new tree in one transaction.
//
// Postcondition: Returns the updated Record, storage.ErrNotFound, or fn's error
// with the row unchanged.
func (r *EntityRepository) Mutate(ctx context.Context, id string, fn storage.MutateFunc) (*storage.Record, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := scanRecord(tx.QueryRow(ctx, `
		SELECT id, kind, data, created_at, updated_at
		FROM entities WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("locking entity: %w", err)
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	data, err := json.Marshal(dataOrEmpty(rec.Data))
	if err != nil {
		return nil, fmt.Errorf("encoding entity data: %w", err)
	}
	if err := tx.QueryRow(ctx, `
		UPDATE entities SET data = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		id, data,
	).Scan(&rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updating entity: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing entity: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*storage.Record, error) {
	var (
		rec  storage.Record
		kind string
		data []byte
	)
	if err := row.Scan(&rec.ID, &kind, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Kind = entity.Kind(kind)
	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return nil, fmt.Errorf("decoding entity data: %w", err)
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	return &rec, nil
}

func dataOrEmpty(d map[string]any) map[string]any {
	if d == nil {
		return map[string]any{}
	}
	return d
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
