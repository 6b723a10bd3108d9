// Package storage defines the attribute-tree store the sheet service reads
// and rewrites. Each entity is persisted as a raw JSON-shaped tree; decoding,
// normalization and derivation happen above this layer.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cory-johannsen/exa/internal/game/entity"
)

// ErrNotFound is returned when an entity lookup yields no results.
var ErrNotFound = errors.New("entity not found")

// Record is one stored entity.
type Record struct {
	ID        string
	Kind      entity.Kind
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MutateFunc rewrites rec.Data in place. Returning an error aborts the
// mutation and leaves the stored record unchanged.
type MutateFunc func(rec *Record) error

// Store persists raw entity trees.
//
// Implementations MUST be safe for concurrent use, and Mutate MUST apply fn
// atomically with respect to other Mutate calls on the same id.
type Store interface {
	// Create inserts rec. rec.ID must be unique.
	Create(ctx context.Context, rec *Record) error
	// Get returns a copy of the record or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns every record of kind ordered by creation time.
	List(ctx context.Context, kind entity.Kind) ([]*Record, error)
	// Mutate reads the record, applies fn and writes the result back.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*Record, error)
}
