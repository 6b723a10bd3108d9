// Package memory provides an in-process Store for tests and single-session tools.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/storage"
	"github.com/cory-johannsen/exa/internal/storage/snapshot"
)

// Store keeps records in a map guarded by a mutex. Records are deep-copied
// on the way in and out.
type Store struct {
	mu      sync.Mutex
	records map[string]*storage.Record
	now     func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]*storage.Record), now: time.Now}
}

// Create inserts rec.
//
// Postcondition: returns an error if rec.ID is empty or already present.
func (s *Store) Create(_ context.Context, rec *storage.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("memory: record id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("memory: record %q already exists", rec.ID)
	}
	cp := copyRecord(rec)
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.records[rec.ID] = cp
	rec.CreatedAt, rec.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	return nil
}

// Get returns a copy of the record, or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyRecord(rec), nil
}

// List returns every record of kind, oldest first.
func (s *Store) List(_ context.Context, kind entity.Kind) ([]*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*storage.Record, 0)
	for _, rec := range s.records {
		if rec.Kind == kind {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Mutate applies fn to a copy of the record under the store lock and keeps
// the result only if fn succeeds.
//
// Precondition: fn must not call back into s.
func (s *Store) Mutate(_ context.Context, id string, fn storage.MutateFunc) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	work := copyRecord(rec)
	if err := fn(work); err != nil {
		return nil, err
	}
	work.ID, work.Kind, work.CreatedAt = rec.ID, rec.Kind, rec.CreatedAt
	work.UpdatedAt = s.now()
	s.records[id] = work
	return copyRecord(work), nil
}

func copyRecord(r *storage.Record) *storage.Record {
	cp := *r
	cp.Data = snapshot.Clone(r.Data)
	return &cp
}
