// Package sheet is the read and write capability over stored entities.
// Every read re-derives from the stored tree; every write is normalized and
// re-derived before the caller observes it.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/exa/internal/game/derive"
	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/storage"
	"github.com/cory-johannsen/exa/internal/storage/snapshot"
)

var (
	// ErrInvalidKind is returned for an unknown or mismatched entity kind.
	ErrInvalidKind = errors.New("invalid entity kind")
	// ErrNotWritable is returned when a patch targets a derived or unknown field.
	ErrNotWritable = errors.New("field is not writable")
)

// Service derives and updates entities held in a storage.Store.
type Service struct {
	store  storage.Store
	engine *derive.Engine
	logger *zap.Logger
}

// NewService creates a Service.
//
// Precondition: store, engine and logger must be non-nil.
func NewService(store storage.Store, engine *derive.Engine, logger *zap.Logger) *Service {
	return &Service{store: store, engine: engine, logger: logger}
}

// Create materializes a new entity with defaults: attributes at their
// minimum, the default rank or category, and every slot list backfilled.
//
// Postcondition: Returns the derived snapshot of the new entity.
func (s *Service) Create(ctx context.Context, kind entity.Kind, name, link string) (entity.Entity, error) {
	if !kind.Valid() {
		return entity.Entity{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	e := entity.New(kind, uuid.NewString(), name)
	e.Link = link

	tables := s.engine.Tables()
	switch {
	case kind == entity.KindPilot:
		e.Rank = tables.DefaultRank
	case kind.IsCreature():
		e.Rank = tables.DefaultCreatureCategory
	case kind == entity.KindUnit:
		e.Rank = tables.DefaultUnitCategory
	}

	filled := s.engine.Derive(e, nil)
	e.Inventory, e.Loadout = filled.Inventory, filled.Loadout
	e.Attacks, e.Abilities = filled.Attacks, filled.Abilities

	raw, err := snapshot.Encode(e)
	if err != nil {
		return entity.Entity{}, err
	}
	if err := s.store.Create(ctx, &storage.Record{ID: e.ID, Kind: kind, Data: raw}); err != nil {
		return entity.Entity{}, fmt.Errorf("creating %s: %w", kind, err)
	}
	s.logger.Info("entity created",
		zap.String("id", e.ID),
		zap.String("kind", string(kind)),
		zap.String("name", name),
	)
	return s.Get(ctx, e.ID)
}

// Get returns the derived snapshot of id, recomputed from the stored tree.
//
// Postcondition: Returns the snapshot or an error wrapping storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (entity.Entity, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("loading entity %q: %w", id, err)
	}
	return s.derive(ctx, rec)
}

// List returns the derived snapshots of every entity of kind.
func (s *Service) List(ctx context.Context, kind entity.Kind) ([]entity.Entity, error) {
	recs, err := s.store.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	out := make([]entity.Entity, 0, len(recs))
	for _, rec := range recs {
		e, err := s.derive(ctx, rec)
		if err != nil {
			s.logger.Warn("skipping undecodable entity", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Lookup returns a LookupFunc bound to ctx. Resolution failures are logged
// and reported as absent links.
func (s *Service) Lookup(ctx context.Context) derive.LookupFunc {
	return func(kind entity.Kind, id string) (*entity.Entity, bool) {
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("linked entity lookup failed", zap.String("id", id), zap.Error(err))
			}
			return nil, false
		}
		if rec.Kind != kind {
			return nil, false
		}
		stored, err := decode(rec)
		if err != nil {
			s.logger.Warn("linked entity undecodable", zap.String("id", id), zap.Error(err))
			return nil, false
		}
		// Links are one level deep; the linked entity's own links are not followed.
		derived := s.engine.Derive(stored, nil)
		return &derived, true
	}
}

// Update merges a path-keyed patch into the stored tree, normalizes it, and
// returns the re-derived snapshot.
//
// Precondition: every key is a writable path for the entity's kind.
// Postcondition: on error nothing is written.
func (s *Service) Update(ctx context.Context, id string, patch map[string]any) (entity.Entity, error) {
	paths := make([]string, 0, len(patch))
	for p := range patch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rec, err := s.store.Mutate(ctx, id, func(rec *storage.Record) error {
		raw := snapshot.Densify(rec.Data)
		for _, p := range paths {
			if !entity.Writable(rec.Kind, p) {
				return fmt.Errorf("%w: %s on %s", ErrNotWritable, p, rec.Kind)
			}
			if err := snapshot.SetPath(raw, p, patch[p]); err != nil {
				return err
			}
		}
		e, err := snapshot.Decode(rec.Kind, raw)
		if err != nil {
			return err
		}
		rec.Data, err = snapshot.Encode(e)
		return err
	})
	if err != nil {
		return entity.Entity{}, fmt.Errorf("updating entity %q: %w", id, err)
	}
	s.logger.Debug("entity updated", zap.String("id", id), zap.Strings("paths", paths))
	return s.derive(ctx, rec)
}

// Consume commits up to points of resource use against id. The pool is
// re-derived inside the store mutation, so the committed amount never exceeds
// what is available at commit time, whatever the caller saw earlier.
//
// Postcondition: Returns the points actually committed, in [0, points].
func (s *Service) Consume(ctx context.Context, id string, points int) (int, error) {
	if points <= 0 {
		return 0, nil
	}
	applied := 0
	_, err := s.store.Mutate(ctx, id, func(rec *storage.Record) error {
		e, err := decode(rec)
		if err != nil {
			return err
		}
		// A resource pool depends only on the entity's own fields.
		avail := int(math.Floor(s.engine.Derive(e, nil).Exa.Current))
		applied = min(points, max(avail, 0))
		if applied == 0 {
			return nil
		}
		e.Exa.Spent += float64(applied)
		rec.Data, err = snapshot.Encode(e)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("consuming resource on %q: %w", id, err)
	}
	s.logger.Info("resource consumed",
		zap.String("id", id),
		zap.Int("requested", points),
		zap.Int("committed", applied),
	)
	return applied, nil
}

func (s *Service) derive(ctx context.Context, rec *storage.Record) (entity.Entity, error) {
	stored, err := decode(rec)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("decoding entity %q: %w", rec.ID, err)
	}
	if !s.engine.LabelKnown(stored) {
		s.logger.Warn("unknown rank or category, using default",
			zap.String("entity", rec.ID),
			zap.String("kind", string(stored.Kind)),
			zap.String("label", stored.Rank),
		)
	}
	return s.engine.Derive(stored, s.Lookup(ctx)), nil
}

func decode(rec *storage.Record) (entity.Entity, error) {
	e, err := snapshot.Decode(rec.Kind, snapshot.Densify(rec.Data))
	if err != nil {
		return entity.Entity{}, err
	}
	e.ID = rec.ID
	return e, nil
}
