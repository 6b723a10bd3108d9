// Package derive recomputes every derived field of an entity from its stored
// fields and the stored fields of the entity it links to.
//
// Derivation is a pure function. Nothing is patched incrementally: each pass
// starts from the stored snapshot and runs the full pipeline in a fixed
// order, because later steps read the outputs of earlier ones.
package derive

import (
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/game/modifier"
	"github.com/cory-johannsen/exa/internal/game/numeric"
	"github.com/cory-johannsen/exa/internal/game/ruleset"
)

// LookupFunc resolves a linked entity to its current derived snapshot.
// It reports false when the id does not resolve; derivation then treats the
// link as absent.
type LookupFunc func(kind entity.Kind, id string) (*entity.Entity, bool)

// Engine holds the static tables derivation consumes.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	tables  *ruleset.Tables
	aliases *modifier.Table
}

// NewEngine creates an Engine. Nil arguments select the compiled-in defaults.
func NewEngine(tables *ruleset.Tables, aliases *modifier.Table) *Engine {
	if tables == nil {
		tables = ruleset.Default()
	}
	if aliases == nil {
		aliases = modifier.DefaultTable()
	}
	return &Engine{tables: tables, aliases: aliases}
}

// Tables returns the ruleset tables the engine derives with.
func (e *Engine) Tables() *ruleset.Tables {
	return e.tables
}

// LabelKnown reports whether e.Rank names an entry in the table for e.Kind.
// Derive falls back to the default entry when it does not.
func (e *Engine) LabelKnown(ent entity.Entity) bool {
	var ok bool
	switch {
	case ent.Kind == entity.KindUnit:
		_, ok = e.tables.UnitCategory(ent.Rank)
	case ent.Kind.IsCreature():
		_, ok = e.tables.CreatureCategory(ent.Rank)
	default:
		_, ok = e.tables.Rank(ent.Rank)
	}
	return ok
}

// Derive returns a copy of stored with every derived field recomputed.
// lookup may be nil, in which case every link is treated as absent.
//
// Postcondition: stored is not modified; Derive(stored) is deterministic.
func (e *Engine) Derive(stored entity.Entity, lookup LookupFunc) entity.Entity {
	out := stored.Clone()
	switch {
	case out.Kind == entity.KindUnit:
		e.deriveUnit(&out, lookup)
	case out.Kind.IsCreature():
		e.deriveCreature(&out)
	default:
		e.derivePilot(&out)
	}
	e.applyTextualModifiers(&out)
	if out.Kind == entity.KindUnit && !hasModel(&out) {
		collapse(&out)
	}
	reconcile(&out)
	return out
}

func (e *Engine) derivePilot(p *entity.Entity) {
	clampAll(p.Attributes())

	rank, _ := e.tables.Rank(p.Rank)
	p.Points.Total = rank.Points
	p.Exa.Overdrive = rank.Overdrive

	distribute(p, p.Attributes())

	p.Exa.Spent = numeric.AtLeast(0).Clamp(p.Exa.Spent)
	p.Exa.Max = p.Mental.Resilience
	p.Exa.Current = math.Max(0, p.Exa.Max-p.Exa.Spent)
	p.Exa.Synchrony = 0

	armor(p)
	p.Combat = personalCombat(p)
	thresholds(p, p.Physical.Vigor)

	p.Inventory.Equipment = backfill(p.Inventory.Equipment, e.tables.Slots.PilotEquipment)
	p.Inventory.Weapons = backfill(p.Inventory.Weapons, e.tables.Slots.PilotWeapons)
	p.Abilities = nonNil(p.Abilities)
}

func (e *Engine) deriveCreature(c *entity.Entity) {
	clampAll(c.Attributes())

	c.Points.Total, _ = e.tables.CreatureCategory(c.Rank)
	distribute(c, c.Attributes())

	c.Exa = entity.Exa{}

	armor(c)
	c.Combat = personalCombat(c)
	thresholds(c, c.Physical.Vigor)

	c.Attacks = nonNil(c.Attacks)
	for i := range c.Attacks {
		a := &c.Attacks[i]
		a.Name = strings.TrimSpace(a.Name)
		a.Damage = strings.TrimSpace(a.Damage)
		a.Dice = math.Floor(numeric.AtLeast(0).Clamp(a.Dice))
	}
	c.Abilities = nonNil(c.Abilities)
}

func (e *Engine) deriveUnit(u *entity.Entity, lookup LookupFunc) {
	triad := u.SystemTriad()
	modeled := hasModel(u)
	if modeled {
		clampAll(triad)
	} else {
		collapse(u)
	}

	u.Points.Total, _ = e.tables.UnitCategory(u.Rank)
	distribute(u, triad)

	synchrony := numeric.AtLeast(0).Clamp(u.Exa.Synchrony)
	u.Exa = entity.Exa{Synchrony: synchrony}

	pilot := linkedPilot(u, lookup)
	if modeled {
		u.Combat = entity.Combat{
			Initiative: pilot.Combat.Initiative + synchrony,
			Mobility:   pilot.Combat.Mobility + synchrony,
			Dodge:      pilot.Combat.Dodge + synchrony,
		}
	} else {
		u.Combat = entity.Combat{}
	}

	u.System.StructuralPenalty = numeric.AtLeast(0).Clamp(u.System.StructuralPenalty)
	thresholds(u, pilot.Physical.Vigor+(u.System.Structural-u.System.StructuralPenalty))
	armor(u)

	u.Loadout.Modules = backfill(u.Loadout.Modules, e.tables.Slots.UnitModules)
	u.Loadout.Weapons = backfill(u.Loadout.Weapons, e.tables.Slots.UnitWeapons)
}

func hasModel(u *entity.Entity) bool {
	return strings.TrimSpace(u.Model) != ""
}

// collapse zeroes the triad and combat stats of a unit with no model, so no
// stale value survives from an earlier configuration.
func collapse(u *entity.Entity) {
	for _, f := range u.SystemTriad() {
		*f.Value = 0
	}
	u.Combat = entity.Combat{}
}

// linkedPilot copies the values of the linked pilot, or returns the zero
// entity when there is no link or it does not resolve to a pilot.
func linkedPilot(u *entity.Entity, lookup LookupFunc) entity.Entity {
	if lookup == nil || u.Link == "" {
		return entity.Entity{}
	}
	p, ok := lookup(entity.KindPilot, u.Link)
	if !ok || p == nil || p.Kind != entity.KindPilot {
		return entity.Entity{}
	}
	return *p
}

func clampAll(fields []entity.Field) {
	for _, f := range fields {
		*f.Value = f.Bounds.Clamp(*f.Value)
	}
}

// distribute fills Points.Distributed and Points.Remaining. The first point
// of every attribute is free.
func distribute(e *entity.Entity, attrs []entity.Field) {
	var spent float64
	for _, f := range attrs {
		spent += math.Max(0, *f.Value-1)
	}
	e.Points.Distributed = spent
	e.Points.Remaining = math.Max(0, e.Points.Total-spent)
}

// personalCombat reads Armor.Total, so armor must run first.
func personalCombat(e *entity.Entity) entity.Combat {
	dex := e.Physical.Dexterity
	return entity.Combat{
		Initiative: dex + e.Mental.Insight,
		Mobility:   2 + dex,
		Dodge:      math.Max(1, math.Floor(dex/2)-e.Armor.Total/10),
	}
}

func thresholds(e *entity.Entity, lightBase float64) {
	d := &e.DamageThreshold
	d.Penalties = numeric.AtLeast(0).Clamp(d.Penalties)
	d.Light.Threshold = math.Max(0, lightBase-d.Penalties)
	d.Moderate.Threshold = 2 * lightBase
	d.Severe.Threshold = 4 * lightBase
	d.Light.Markings = numeric.Between(0, ruleset.LightMarkingCap).Clamp(d.Light.Markings)
	d.Moderate.Markings = numeric.Between(0, ruleset.ModerateMarkingCap).Clamp(d.Moderate.Markings)
	d.Severe.Markings = numeric.Between(0, ruleset.SevereMarkingCap).Clamp(d.Severe.Markings)
}

func armor(e *entity.Entity) {
	e.Armor.Total = numeric.AtLeast(0).Clamp(e.Armor.Total)
	e.Armor.Damage = numeric.AtLeast(0).Clamp(e.Armor.Damage)
	e.Armor.Current = math.Max(0, e.Armor.Total-e.Armor.Damage)
}

// backfill pads items to n slots with empty records. Present records are
// kept as they are, and lists longer than n are not truncated.
func backfill[T any](items []T, n int) []T {
	out := nonNil(items)
	for len(out) < n {
		var zero T
		out = append(out, zero)
	}
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// applyTextualModifiers scans every free-text field of e and its owned items,
// records the ledger, and adds each nonzero total to the field at its path
// when that path resolves for e.Kind.
func (e *Engine) applyTextualModifiers(ent *entity.Entity) {
	var entries []modifier.Entry
	scan := func(text, source string) {
		entries = append(entries, e.aliases.Parse(text, source)...)
	}

	scan(ent.Notes, "notes")
	for i, a := range ent.Abilities {
		scan(a.Description, label("ability", a.Name, i))
	}
	switch {
	case ent.Kind == entity.KindPilot:
		for i, it := range ent.Inventory.Equipment {
			src := label("equipment", it.Name, i)
			scan(it.Description, src)
			scan(it.Effect, src)
		}
		for i, w := range ent.Inventory.Weapons {
			scan(w.Description, label("weapon", w.Name, i))
		}
	case ent.Kind.IsCreature():
		for i, a := range ent.Attacks {
			scan(a.Description, label("attack", a.Name, i))
		}
	case ent.Kind == entity.KindUnit:
		for i, m := range ent.Loadout.Modules {
			src := label("module", m.Name, i)
			scan(m.Description, src)
			scan(m.Effect, src)
		}
		for i, w := range ent.Loadout.Weapons {
			scan(w.Description, label("weapon", w.Name, i))
		}
	}

	ent.TextualModifiers = modifier.NewLedger(entries)
	for _, path := range ent.TextualModifiers.Paths() {
		f, ok := ent.Field(path)
		if !ok || math.IsNaN(*f.Value) {
			continue
		}
		*f.Value += ent.TextualModifiers.Totals[path]
	}
}

func label(kind, name string, idx int) string {
	if name = strings.TrimSpace(name); name != "" {
		return kind + ":" + name
	}
	return fmt.Sprintf("%s#%d", kind, idx)
}

// reconcile restores the closing identities after textual modifiers have
// adjusted their inputs.
func reconcile(e *entity.Entity) {
	e.Exa.Current = math.Max(0, e.Exa.Max-e.Exa.Spent)
	e.Points.Remaining = math.Max(0, e.Points.Total-e.Points.Distributed)
	e.Armor.Current = math.Max(0, e.Armor.Total-e.Armor.Damage)
}
