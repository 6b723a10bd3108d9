package entity

import (
	"strconv"
	"strings"

	"github.com/cory-johannsen/exa/internal/game/numeric"
	"github.com/cory-johannsen/exa/internal/game/ruleset"
)

// Field is a numeric leaf of an Entity addressed by its canonical dotted path.
type Field struct {
	Path    string
	Value   *float64
	Bounds  numeric.Bounds
	Derived bool
}

// AttributeBounds is the clamp range of pilot and creature base attributes.
var AttributeBounds = numeric.Between(1, 5)

var nonNegative = numeric.AtLeast(0)

// Attributes returns the nine base attributes of a pilot or creature.
func (e *Entity) Attributes() []Field {
	return []Field{
		{Path: "physical.strength", Value: &e.Physical.Strength, Bounds: AttributeBounds},
		{Path: "physical.dexterity", Value: &e.Physical.Dexterity, Bounds: AttributeBounds},
		{Path: "physical.vigor", Value: &e.Physical.Vigor, Bounds: AttributeBounds},
		{Path: "mental.intellect", Value: &e.Mental.Intellect, Bounds: AttributeBounds},
		{Path: "mental.insight", Value: &e.Mental.Insight, Bounds: AttributeBounds},
		{Path: "mental.resilience", Value: &e.Mental.Resilience, Bounds: AttributeBounds},
		{Path: "social.presence", Value: &e.Social.Presence, Bounds: AttributeBounds},
		{Path: "social.manipulation", Value: &e.Social.Manipulation, Bounds: AttributeBounds},
		{Path: "social.composure", Value: &e.Social.Composure, Bounds: AttributeBounds},
	}
}

// SystemTriad returns a unit's neuromotor, sensory and structural scores.
func (e *Entity) SystemTriad() []Field {
	return []Field{
		{Path: "system.neuromotor", Value: &e.System.Neuromotor, Bounds: nonNegative},
		{Path: "system.sensory", Value: &e.System.Sensory, Bounds: nonNegative},
		{Path: "system.structural", Value: &e.System.Structural, Bounds: nonNegative},
	}
}

// Fields returns every numeric leaf that exists for e.Kind. A path that is
// not listed does not resolve for that kind.
func (e *Entity) Fields() []Field {
	var out []Field
	switch {
	case e.Kind == KindUnit:
		out = append(out, e.SystemTriad()...)
		out = append(out,
			Field{Path: "system.structuralPenalty", Value: &e.System.StructuralPenalty, Bounds: nonNegative},
			Field{Path: "exa.synchrony", Value: &e.Exa.Synchrony, Bounds: nonNegative},
		)
	default:
		out = append(out, e.Attributes()...)
	}
	if e.Kind == KindPilot {
		out = append(out,
			Field{Path: "exa.max", Value: &e.Exa.Max, Bounds: nonNegative, Derived: true},
			Field{Path: "exa.spent", Value: &e.Exa.Spent, Bounds: nonNegative},
			Field{Path: "exa.current", Value: &e.Exa.Current, Bounds: nonNegative, Derived: true},
			Field{Path: "exa.overdrive", Value: &e.Exa.Overdrive, Bounds: nonNegative, Derived: true},
		)
	}
	out = append(out,
		Field{Path: "points.total", Value: &e.Points.Total, Bounds: nonNegative, Derived: true},
		Field{Path: "points.distributed", Value: &e.Points.Distributed, Bounds: nonNegative, Derived: true},
		Field{Path: "points.remaining", Value: &e.Points.Remaining, Bounds: nonNegative, Derived: true},
		Field{Path: "combat.initiative", Value: &e.Combat.Initiative, Bounds: nonNegative, Derived: true},
		Field{Path: "combat.mobility", Value: &e.Combat.Mobility, Bounds: nonNegative, Derived: true},
		Field{Path: "combat.dodge", Value: &e.Combat.Dodge, Bounds: nonNegative, Derived: true},
		Field{Path: "damageThreshold.light.threshold", Value: &e.DamageThreshold.Light.Threshold, Bounds: nonNegative, Derived: true},
		Field{Path: "damageThreshold.light.markings", Value: &e.DamageThreshold.Light.Markings, Bounds: nonNegative},
		Field{Path: "damageThreshold.moderate.threshold", Value: &e.DamageThreshold.Moderate.Threshold, Bounds: nonNegative, Derived: true},
		Field{Path: "damageThreshold.moderate.markings", Value: &e.DamageThreshold.Moderate.Markings, Bounds: nonNegative},
		Field{Path: "damageThreshold.severe.threshold", Value: &e.DamageThreshold.Severe.Threshold, Bounds: nonNegative, Derived: true},
		Field{Path: "damageThreshold.severe.markings", Value: &e.DamageThreshold.Severe.Markings, Bounds: nonNegative},
		Field{Path: "damageThreshold.penalties", Value: &e.DamageThreshold.Penalties, Bounds: nonNegative},
		Field{Path: "armor.total", Value: &e.Armor.Total, Bounds: nonNegative},
		Field{Path: "armor.damage", Value: &e.Armor.Damage, Bounds: nonNegative},
		Field{Path: "armor.current", Value: &e.Armor.Current, Bounds: nonNegative, Derived: true},
	)
	return out
}

// Field returns the numeric leaf at path, if it resolves for e.Kind.
func (e *Entity) Field(path string) (Field, bool) {
	for _, f := range e.Fields() {
		if f.Path == path {
			return f, true
		}
	}
	return Field{}, false
}

// ClampStored forces every stored numeric field into its bounds.
func (e *Entity) ClampStored() {
	for _, f := range e.Fields() {
		if !f.Derived {
			*f.Value = f.Bounds.Clamp(*f.Value)
		}
	}
}

// textFields are the string leaves a player may author directly.
var textFields = map[string]bool{
	"name": true, "notes": true, "rank": true, "link": true,
}

// collectionFields lists, per collection path, the item fields that may be written.
var collectionFields = map[string]map[string]bool{
	"inventory.equipment": {"name": true, "description": true, "effect": true, "quantity": true},
	"inventory.weapons":   {"name": true, "damage": true, "range": true, "description": true},
	"loadout.modules":     {"name": true, "description": true, "effect": true, "quantity": true},
	"loadout.weapons":     {"name": true, "damage": true, "range": true, "description": true},
	"attacks":             {"name": true, "damage": true, "dice": true, "description": true},
	"abilities":           {"name": true, "description": true},
}

// Collections returns the list-valued paths owned by kind.
func Collections(kind Kind) []string {
	switch {
	case kind == KindPilot:
		return []string{"inventory.equipment", "inventory.weapons", "abilities"}
	case kind.IsCreature():
		return []string{"attacks", "abilities"}
	case kind == KindUnit:
		return []string{"loadout.modules", "loadout.weapons"}
	}
	return nil
}

// AllCollections returns every list-valued path of any kind.
func AllCollections() []string {
	return []string{"inventory.equipment", "inventory.weapons", "loadout.modules", "loadout.weapons", "attacks", "abilities"}
}

// Writable reports whether a player may author path on an entity of kind.
// Derived fields, paths that do not resolve for kind, and collection indices
// at or past ruleset.MaxCollectionItems are not writable.
func Writable(kind Kind, path string) bool {
	if textFields[path] || (path == "model" && kind == KindUnit) {
		return true
	}
	probe := Entity{Kind: kind}
	if f, ok := probe.Field(path); ok {
		return !f.Derived
	}
	for _, c := range Collections(kind) {
		rest, ok := strings.CutPrefix(path, c+".")
		if !ok {
			continue
		}
		idx, field, ok := strings.Cut(rest, ".")
		if !ok {
			return false
		}
		if n, err := strconv.Atoi(idx); err != nil || n < 0 || n >= ruleset.MaxCollectionItems {
			return false
		}
		return collectionFields[c][field]
	}
	return false
}

// DerivedPaths lists every derived leaf. These are never persisted.
func DerivedPaths() []string {
	probe := Entity{Kind: KindPilot}
	var out []string
	for _, f := range probe.Fields() {
		if f.Derived {
			out = append(out, f.Path)
		}
	}
	return append(out, "textualModifiers")
}
