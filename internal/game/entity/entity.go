// Package entity defines the stored and derived shape of pilots, creatures,
// companions and units.
package entity

import (
	"github.com/cory-johannsen/exa/internal/game/modifier"
)

// Kind identifies which derivation rules apply to an Entity.
type Kind string

const (
	// KindPilot is a player-controlled character with a resource pool.
	KindPilot Kind = "pilot"
	// KindCreature is a free-standing creature.
	KindCreature Kind = "creature"
	// KindCompanion is a creature bound one-to-one to a pilot.
	KindCompanion Kind = "companion"
	// KindUnit is a large support vehicle bound to exactly one pilot.
	KindUnit Kind = "unit"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPilot, KindCreature, KindCompanion, KindUnit:
		return true
	}
	return false
}

// IsCreature reports whether k follows creature rules.
func (k Kind) IsCreature() bool {
	return k == KindCreature || k == KindCompanion
}

// Physical holds the physical axis attributes.
type Physical struct {
	Strength  float64 `json:"strength"`
	Dexterity float64 `json:"dexterity"`
	Vigor     float64 `json:"vigor"`
}

// Mental holds the mental axis attributes.
type Mental struct {
	Intellect  float64 `json:"intellect"`
	Insight    float64 `json:"insight"`
	Resilience float64 `json:"resilience"`
}

// Social holds the social axis attributes.
type Social struct {
	Presence     float64 `json:"presence"`
	Manipulation float64 `json:"manipulation"`
	Composure    float64 `json:"composure"`
}

// System is a unit's attribute triad. It has no upper bound.
type System struct {
	Neuromotor        float64 `json:"neuromotor"`
	Sensory           float64 `json:"sensory"`
	Structural        float64 `json:"structural"`
	StructuralPenalty float64 `json:"structuralPenalty"`
}

// Exa is the spendable resource pool.
//
// Invariant (post-derivation): Current == max(0, Max - Spent).
type Exa struct {
	Max       float64 `json:"max"`
	Spent     float64 `json:"spent"`
	Current   float64 `json:"current"`
	Overdrive float64 `json:"overdrive"`
	Synchrony float64 `json:"synchrony"`
}

// Points is the rank or category gated attribute budget.
type Points struct {
	Total       float64 `json:"total"`
	Distributed float64 `json:"distributed"`
	Remaining   float64 `json:"remaining"`
}

// Combat holds derived combat statistics.
type Combat struct {
	Initiative float64 `json:"initiative"`
	Mobility   float64 `json:"mobility"`
	Dodge      float64 `json:"dodge"`
}

// Tier is one damage severity band.
type Tier struct {
	Threshold float64 `json:"threshold"`
	Markings  float64 `json:"markings"`
}

// DamageThresholds holds the three tiers plus the flat penalty subtracted
// from the light tier.
type DamageThresholds struct {
	Light     Tier    `json:"light"`
	Moderate  Tier    `json:"moderate"`
	Severe    Tier    `json:"severe"`
	Penalties float64 `json:"penalties"`
}

// Armor tracks protection and accumulated damage.
type Armor struct {
	Total   float64 `json:"total"`
	Damage  float64 `json:"damage"`
	Current float64 `json:"current"`
}

// Equipment is a carried item or an installed unit module.
type Equipment struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Effect      string  `json:"effect"`
	Quantity    float64 `json:"quantity"`
}

// Weapon is a pilot or unit weapon.
type Weapon struct {
	Name        string `json:"name"`
	Damage      string `json:"damage"`
	Range       string `json:"range"`
	Description string `json:"description"`
}

// Attack is a creature's natural attack.
type Attack struct {
	Name        string  `json:"name"`
	Damage      string  `json:"damage"`
	Dice        float64 `json:"dice"`
	Description string  `json:"description"`
}

// Ability is a named trait with a free-text description.
type Ability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Inventory is a pilot's carried gear.
type Inventory struct {
	Equipment []Equipment `json:"equipment"`
	Weapons   []Weapon    `json:"weapons"`
}

// Loadout is a unit's installed gear.
type Loadout struct {
	Modules []Equipment `json:"modules"`
	Weapons []Weapon    `json:"weapons"`
}

// Entity is the full attribute tree of one sheet. Stored fields are authored
// by players; derived fields are overwritten by every derivation pass.
//
// Link is an identifier reference only. The linked entity is looked up afresh
// on every derivation and is never cached.
type Entity struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
	Link  string `json:"link"`
	Rank  string `json:"rank"`
	Model string `json:"model"`
	Notes string `json:"notes"`

	Physical Physical `json:"physical"`
	Mental   Mental   `json:"mental"`
	Social   Social   `json:"social"`
	System   System   `json:"system"`

	Exa             Exa              `json:"exa"`
	Points          Points           `json:"points"`
	Combat          Combat           `json:"combat"`
	DamageThreshold DamageThresholds `json:"damageThreshold"`
	Armor           Armor            `json:"armor"`

	Inventory Inventory `json:"inventory"`
	Loadout   Loadout   `json:"loadout"`
	Attacks   []Attack  `json:"attacks"`
	Abilities []Ability `json:"abilities"`

	TextualModifiers modifier.Ledger `json:"textualModifiers"`
}

// Clone returns a deep copy of e.
func (e Entity) Clone() Entity {
	out := e
	out.Inventory.Equipment = append([]Equipment(nil), e.Inventory.Equipment...)
	out.Inventory.Weapons = append([]Weapon(nil), e.Inventory.Weapons...)
	out.Loadout.Modules = append([]Equipment(nil), e.Loadout.Modules...)
	out.Loadout.Weapons = append([]Weapon(nil), e.Loadout.Weapons...)
	out.Attacks = append([]Attack(nil), e.Attacks...)
	out.Abilities = append([]Ability(nil), e.Abilities...)
	out.TextualModifiers.Breakdown = append([]modifier.Entry(nil), e.TextualModifiers.Breakdown...)
	if e.TextualModifiers.Totals != nil {
		out.TextualModifiers.Totals = make(map[string]float64, len(e.TextualModifiers.Totals))
		for k, v := range e.TextualModifiers.Totals {
			out.TextualModifiers.Totals[k] = v
		}
	}
	return out
}
