// Package ruleset holds the static tables the derivation engine consumes:
// rank and category point budgets, slot counts and damage marking caps.
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Damage marking caps per tier. These are rules policy, not configuration.
const (
	LightMarkingCap    = 3
	ModerateMarkingCap = 3
	SevereMarkingCap   = 1
)

// Input limits. A roll group larger than MaxGroupDice is refused, and no
// collection holds more than MaxCollectionItems entries.
const (
	MaxGroupDice       = 100
	MaxCollectionItems = 64
)

// Rank is a pilot's rank entry.
type Rank struct {
	Points    float64 `yaml:"points"`
	Overdrive float64 `yaml:"overdrive"`
}

// Slots holds the fixed list sizes per entity kind.
type Slots struct {
	PilotEquipment int `yaml:"pilot_equipment"`
	PilotWeapons   int `yaml:"pilot_weapons"`
	UnitModules    int `yaml:"unit_modules"`
	UnitWeapons    int `yaml:"unit_weapons"`
}

// Tables is the full set of static rules data.
type Tables struct {
	Ranks                   map[string]Rank    `yaml:"ranks"`
	DefaultRank             string             `yaml:"default_rank"`
	CreatureCategories      map[string]float64 `yaml:"creature_categories"`
	DefaultCreatureCategory string             `yaml:"default_creature_category"`
	UnitCategories          map[string]float64 `yaml:"unit_categories"`
	DefaultUnitCategory     string             `yaml:"default_unit_category"`
	Slots                   Slots              `yaml:"slots"`
}

// Default returns the compiled-in tables.
func Default() *Tables {
	return &Tables{
		Ranks: map[string]Rank{
			"E": {Points: 10, Overdrive: 1},
			"D": {Points: 12, Overdrive: 1},
			"C": {Points: 14, Overdrive: 2},
			"B": {Points: 16, Overdrive: 2},
			"A": {Points: 18, Overdrive: 3},
			"S": {Points: 20, Overdrive: 3},
		},
		DefaultRank: "E",
		CreatureCategories: map[string]float64{
			"minor":     6,
			"standard":  9,
			"elite":     12,
			"legendary": 15,
		},
		DefaultCreatureCategory: "standard",
		UnitCategories: map[string]float64{
			"light":  4,
			"medium": 6,
			"heavy":  8,
		},
		DefaultUnitCategory: "light",
		Slots: Slots{
			PilotEquipment: 5,
			PilotWeapons:   3,
			UnitModules:    4,
			UnitWeapons:    4,
		},
	}
}

// Load reads YAML overrides from path on top of Default. Map entries in the
// file replace or extend the defaults key by key.
//
// Postcondition: Returns validated Tables or a non-nil error.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset %q: %w", path, err)
	}
	t := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil {
		return nil, fmt.Errorf("parsing ruleset %q: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("ruleset %q: %w", path, err)
	}
	return t, nil
}

// Validate checks that every default label exists and no count is negative.
func (t *Tables) Validate() error {
	var errs []error
	if _, ok := lookup(t.Ranks, t.DefaultRank); !ok {
		errs = append(errs, fmt.Errorf("default_rank %q is not in ranks", t.DefaultRank))
	}
	if _, ok := lookup(t.CreatureCategories, t.DefaultCreatureCategory); !ok {
		errs = append(errs, fmt.Errorf("default_creature_category %q is not in creature_categories", t.DefaultCreatureCategory))
	}
	if _, ok := lookup(t.UnitCategories, t.DefaultUnitCategory); !ok {
		errs = append(errs, fmt.Errorf("default_unit_category %q is not in unit_categories", t.DefaultUnitCategory))
	}
	errs = append(errs, caseDuplicates("ranks", t.Ranks)...)
	errs = append(errs, caseDuplicates("creature_categories", t.CreatureCategories)...)
	errs = append(errs, caseDuplicates("unit_categories", t.UnitCategories)...)
	s := t.Slots
	for _, n := range []int{s.PilotEquipment, s.PilotWeapons, s.UnitModules, s.UnitWeapons} {
		if n < 0 || n > MaxCollectionItems {
			errs = append(errs, fmt.Errorf("slot counts must be between 0 and %d", MaxCollectionItems))
			break
		}
	}
	return errors.Join(errs...)
}

// caseDuplicates reports labels that differ only in case, which would make
// the case-insensitive lookup ambiguous.
func caseDuplicates[V any](table string, m map[string]V) []error {
	seen := make(map[string][]string, len(m))
	for k := range m {
		folded := strings.ToLower(strings.TrimSpace(k))
		seen[folded] = append(seen[folded], k)
	}
	var errs []error
	for _, labels := range seen {
		if len(labels) > 1 {
			sort.Strings(labels)
			errs = append(errs, fmt.Errorf("%s labels %q differ only in case", table, labels))
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errs
}

// Rank resolves a pilot rank label. Unknown labels fall back to DefaultRank
// and report false.
func (t *Tables) Rank(label string) (Rank, bool) {
	if r, ok := lookup(t.Ranks, label); ok {
		return r, true
	}
	r, _ := lookup(t.Ranks, t.DefaultRank)
	return r, false
}

// CreatureCategory resolves a creature category label to its points budget.
// Unknown labels fall back to DefaultCreatureCategory and report false.
func (t *Tables) CreatureCategory(label string) (float64, bool) {
	if p, ok := lookup(t.CreatureCategories, label); ok {
		return p, true
	}
	p, _ := lookup(t.CreatureCategories, t.DefaultCreatureCategory)
	return p, false
}

// UnitCategory resolves a unit category label to its points budget.
// Unknown labels fall back to DefaultUnitCategory and report false.
func (t *Tables) UnitCategory(label string) (float64, bool) {
	if p, ok := lookup(t.UnitCategories, label); ok {
		return p, true
	}
	p, _ := lookup(t.UnitCategories, t.DefaultUnitCategory)
	return p, false
}

// lookup matches label case-insensitively after trimming.
func lookup[V any](m map[string]V, label string) (V, bool) {
	label = strings.TrimSpace(label)
	if v, ok := m[label]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, label) {
			return v, true
		}
	}
	var zero V
	return zero, false
}
