package ruleset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/exa/internal/game/ruleset"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, ruleset.Default().Validate())
}

func TestRank_KnownLabel(t *testing.T) {
	r, ok := ruleset.Default().Rank("c")
	assert.True(t, ok)
	assert.Equal(t, ruleset.Rank{Points: 14, Overdrive: 2}, r)
}

func TestRank_UnknownFallsBackToDefault(t *testing.T) {
	r, ok := ruleset.Default().Rank("Z")
	assert.False(t, ok)
	assert.Equal(t, ruleset.Rank{Points: 10, Overdrive: 1}, r)
}

func TestCreatureCategory_Fallback(t *testing.T) {
	tbl := ruleset.Default()
	p, ok := tbl.CreatureCategory(" Elite ")
	assert.True(t, ok)
	assert.Equal(t, 12.0, p)
	p, ok = tbl.CreatureCategory("")
	assert.False(t, ok)
	assert.Equal(t, 9.0, p)
}

func TestUnitCategory_Fallback(t *testing.T) {
	p, ok := ruleset.Default().UnitCategory("titanic")
	assert.False(t, ok)
	assert.Equal(t, 4.0, p)
}

func TestLoad_OverridesMergeWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ranks:
  SS: {points: 24, overdrive: 4}
slots:
  pilot_equipment: 6
  pilot_weapons: 3
  unit_modules: 4
  unit_weapons: 2
`), 0o644))
	tbl, err := ruleset.Load(path)
	require.NoError(t, err)
	r, ok := tbl.Rank("SS")
	assert.True(t, ok)
	assert.Equal(t, 24.0, r.Points)
	_, ok = tbl.Rank("E")
	assert.True(t, ok, "defaults survive an override")
	assert.Equal(t, 6, tbl.Slots.PilotEquipment)
	assert.Equal(t, 2, tbl.Slots.UnitWeapons)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("marking_caps: {light: 9}\n"), 0o644))
	_, err := ruleset.Load(path)
	assert.Error(t, err)
}

func TestLoad_BadDefaultRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_rank: Q\n"), 0o644))
	_, err := ruleset.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := ruleset.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_RejectsCaseDuplicateLabels(t *testing.T) {
	tbl := ruleset.Default()
	tbl.Ranks["e"] = ruleset.Rank{Points: 99}
	err := tbl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differ only in case")

	tbl = ruleset.Default()
	tbl.UnitCategories["LIGHT"] = 1
	assert.Error(t, tbl.Validate())
}

func TestLoad_CaseDuplicateOfDefaultRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranks:\n  s: {points: 30, overdrive: 5}\n"), 0o644))
	_, err := ruleset.Load(path)
	assert.Error(t, err)
}

func TestValidate_SlotCountsBounded(t *testing.T) {
	tbl := ruleset.Default()
	tbl.Slots.PilotEquipment = ruleset.MaxCollectionItems + 1
	assert.Error(t, tbl.Validate())

	tbl = ruleset.Default()
	tbl.Slots.UnitWeapons = -1
	assert.Error(t, tbl.Validate())
}
