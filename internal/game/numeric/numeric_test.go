package numeric_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/exa/internal/game/numeric"
)

func TestNormalize_DecimalComma(t *testing.T) {
	assert.Equal(t, 3.5, numeric.Normalize("3,5", numeric.AtLeast(0)))
}

func TestNormalize_EmptyStringYieldsMin(t *testing.T) {
	assert.Equal(t, 1.0, numeric.Normalize("", numeric.AtLeast(1)))
}

func TestNormalize_GarbageYieldsMin(t *testing.T) {
	assert.Equal(t, 0.0, numeric.Normalize("abc", numeric.Between(0, 5)))
}

func TestNormalize_NilYieldsMin(t *testing.T) {
	assert.Equal(t, 2.0, numeric.Normalize(nil, numeric.AtLeast(2)))
}

func TestNormalize_ClampsToMax(t *testing.T) {
	assert.Equal(t, 5.0, numeric.Normalize(9, numeric.Between(1, 5)))
	assert.Equal(t, 1.0, numeric.Normalize(-3, numeric.Between(1, 5)))
}

func TestNormalize_UnboundedAbove(t *testing.T) {
	assert.Equal(t, 42.0, numeric.Normalize(int64(42), numeric.AtLeast(0)))
}

func TestNormalize_JSONNumber(t *testing.T) {
	assert.Equal(t, 4.25, numeric.Normalize(json.Number("4.25"), numeric.AtLeast(0)))
}

func TestNormalize_NonFiniteYieldsMin(t *testing.T) {
	assert.Equal(t, 0.0, numeric.Normalize(math.NaN(), numeric.AtLeast(0)))
	assert.Equal(t, 0.0, numeric.Normalize(math.Inf(1), numeric.AtLeast(0)))
	assert.Equal(t, 0.0, numeric.Normalize("NaN", numeric.AtLeast(0)))
}

func TestNormalize_UnsupportedTypeYieldsMin(t *testing.T) {
	assert.Equal(t, 1.0, numeric.Normalize(true, numeric.AtLeast(1)))
	assert.Equal(t, 1.0, numeric.Normalize([]int{3}, numeric.AtLeast(1)))
}

func TestInt_Truncates(t *testing.T) {
	assert.Equal(t, 3, numeric.Int("3,9", numeric.AtLeast(0)))
}

func TestPropertyNormalize_AlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.Float64Range(-10, 10).Draw(rt, "lo")
		width := rapid.Float64Range(0, 20).Draw(rt, "width")
		raw := rapid.OneOf(
			rapid.Float64().AsAny(),
			rapid.String().AsAny(),
			rapid.Int().AsAny(),
		).Draw(rt, "raw")

		got := numeric.Normalize(raw, numeric.Between(lo, lo+width))
		assert.False(rt, math.IsNaN(got))
		assert.GreaterOrEqual(rt, got, lo)
		assert.LessOrEqual(rt, got, lo+width)
	})
}
