// Package numeric coerces loosely typed stored values into clamped numbers.
//
// Host documents carry numbers as JSON numbers, strings typed by players
// ("3,5"), or nothing at all. Every attribute write and every derived-field
// write goes through Normalize so the rest of the engine only ever sees
// finite, in-range float64 values.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Bounds is the closed interval a normalized value is clamped into.
// When Bounded is false the interval is [Min, +Inf).
type Bounds struct {
	Min     float64
	Max     float64
	Bounded bool
}

// AtLeast returns Bounds of [lo, +Inf).
func AtLeast(lo float64) Bounds {
	return Bounds{Min: lo}
}

// Between returns Bounds of [lo, hi].
//
// Precondition: lo <= hi.
func Between(lo, hi float64) Bounds {
	return Bounds{Min: lo, Max: hi, Bounded: true}
}

// Clamp returns v forced into b. Non-finite values collapse to b.Min.
func (b Bounds) Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return b.Min
	}
	if v < b.Min {
		return b.Min
	}
	if b.Bounded && v > b.Max {
		return b.Max
	}
	return v
}

// Normalize coerces raw into a number within b.
//
// nil, empty strings, unparseable strings, and unsupported types yield b.Min.
// Strings have "," replaced with "." before parsing.
//
// Postcondition: the result is finite and lies within b.
func Normalize(raw any, b Bounds) float64 {
	v, ok := toFloat(raw)
	if !ok {
		return b.Min
	}
	return b.Clamp(v)
}

// Int is Normalize truncated toward zero, for counters such as dice and markings.
func Int(raw any, b Bounds) int {
	return int(Normalize(raw, b))
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		return parseString(string(v))
	case string:
		return parseString(v)
	default:
		return 0, false
	}
}

func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
