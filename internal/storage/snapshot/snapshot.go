// Package snapshot adapts raw stored trees to entity.Entity values.
//
// Host storage may persist list-valued collections as sparse objects keyed by
// index ({"0": {...}, "3": {...}}). Densify rebuilds them as arrays before
// anything else reads the tree, so that quirk stays at this boundary.
package snapshot

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/game/numeric"
	"github.com/cory-johannsen/exa/internal/game/ruleset"
)

// Densify returns a copy of raw with every known collection rebuilt as a
// dense array. Numeric keys are read in ascending order and each value keeps
// its index; missing indices become nil and are backfilled by derivation.
// Non-numeric keys and indices at or past ruleset.MaxCollectionItems are
// dropped.
func Densify(raw map[string]any) map[string]any {
	out := Clone(raw)
	for _, path := range entity.AllCollections() {
		parent, key, ok := walk(out, path)
		if !ok {
			continue
		}
		if v, present := parent[key]; present {
			parent[key] = denseArray(v)
		}
	}
	return out
}

func denseArray(v any) []any {
	switch t := v.(type) {
	case []any:
		if len(t) > ruleset.MaxCollectionItems {
			return t[:ruleset.MaxCollectionItems]
		}
		return t
	case map[string]any:
		idx := make([]int, 0, len(t))
		byIdx := make(map[int]any, len(t))
		for k, item := range t {
			n, err := strconv.Atoi(k)
			if err != nil || n < 0 || n >= ruleset.MaxCollectionItems {
				continue
			}
			idx = append(idx, n)
			byIdx[n] = item
		}
		if len(idx) == 0 {
			return []any{}
		}
		sort.Ints(idx)
		out := make([]any, idx[len(idx)-1]+1)
		for _, n := range idx {
			out[n] = byIdx[n]
		}
		return out
	default:
		return []any{}
	}
}

// Decode converts a densified raw tree into an Entity of kind. Every numeric
// leaf goes through the normalizer, so strings such as "3,5" and missing
// values decode to clamped numbers. Stored fields are then clamped to their
// per-kind bounds.
func Decode(kind entity.Kind, raw map[string]any) (entity.Entity, error) {
	var e entity.Entity
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(normalizeHook),
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &e,
	})
	if err != nil {
		return entity.Entity{}, fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return entity.Entity{}, fmt.Errorf("decoding entity: %w", err)
	}
	e.Kind = kind
	e.ClampStored()
	return e, nil
}

func normalizeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() == reflect.Float64 {
		return numeric.Normalize(data, numeric.AtLeast(0)), nil
	}
	if to.Kind() == reflect.String {
		switch data.(type) {
		case map[string]any, []any:
			return "", nil
		}
	}
	return data, nil
}

// Encode converts e to a raw tree with every derived leaf removed.
func Encode(e entity.Entity) (map[string]any, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding entity: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("encoding entity: %w", err)
	}
	for _, path := range entity.DerivedPaths() {
		if parent, key, ok := walk(raw, path); ok {
			delete(parent, key)
		}
	}
	delete(raw, "id")
	delete(raw, "kind")
	return raw, nil
}

// SetPath writes value at the dotted path, creating intermediate objects and
// growing arrays as needed. Numeric segments index into arrays and must be
// below ruleset.MaxCollectionItems.
func SetPath(raw map[string]any, path string, value any) error {
	if path == "" {
		return fmt.Errorf("snapshot: empty path")
	}
	_, err := setIn(raw, strings.Split(path, "."), value, path)
	return err
}

// setIn returns node with value written under segs. Arrays may be
// reallocated, so callers store the returned node back into its parent.
func setIn(node any, segs []string, value any, path string) (any, error) {
	if len(segs) == 0 {
		return value, nil
	}
	seg := segs[0]
	switch n := node.(type) {
	case nil:
		if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 {
			return setIn([]any{}, segs, value, path)
		}
		return setIn(map[string]any{}, segs, value, path)
	case map[string]any:
		child, err := setIn(n[seg], segs[1:], value, path)
		if err != nil {
			return nil, err
		}
		n[seg] = child
		return n, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= ruleset.MaxCollectionItems {
			return nil, fmt.Errorf("snapshot: path %q: bad index %q", path, seg)
		}
		for len(n) <= idx {
			n = append(n, nil)
		}
		child, err := setIn(n[idx], segs[1:], value, path)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	default:
		return nil, fmt.Errorf("snapshot: path %q: %q is not a container", path, seg)
	}
}

// walk descends raw along the object segments of path and returns the map
// holding the final key.
func walk(raw map[string]any, path string) (map[string]any, string, bool) {
	segs := strings.Split(path, ".")
	cur := raw
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return nil, "", false
		}
		cur = next
	}
	return cur, segs[len(segs)-1], true
}

// Clone deep-copies a raw tree.
func Clone(raw map[string]any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	return cloneValue(raw).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
