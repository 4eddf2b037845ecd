// Package settings validates and normalizes a game's configurable parameters
// before the game is built. Unlike runtime sanitization, this is strict:
// unknown keys and out-of-range numbers are hard configuration errors, never
// silently clamped.
package settings

import (
	"fmt"
	"sort"
	"strconv"
)

// Entry declares one configurable parameter. The Default's Go type decides
// how override strings are parsed (int64, float64, bool or string).
type Entry struct {
	Default     any
	Description string

	// Min/Max bound numeric entries. Nil means unbounded on that side.
	Min *float64
	Max *float64
}

// Schema is the declared set of parameters of one game. Immutable once the
// game definition is constructed.
type Schema map[string]Entry

// Validate normalizes a flat key/value override map (URL-query style strings)
// into the final settings values, starting from the defaults.
func (s Schema) Validate(overrides map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(s))
	for key, entry := range s {
		out[key] = entry.Default
	}

	// deterministic error reporting
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry, known := s[key]
		if !known {
			return nil, fmt.Errorf("settings: unknown key %q", key)
		}
		value, err := entry.parse(key, overrides[key])
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func (e Entry) parse(key, raw string) (any, error) {
	switch e.Default.(type) {
	case int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %q is not an integer", key, raw)
		}
		if err := e.checkRange(key, float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %q is not a number", key, raw)
		}
		if err := e.checkRange(key, f); err != nil {
			return nil, err
		}
		return f, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %q is not a boolean", key, raw)
		}
		return b, nil
	case string:
		return raw, nil
	}
	return nil, fmt.Errorf("settings: %s has an unsupported default type %T", key, e.Default)
}

func (e Entry) checkRange(key string, v float64) error {
	if e.Min != nil && v < *e.Min {
		return fmt.Errorf("settings: %s: %v is below the minimum %v", key, v, *e.Min)
	}
	if e.Max != nil && v > *e.Max {
		return fmt.Errorf("settings: %s: %v is above the maximum %v", key, v, *e.Max)
	}
	return nil
}

// Bound is a helper for pointer bounds in schema literals.
func Bound(v float64) *float64 { return &v }
