package sanitize

import (
	"fmt"
	"math"
	"strconv"

	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// Int values are clamped to the signed 32-bit range regardless of the
// in-process representation, so every client sees the same arithmetic.
const (
	MaxInt = math.MaxInt32
	MinInt = math.MinInt32
)

// Sanitizer coerces untrusted wire values into well-typed in-process values.
// Value never fails: unparseable input degrades to the type's zero value
// (empty string, 0, false, empty collection, nil reference).
type Sanitizer struct {
	// Objects resolves game-object references. May be nil, in which case
	// every reference degrades to nil.
	Objects Lookup
}

// Value coerces raw into the shape t describes. Total: never panics,
// never returns a value of the wrong shape.
func (s *Sanitizer) Value(t *Type, raw any) any {
	switch t.Kind {
	case KindVoid:
		return nil
	case KindBoolean:
		return s.boolean(raw)
	case KindInt:
		return s.integer(raw)
	case KindFloat:
		return s.float(raw)
	case KindString:
		return s.str(raw)
	case KindList:
		return s.list(t, raw)
	case KindDictionary:
		return s.dict(t, raw)
	case KindGameObject:
		o := s.object(t, raw)
		if o == nil {
			// typed-nil interface would not compare equal to nil
			return nil
		}
		return o
	}
	return nil
}

// Check is the strict counterpart used for order results: raw must already
// be of the described shape (JSON numbers are interchangeable across int and
// float, with int clamping preserved). A shape mismatch is an error, and it
// is the caller's job to retry or escalate.
func (s *Sanitizer) Check(t *Type, raw any) (any, error) {
	switch t.Kind {
	case KindVoid:
		return nil, nil
	case KindBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindInt:
		if isNumber(raw) {
			return s.integer(raw), nil
		}
	case KindFloat:
		if isNumber(raw) {
			return s.float(raw), nil
		}
	case KindString:
		if str, ok := raw.(string); ok {
			return str, nil
		}
	case KindList:
		items, ok := raw.([]any)
		if !ok {
			break
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := s.Check(t.ValueType, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case KindDictionary:
		m, ok := raw.(map[string]any)
		if !ok {
			break
		}
		out := make(map[string]any, len(m))
		for k, item := range m {
			v, err := s.Check(t.ValueType, item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[s.str(s.Value(t.KeyType, k))] = v
		}
		return out, nil
	case KindGameObject:
		if o := s.object(t, raw); o != nil {
			return o, nil
		}
		return nil, fmt.Errorf("value %v is not a valid %s reference", raw, t.ObjectClass)
	}
	return nil, fmt.Errorf("value %v (%T) is not a valid %s", raw, raw, t.Kind)
}

func isNumber(raw any) bool {
	switch raw.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func (s *Sanitizer) boolean(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		return b
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	}
	return false
}

func (s *Sanitizer) integer(raw any) int64 {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float32:
		n = int64(v)
	case float64:
		// NaN truncates to 0, the int default
		if !math.IsNaN(v) {
			if v > MaxInt {
				n = MaxInt + 1 // force the clamp warning below
			} else if v < MinInt {
				n = MinInt - 1
			} else {
				n = int64(v)
			}
		}
	case bool:
		if v {
			n = 1
		}
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return 0
			}
			return s.integer(f)
		}
		n = parsed
	default:
		return 0
	}

	if n > MaxInt {
		logger.Log.Warnf("sanitize: int value %d clamped to %d", n, int64(MaxInt))
		return MaxInt
	}
	if n < MinInt {
		logger.Log.Warnf("sanitize: int value %d clamped to %d", n, int64(MinInt))
		return MinInt
	}
	return n
}

func (s *Sanitizer) float(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func (s *Sanitizer) str(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func (s *Sanitizer) list(t *Type, raw any) []any {
	items, ok := raw.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = s.Value(t.ValueType, item)
	}
	return out
}

func (s *Sanitizer) dict(t *Type, raw any) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, item := range m {
		key := s.str(s.Value(t.KeyType, k))
		out[key] = s.Value(t.ValueType, item)
	}
	return out
}

// object resolves a reference. Accepts a tracked Object, a {id: ...} map or a
// bare id string. Returns nil (not an error) for anything unresolvable or of
// the wrong class; callers needing invalid-semantics check for nil.
func (s *Sanitizer) object(t *Type, raw any) Object {
	var o Object

	switch v := raw.(type) {
	case Object:
		o = v
	case map[string]any:
		id, _ := v["id"].(string)
		o = s.lookup(id)
	case string:
		o = s.lookup(v)
	default:
		return nil
	}

	if o == nil {
		return nil
	}
	if t.ObjectClass != "" && o.ObjectName() != t.ObjectClass {
		return nil
	}
	return o
}

func (s *Sanitizer) lookup(id string) Object {
	if s.Objects == nil || id == "" {
		return nil
	}
	o, ok := s.Objects.ObjectByID(id)
	if !ok {
		return nil
	}
	return o
}
