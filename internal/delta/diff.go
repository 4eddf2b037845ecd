package delta

import "strconv"

// Diff computes the minimal delta that transforms old into cur.
// Returns nil when the snapshots are identical (the no-op delta).
//
// Rules, applied depth-first:
//   - a key in both snapshots with nested values on both sides recurses and
//     is included only if the recursion found changes;
//   - a key present only in old is marked with the Removed sentinel;
//   - unequal scalars record the new value;
//   - a key present only in cur is copied verbatim.
//
// Arrays diff into an object keyed by stringified indices; the ListLength
// sentinel key carries the new length whenever any element changed or the
// length itself changed, so a pure shrink is represented by the length
// sentinel alone and the receiver truncates from it.
func Diff(old, cur map[string]any, s Sentinels) map[string]any {
	out := make(map[string]any)

	for key, ov := range old {
		nv, present := cur[key]
		if !present {
			out[key] = s.Removed
			continue
		}
		if d, changed := diffValue(ov, nv, s); changed {
			out[key] = d
		}
	}

	for key, nv := range cur {
		if _, present := old[key]; !present {
			out[key] = Copy(nv)
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func diffValue(ov, nv any, s Sentinels) (any, bool) {
	if om, ok := ov.(map[string]any); ok {
		if nm, ok := nv.(map[string]any); ok {
			d := Diff(om, nm, s)
			if d == nil {
				return nil, false
			}
			return d, true
		}
	}
	if ol, ok := ov.([]any); ok {
		if nl, ok := nv.([]any); ok {
			return diffList(ol, nl, s)
		}
	}
	// nested on one side only, or plain scalars: replace when unequal
	if scalarEqual(ov, nv) {
		return nil, false
	}
	return Copy(nv), true
}

func diffList(ol, nl []any, s Sentinels) (any, bool) {
	d := make(map[string]any)

	shared := len(ol)
	if len(nl) < shared {
		shared = len(nl)
	}
	for i := 0; i < shared; i++ {
		if dv, changed := diffValue(ol[i], nl[i], s); changed {
			d[strconv.Itoa(i)] = dv
		}
	}
	// appended tail is copied verbatim; a removed tail is implied by the
	// length sentinel alone
	for i := shared; i < len(nl); i++ {
		d[strconv.Itoa(i)] = Copy(nl[i])
	}

	if len(d) == 0 && len(ol) == len(nl) {
		return nil, false
	}
	d[s.ListLength] = len(nl)
	return d, true
}

// scalarEqual compares non-nested values, treating all numeric types as one
// domain: snapshots hold int64/float64 but deltas that round-tripped through
// JSON come back as float64.
func scalarEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	if _, ok := asFloat(b); ok {
		return false
	}
	// maps/slices reach here only on kind mismatch and are never equal
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Copy deep-copies a snapshot value. Scalars are returned as-is.
func Copy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Copy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Copy(e)
		}
		return out
	}
	return v
}
