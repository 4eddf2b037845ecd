package delta

import "strconv"

// Apply merges a delta into a receiver's last-known snapshot and returns the
// reconstructed snapshot. The receiver semantics are: overwrite keys present
// in the delta, delete keys marked with the Removed sentinel, and for array
// patches truncate/extend to the length sentinel before applying positional
// patches. base is not mutated.
func Apply(base, d any, s Sentinels) any {
	dm, ok := d.(map[string]any)
	if !ok {
		// verbatim value (scalar or full structure copied by the diff)
		return Copy(d)
	}

	if rawLen, isList := dm[s.ListLength]; isList {
		return applyList(base, dm, rawLen, s)
	}

	out := make(map[string]any)
	if bm, ok := base.(map[string]any); ok {
		for k, v := range bm {
			out[k] = Copy(v)
		}
	}
	for k, v := range dm {
		if marker, ok := v.(string); ok && marker == s.Removed {
			delete(out, k)
			continue
		}
		out[k] = Apply(out[k], v, s)
	}
	return out
}

func applyList(base any, dm map[string]any, rawLen any, s Sentinels) []any {
	length := 0
	if f, ok := asFloat(rawLen); ok {
		length = int(f)
	}

	prev, _ := base.([]any)
	out := make([]any, length)
	for i := range out {
		if i < len(prev) {
			out[i] = Copy(prev[i])
		}
	}

	for k, v := range dm {
		if k == s.ListLength {
			continue
		}
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= length {
			continue
		}
		if marker, ok := v.(string); ok && marker == s.Removed {
			out[idx] = nil
			continue
		}
		out[idx] = Apply(out[idx], v, s)
	}
	return out
}
