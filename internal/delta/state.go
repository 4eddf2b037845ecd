package delta

// State retains the single previous snapshot of one game and produces the
// delta against each new one. One State exists per running session; all of
// its observers receive the same delta.
type State struct {
	sent Sentinels
	prev map[string]any
}

func NewState(s Sentinels) *State {
	return &State{sent: s}
}

// Flush diffs cur against the retained snapshot, makes cur the new retained
// snapshot and returns the delta (nil when nothing changed). Flush takes
// ownership of cur: callers must pass a freshly serialized tree and not
// mutate it afterwards.
func (st *State) Flush(cur map[string]any) map[string]any {
	prev := st.prev
	if prev == nil {
		prev = map[string]any{}
	}
	d := Diff(prev, cur, st.sent)
	st.prev = cur
	return d
}

// Current returns the retained snapshot. The transport side must treat it as
// read-only.
func (st *State) Current() map[string]any {
	return st.prev
}
