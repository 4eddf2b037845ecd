// Package delta computes and applies minimal structural diffs between two
// serialized snapshots of the game-state tree. Snapshots are plain nested
// structures (map[string]any, []any, scalars) with game objects reduced to
// {id} references by the serializing side.
package delta

// Sentinels are the two reserved marker strings a delta uses: one for a key
// that was removed entirely, one for the new length of a changed array.
// They are an explicit immutable value passed to whoever diffs or applies,
// never package-level state.
type Sentinels struct {
	Removed    string
	ListLength string
}

// DefaultSentinels returns the wire defaults. The leading control character
// keeps them out of the space of legitimate game values.
func DefaultSentinels() Sentinels {
	return Sentinels{
		Removed:    "\x01&RM",
		ListLength: "\x01&LEN",
	}
}
