package semantic

import "github.com/cockroachdb/errors"

// ErrCorruptSnapshot is returned when a serialized graph is missing required
// arrays or would break node/edge identity.
var ErrCorruptSnapshot = errors.New("corrupt knowledge graph snapshot")

func corruptf(format string, args ...any) error {
	return errors.WithHint(
		errors.Mark(errors.Newf(format, args...), ErrCorruptSnapshot),
		"the snapshot must contain nodes, edges, coOccurrences and entityContexts arrays with unique non-empty ids",
	)
}
