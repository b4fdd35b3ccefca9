package types

import "time"

// Edge kinds. The kind determines the structural rules the graph engine
// enforces when the edge is added.
const (
	// EdgeBlocks means from cannot start until to is closed.
	EdgeBlocks = EdgeKind("blocks")
	// EdgeChild means from is a child of to.
	EdgeChild = EdgeKind("child")
	// EdgeRelated is an informational link with no blocking semantics.
	EdgeRelated = EdgeKind("related")
)

// EdgeKind is the type of relation an edge expresses.
type EdgeKind string

// validEdgeKinds is the set of recognized edge kinds.
var validEdgeKinds = map[EdgeKind]bool{
	EdgeBlocks:  true,
	EdgeChild:   true,
	EdgeRelated: true,
}

// ParseEdgeKind converts a wire/CLI string into an EdgeKind.
// Returns ErrInvalidEdgeKind for unrecognized values.
func ParseEdgeKind(s string) (EdgeKind, error) {
	k := EdgeKind(s)
	if !validEdgeKinds[k] {
		return "", ErrInvalidEdgeKind
	}
	return k, nil
}

// Blocking reports whether this kind participates in the ready/blocked
// computation and the cycle check.
func (k EdgeKind) Blocking() bool {
	return k == EdgeBlocks
}

// Edge is a directed, typed relation between two items. Edges are
// soft-deleted: a later record with Deleted set retires an earlier
// creation during replay.
type Edge struct {
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Kind      EdgeKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"deleted,omitempty"`
}
