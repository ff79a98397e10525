package graph

import "errors"

// Sentinel errors.
var (
	ErrEmptyGraph      = errors.New("graph has no nodes")
	ErrUnknownKind     = errors.New("unknown centrality kind")
	ErrInvalidLimit    = errors.New("limit must be positive")
	ErrInvalidDepth    = errors.New("depth must be at least 1")
	ErrNodeNotFound    = errors.New("node not found")
	ErrUnknownNodeType = errors.New("unknown node type")
	ErrEmptyQuery      = errors.New("query must not be empty")
)

// EmptyGraphError reports a metric requested on a graph without nodes.
// It matches ErrEmptyGraph with errors.Is.
type EmptyGraphError struct {
	Op string
}

func (e *EmptyGraphError) Error() string {
	if e.Op == "" {
		return ErrEmptyGraph.Error()
	}
	return e.Op + ": " + ErrEmptyGraph.Error()
}

// Is reports whether target is ErrEmptyGraph.
func (e *EmptyGraphError) Is(target error) bool {
	return target == ErrEmptyGraph
}
