package domain

import (
	"context"
	"slices"
)

// Edge is an unconditional transition.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RouterFunc inspects the state after a node ran and names the next node.
// Returning END terminates the run.
type RouterFunc func(ctx context.Context, state State) (string, error)

// RouteOptions tunes a conditional edge.
type RouteOptions struct {
	// Targets lists the names the router may return. Empty means any node.
	Targets []string
	// NoEnd excludes END from the implicit set of valid targets.
	NoEnd bool
}

// Router is a conditional edge attached to a source node.
type Router struct {
	Source  string
	Fn      RouterFunc
	Targets []string
	NoEnd   bool
}

// Allows reports whether target is a declared destination of the router.
// An empty target list accepts any registered node.
func (r *Router) Allows(target string, known func(string) bool) bool {
	if target == END {
		return !r.NoEnd
	}
	if len(r.Targets) == 0 {
		return known(target)
	}
	return slices.Contains(r.Targets, target)
}
