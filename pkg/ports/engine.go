package ports

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Invoker is the interface adapters (HTTP, MCP, runner) drive a compiled graph through.
type Invoker interface {
	// Invoke runs the graph from START to END and returns the final state.
	Invoke(ctx context.Context, input domain.State, cfg domain.RunConfig) (domain.State, error)

	// Inspect returns the graph structure for introspection.
	Inspect() domain.Topology
}
