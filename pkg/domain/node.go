package domain

import "context"

// Step is the single capability of a node: transform a view of the state into
// a partial update. Returned fields are merged by the graph's Schema; absent
// fields are left untouched.
type Step interface {
	Run(ctx context.Context, state State) (State, error)
}

// StepFunc adapts a plain function to the Step interface.
type StepFunc func(ctx context.Context, state State) (State, error)

// Run calls f(ctx, state).
func (f StepFunc) Run(ctx context.Context, state State) (State, error) {
	return f(ctx, state)
}

// Node represents a named unit of work in the graph.
type Node struct {
	Name string
	Step Step
}
