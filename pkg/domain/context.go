package domain

import "context"

// StepInfo identifies the node execution in progress.
type StepInfo struct {
	Graph    string
	ThreadID string
	Node     string
	Step     int
}

type stepInfoKey struct{}

// WithStepInfo returns a context carrying info.
func WithStepInfo(ctx context.Context, info StepInfo) context.Context {
	return context.WithValue(ctx, stepInfoKey{}, info)
}

// StepInfoFrom extracts the node execution info placed by the executor.
func StepInfoFrom(ctx context.Context) (StepInfo, bool) {
	info, ok := ctx.Value(stepInfoKey{}).(StepInfo)
	return info, ok
}
