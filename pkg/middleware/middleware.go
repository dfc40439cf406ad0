// Package middleware provides composable middleware for node execution.
// Middleware wraps step calls synchronously and can modify execution
// (recover from panics, log, add tracing, enforce deadlines, etc.).
package middleware

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Handler is the terminal function that runs a node's step and returns its update.
type Handler func(ctx context.Context) (domain.State, error)

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the node execution being performed, and
// the next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, info domain.StepInfo, next Handler) (domain.State, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, info domain.StepInfo, next Handler) (domain.State, error) {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (domain.State, error) {
				return mw(ctx, info, prev)
			}
		}
		return h(ctx)
	}
}
