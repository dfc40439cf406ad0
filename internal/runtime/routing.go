package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/stategraph/pkg/domain"
)

// resolveNext picks the successor of current: its unconditional edge, the
// result of its router, or END when it declares no route.
func (e *Engine) resolveNext(ctx context.Context, current string, state domain.State) (string, error) {
	if to, ok := e.graph.Edge(current); ok {
		return to, nil
	}

	r, ok := e.graph.Router(current)
	if !ok {
		return domain.END, nil
	}

	next, err := r.Fn(ctx, state.Clone())
	if err != nil {
		return "", fmt.Errorf("router of %q: %w", current, err)
	}
	if !r.Allows(next, e.graph.HasNode) {
		return "", fmt.Errorf("router of %q returned %q, which is not a declared target", current, next)
	}
	return next, nil
}
