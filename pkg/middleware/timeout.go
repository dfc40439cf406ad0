package middleware

import (
	"context"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Timeout returns middleware that enforces a per-node execution deadline.
// When the deadline is exceeded the context is cancelled and the step
// should return context.DeadlineExceeded.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, info domain.StepInfo, next Handler) (domain.State, error) {
		if d <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
