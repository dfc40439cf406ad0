package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, info domain.StepInfo, next Handler) (update domain.State, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("node panicked",
					slog.String("node", info.Node),
					slog.Int("step", info.Step),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				update = nil
				retErr = fmt.Errorf("panic in node %s: %v", info.Node, r)
			}
		}()
		return next(ctx)
	}
}
