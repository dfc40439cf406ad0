package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/prebuilt"
)

// ErrToolDenied is returned to the tool node when a policy blocks a call.
var ErrToolDenied = errors.New("tool call denied")

// ToolInterceptor is a middleware that can intercept or block a tool call.
// It returns true if execution should proceed, or false to block it.
// If blocked, it should return a ToolResult describing the denial.
type ToolInterceptor func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error)

// MultiInterceptor chains multiple interceptors. The first denial wins.
func MultiInterceptor(interceptors ...ToolInterceptor) ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		for _, interceptor := range interceptors {
			allowed, result, err := interceptor(ctx, call)
			if err != nil {
				return false, domain.ToolResult{}, err
			}
			if !allowed {
				return false, result, nil
			}
		}
		return true, domain.ToolResult{}, nil
	}
}

// ConfirmationMiddleware asks the user through handler before every call.
// Only "y" or "yes" allow execution.
func ConfirmationMiddleware(handler IOHandler) ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		if err := handler.SystemOutput(ctx, fmt.Sprintf("Tool Request: '%s' Args: %v. Allow execution? [y/N]", call.Name, call.Args)); err != nil {
			return false, domain.ToolResult{}, err
		}

		input, err := handler.Input(ctx)
		if err != nil {
			return false, domain.ToolResult{}, err
		}

		input = strings.TrimSpace(strings.ToLower(input))
		if input == "y" || input == "yes" {
			return true, domain.ToolResult{}, nil
		}

		return false, domain.ToolResult{
			ID:      call.ID,
			Name:    call.Name,
			IsError: true,
			Error:   "user denied execution",
		}, nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		return true, domain.ToolResult{}, nil
	}
}

// DenyListMiddleware blocks the named tools.
func DenyListMiddleware(names ...string) ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		if slices.Contains(names, call.Name) {
			return false, domain.ToolResult{
				ID:      call.ID,
				Name:    call.Name,
				IsError: true,
				Error:   "tool is disabled",
			}, nil
		}
		return true, domain.ToolResult{}, nil
	}
}

// Guard wraps a tool executor so every call passes through interceptor first.
// A denial surfaces as ErrToolDenied, which the tool node reports back to the model.
func Guard(exec prebuilt.ToolExecutor, interceptor ToolInterceptor) prebuilt.ToolExecutor {
	if interceptor == nil {
		return exec
	}
	return &guarded{exec: exec, interceptor: interceptor}
}

type guarded struct {
	exec        prebuilt.ToolExecutor
	interceptor ToolInterceptor
}

func (g *guarded) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	allowed, result, err := g.interceptor(ctx, domain.ToolCall{Name: name, Args: args})
	if err != nil {
		return nil, fmt.Errorf("tool interceptor: %w", err)
	}
	if !allowed {
		reason := result.Error
		if reason == "" {
			reason = name
		}
		return nil, fmt.Errorf("%w: %s", ErrToolDenied, reason)
	}
	return g.exec.Execute(ctx, name, args)
}

// Tools forwards the declarations of the wrapped executor when it has any,
// so a guarded registry still advertises its tools to the model.
func (g *guarded) Tools() []domain.Tool {
	if lister, ok := g.exec.(prebuilt.ToolLister); ok {
		return lister.Tools()
	}
	return nil
}
