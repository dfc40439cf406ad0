package runtime

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/middleware"
	"github.com/aretw0/stategraph/pkg/ports"
)

// Engine is the graph executor. It is immutable after construction and safe
// for concurrent Invoke calls; each invocation owns its working state.
type Engine struct {
	graph        *domain.Graph
	checkpointer ports.Checkpointer
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	middleware   middleware.Middleware
	maxSteps     int
	newID        func() string
}

// EngineOption configures the executor.
type EngineOption func(*Engine)

// WithCheckpointer enables thread persistence.
func WithCheckpointer(c ports.Checkpointer) EngineOption {
	return func(e *Engine) {
		e.checkpointer = c
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMiddleware wraps every node execution, outermost first.
func WithMiddleware(mws ...middleware.Middleware) EngineOption {
	return func(e *Engine) {
		if len(mws) > 0 {
			e.middleware = middleware.Chain(mws...)
		}
	}
}

// WithMaxSteps sets the default per-invocation step limit. Zero means unbounded.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithIDGenerator overrides how checkpoint ids are produced.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an executor for a validated graph.
func NewEngine(g *domain.Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:    g,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:    newCheckpointID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the executed graph.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Checkpointer returns the attached checkpointer, or nil.
func (e *Engine) Checkpointer() ports.Checkpointer {
	return e.checkpointer
}

// GetState returns the latest checkpoint of a thread.
func (e *Engine) GetState(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	if e.checkpointer == nil {
		return nil, domain.ErrThreadNotFound
	}
	return e.checkpointer.Load(ctx, threadID)
}

func newCheckpointID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
