package stategraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/stategraph/internal/runtime"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/middleware"
	"github.com/aretw0/stategraph/pkg/ports"
)

// Engine is the high-level entry point of the library: a compiled graph ready
// to be invoked. It wraps the internal runtime and provides a simplified API
// for consumers. Engines are immutable and safe for concurrent use.
type Engine struct {
	runtime      *runtime.Engine
	graph        *domain.Graph
	checkpointer ports.Checkpointer
	hooks        []domain.LifecycleHooks
	middleware   []middleware.Middleware
	noRecover    bool
	maxSteps     int
	logger       *slog.Logger
	name         string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCheckpointer enables thread persistence. Invocations must then carry a thread id.
func WithCheckpointer(c ports.Checkpointer) Option {
	return func(e *Engine) {
		e.checkpointer = c
	}
}

// WithLifecycleHooks registers observability hooks. It may be given several times.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithMiddleware wraps every node execution. Middleware run in the given order,
// inside the panic recovery installed by default.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Engine) {
		e.middleware = append(e.middleware, mws...)
	}
}

// WithoutRecover disables the default conversion of node panics into errors.
func WithoutRecover() Option {
	return func(e *Engine) {
		e.noRecover = true
	}
}

// WithMaxSteps sets the default bound on node executions per invocation.
// Without it an invocation runs until it reaches END or is cancelled.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithName overrides the graph name used in logs and traces.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}

// Compile builds and validates the graph described by b and returns an engine for it.
// Construction errors (duplicate or unknown nodes, multiple routers, unreachable
// nodes or END) are returned here, before anything executes.
func Compile(b *dsl.Builder, opts ...Option) (*Engine, error) {
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return New(g, opts...)
}

// New creates an engine for an already built graph.
func New(g *domain.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}
	eng := &Engine{graph: g, name: g.Name}

	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Enrich logger with graph name if available
	if eng.name != "" {
		eng.logger = eng.logger.With("graph", eng.name)
	}

	for _, name := range g.ImplicitEnd {
		eng.logger.Warn("node has no outgoing route and will end the run", "node", name)
	}

	mws := eng.middleware
	if !eng.noRecover {
		mws = append([]middleware.Middleware{middleware.Recover(eng.logger)}, mws...)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithMiddleware(mws...),
		runtime.WithMaxSteps(eng.maxSteps),
	}
	if eng.checkpointer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithCheckpointer(eng.checkpointer))
	}
	if len(eng.hooks) == 1 {
		runtimeOpts = append(runtimeOpts, runtime.WithLifecycleHooks(eng.hooks[0]))
	} else if len(eng.hooks) > 1 {
		runtimeOpts = append(runtimeOpts, runtime.WithLifecycleHooks(domain.MergeHooks(eng.hooks...)))
	}

	if eng.name != g.Name {
		renamed := *g
		renamed.Name = eng.name
		eng.graph = &renamed
	}
	eng.runtime = runtime.NewEngine(eng.graph, runtimeOpts...)
	return eng, nil
}

// Invoke runs the graph from START to END.
//
// Without a checkpointer every call is independent and starts from input.
// With one, cfg.ThreadID is required: the thread's latest state is loaded,
// input is merged into it through the graph's reducers and a checkpoint is
// saved after every node.
func (e *Engine) Invoke(ctx context.Context, input domain.State, cfg domain.RunConfig) (domain.State, error) {
	return e.runtime.Invoke(ctx, input, cfg)
}

// GetState returns the latest checkpoint of a thread.
// It returns domain.ErrThreadNotFound when there is none or no checkpointer is attached.
func (e *Engine) GetState(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	return e.runtime.GetState(ctx, threadID)
}

// History returns every checkpoint of a thread, oldest first.
// It requires a checkpointer that implements ports.CheckpointStore.
func (e *Engine) History(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	store, ok := e.checkpointer.(ports.CheckpointStore)
	if !ok {
		return nil, fmt.Errorf("checkpointer %T does not keep history", e.checkpointer)
	}
	return store.History(ctx, threadID)
}

// Store returns the checkpointer as a CheckpointStore when it is one.
func (e *Engine) Store() (ports.CheckpointStore, bool) {
	store, ok := e.checkpointer.(ports.CheckpointStore)
	return store, ok
}

// Inspect returns the graph structure for visualization or introspection tools.
func (e *Engine) Inspect() domain.Topology {
	return e.graph.Topology()
}

// Name returns the graph name used in logs and traces.
func (e *Engine) Name() string {
	return e.name
}

// Graph returns the compiled graph definition.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}
