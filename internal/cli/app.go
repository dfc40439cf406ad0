package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/definition"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/middleware"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/prebuilt"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/runner"
	"github.com/aretw0/stategraph/pkg/session"
)

// DefaultGraphName names the built-in agent graph.
const DefaultGraphName = "agent"

// Options selects what the commands load on top of the config file.
type Options struct {
	ConfigPath string
	// GraphPath is a graph definition file. Empty uses the built-in agent.
	GraphPath string
	Debug     bool
	// Ephemeral runs without a checkpointer, so every invocation is independent.
	Ephemeral bool
	// Interceptor guards tool calls, for example with a confirmation prompt.
	Interceptor runner.ToolInterceptor
}

// App is the fully wired engine shared by every command.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Engine     *stategraph.Engine
	Sessions   *session.Manager
	Tools      *registry.Registry
	Metrics    *prometheus.Registry
	Definition *definition.Definition

	persistence *Persistence
}

// NewApp loads the configuration and builds the engine it describes.
func NewApp(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, opts.Debug)
	if err != nil {
		return nil, err
	}
	return Build(cfg, logger, opts)
}

// Build wires an App from an already loaded configuration.
func Build(cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: prometheus.NewRegistry(),
	}
	app.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := observability.NewMetrics(app.Metrics)

	tools, err := NewTools(cfg.Tools, logger)
	if err != nil {
		return nil, fmt.Errorf("tools: %w", err)
	}
	app.Tools = tools

	var interceptors []runner.ToolInterceptor
	if len(cfg.Tools.Deny) > 0 {
		interceptors = append(interceptors, runner.DenyListMiddleware(cfg.Tools.Deny...))
	}
	if opts.Interceptor != nil {
		interceptors = append(interceptors, opts.Interceptor)
	}
	var executor prebuilt.ToolExecutor = tools
	if len(interceptors) > 0 {
		executor = runner.Guard(tools, runner.MultiInterceptor(interceptors...))
	}

	model, err := NewModel(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	var builder *dsl.Builder
	if opts.GraphPath != "" {
		def, err := definition.LoadFile(opts.GraphPath)
		if err != nil {
			return nil, err
		}
		builder, err = def.Builder(definition.NewCatalog(
			definition.WithModel(model),
			definition.WithToolExecutor(executor),
		))
		if err != nil {
			return nil, err
		}
		app.Definition = def
	} else {
		builder = agentGraph(model, tools, executor, cfg.Model.System, metrics.Hooks())
	}

	engineOpts := []stategraph.Option{
		stategraph.WithLogger(logger),
		stategraph.WithMaxSteps(cfg.Engine.MaxSteps),
		stategraph.WithLifecycleHooks(metrics.Hooks()),
		stategraph.WithMiddleware(middleware.Logging(logger)),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, stategraph.WithLifecycleHooks(debugHooks(logger)))
	}
	if cfg.Engine.Tracing {
		engineOpts = append(engineOpts, stategraph.WithMiddleware(middleware.Tracing(), middleware.Metrics()))
	}
	if cfg.Engine.NodeTimeout > 0 {
		engineOpts = append(engineOpts, stategraph.WithMiddleware(middleware.Timeout(cfg.Engine.NodeTimeout)))
	}

	var sessionOpts []session.Option
	sessionOpts = append(sessionOpts, session.WithLogger(logger))
	if !opts.Ephemeral {
		p, err := OpenStore(cfg.Store, logger)
		if err != nil {
			return nil, err
		}
		app.persistence = p
		engineOpts = append(engineOpts, stategraph.WithCheckpointer(p.Store))
		if p.Locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(p.Locker))
		}
		if cfg.Session.LockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithLockTTL(cfg.Session.LockTTL))
		}
	}

	engine, err := stategraph.Compile(builder, engineOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Engine = engine

	app.Sessions = session.NewManager(engine, app.store(), sessionOpts...)
	return app, nil
}

// Invoke runs one invocation of the graph on a thread, validating input
// against the definition's input schema when there is one.
func (a *App) Invoke(ctx context.Context, threadID string, input domain.State) (domain.State, error) {
	if a.Definition != nil {
		if err := a.Definition.ValidateInput(input); err != nil {
			return nil, err
		}
	}
	return a.Sessions.Invoke(ctx, threadID, input)
}

// Close releases the store connections.
func (a *App) Close() error {
	if a.persistence == nil {
		return nil
	}
	return a.persistence.Close()
}

func (a *App) store() ports.CheckpointStore {
	if a.persistence == nil {
		return nil
	}
	return a.persistence.Store
}

// agentGraph is prebuilt.Agent with the tool node reporting calls to the metrics hooks.
func agentGraph(model ports.ChatModel, tools prebuilt.ToolLister, executor prebuilt.ToolExecutor, system string, hooks domain.LifecycleHooks) *dsl.Builder {
	b := dsl.New(dsl.WithName(DefaultGraphName), dsl.WithSchema(domain.MessagesSchema()))
	b.Node(prebuilt.AssistantNodeName, prebuilt.NewModelNode(model, prebuilt.WithTools(tools), prebuilt.WithSystemPrompt(system))).
		Entry().
		Route(prebuilt.ToolsCondition, prebuilt.ToolsTargets()...)
	b.Node(prebuilt.ToolsNodeName, prebuilt.NewToolNode(executor, prebuilt.WithToolHooks(hooks))).
		To(prebuilt.AssistantNodeName)
	return b
}

func newLogger(cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, format), nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "enter", "node", e.Node, "step", e.Step, "thread_id", e.ThreadID)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			attrs := []any{"node", e.Node, "step", e.Step, "duration", e.Duration}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.DebugContext(ctx, "leave", attrs...)
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			logger.DebugContext(ctx, "checkpoint", "node", e.Node, "step", e.Step, "writes", e.Writes)
		},
	}
}

// IsNotFound reports whether err means the thread has no checkpoint.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrThreadNotFound)
}
