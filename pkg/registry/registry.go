package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/schema"
)

// ToolFunction defines the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

// Definition declares a tool to models and clients.
type Definition struct {
	Name        string
	Description string
	// Args declares the accepted arguments. Calls are validated against it before execution.
	Args schema.Schema
}

type entry struct {
	def Definition
	fn  ToolFunction
}

// Registry manages the available tools. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(def Definition, fn ToolFunction) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if fn == nil {
		return fmt.Errorf("tool %s: function is nil", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = entry{def: def, fn: fn}
	return nil
}

// Execute looks up a tool by name, validates the arguments and executes it.
// Returns domain.ErrToolNotFound if the tool is not registered.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(e.def.Args, args); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
	}

	return e.fn(ctx, args)
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Definition returns the declaration of a registered tool.
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.def, ok
}

// Tools returns the declarations of every registered tool, sorted by name.
func (r *Registry) Tools() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]domain.Tool, 0, len(r.tools))
	for _, e := range r.tools {
		tools = append(tools, domain.Tool{
			Name:        e.def.Name,
			Description: e.def.Description,
			Parameters:  e.def.Args.JSONSchema(),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}
