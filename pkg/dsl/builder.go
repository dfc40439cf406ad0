package dsl

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/stategraph/internal/validator"
	"github.com/aretw0/stategraph/pkg/domain"
)

// Builder manages the graph construction.
// It is not safe for concurrent use.
type Builder struct {
	name    string
	schema  domain.Schema
	nodes   []domain.Node
	index   map[string]bool
	edges   []domain.Edge
	routers []*domain.Router
	routed  map[string]bool

	fluent  []*NodeBuilder
	pending []error
}

// Option configures a Builder.
type Option func(*Builder)

// WithName labels the graph for logs and introspection.
func WithName(name string) Option {
	return func(b *Builder) { b.name = name }
}

// WithSchema sets the per-field reducers used to merge node updates.
func WithSchema(s domain.Schema) Option {
	return func(b *Builder) {
		for field, r := range s {
			b.schema[field] = r
		}
	}
}

// WithReducer sets the reducer of a single field.
func WithReducer(field string, r domain.Reducer) Option {
	return func(b *Builder) { b.schema[field] = r }
}

// New creates a new graph builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		schema: domain.Schema{},
		index:  make(map[string]bool),
		routed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddNode registers a named step.
func (b *Builder) AddNode(name string, step domain.Step) error {
	switch {
	case name == "":
		return &domain.ConstructionError{Kind: domain.ErrInvalidDefinition, Detail: "node name is empty"}
	case domain.IsReserved(name):
		return &domain.ConstructionError{Kind: domain.ErrInvalidDefinition, Node: name, Detail: "name is reserved"}
	case step == nil:
		return &domain.ConstructionError{Kind: domain.ErrInvalidDefinition, Node: name, Detail: "step is nil"}
	case b.index[name]:
		return &domain.ConstructionError{Kind: domain.ErrDuplicateNode, Node: name}
	}
	b.index[name] = true
	b.nodes = append(b.nodes, domain.Node{Name: name, Step: step})
	return nil
}

// AddEdge adds an unconditional transition. from may be START; to may be END.
func (b *Builder) AddEdge(from, to string) error {
	if err := b.checkSource(from); err != nil {
		return err
	}
	if err := b.checkTarget(to); err != nil {
		return err
	}
	b.routed[from] = true
	b.edges = append(b.edges, domain.Edge{From: from, To: to})
	return nil
}

// AddConditionalEdges attaches a router to from. targets declares every name
// the router may return besides END; with no targets any node is accepted.
func (b *Builder) AddConditionalEdges(from string, fn domain.RouterFunc, targets ...string) error {
	return b.AddConditionalEdgesWith(from, fn, domain.RouteOptions{Targets: targets})
}

// AddConditionalEdgesWith is AddConditionalEdges with extra options.
func (b *Builder) AddConditionalEdgesWith(from string, fn domain.RouterFunc, opts domain.RouteOptions) error {
	if fn == nil {
		return &domain.ConstructionError{Kind: domain.ErrInvalidDefinition, Node: from, Detail: "router is nil"}
	}
	if err := b.checkSource(from); err != nil {
		return err
	}
	for _, t := range opts.Targets {
		if err := b.checkTarget(t); err != nil {
			return err
		}
	}
	b.routed[from] = true
	b.routers = append(b.routers, &domain.Router{
		Source:  from,
		Fn:      fn,
		Targets: slices.Clone(opts.Targets),
		NoEnd:   opts.NoEnd,
	})
	return nil
}

func (b *Builder) checkSource(from string) error {
	if from != domain.START && !b.index[from] {
		return &domain.ConstructionError{Kind: domain.ErrUnknownNode, Node: from, Detail: "edge source"}
	}
	if b.routed[from] {
		return &domain.ConstructionError{Kind: domain.ErrMultipleRouters, Node: from}
	}
	return nil
}

func (b *Builder) checkTarget(to string) error {
	if to != domain.END && !b.index[to] {
		return &domain.ConstructionError{Kind: domain.ErrUnknownNode, Node: to, Detail: "edge target"}
	}
	return nil
}

// Build validates the definition and returns the immutable graph.
// Construction errors collected by the fluent API are reported here, joined.
func (b *Builder) Build() (*domain.Graph, error) {
	errs := slices.Clone(b.pending)
	for _, nb := range b.fluent {
		if err := nb.resolve(); err != nil {
			errs = append(errs, err)
		}
	}
	b.fluent = nil
	b.pending = nil
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g := domain.NewGraph(b.name, b.schema.Clone(), b.nodes, b.edges, b.routers)
	if err := validator.ValidateGraph(g); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}
