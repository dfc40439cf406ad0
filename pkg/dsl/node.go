package dsl

import "github.com/aretw0/stategraph/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
// Outgoing routes declared here are resolved when the graph is built, so
// targets may be registered later.
type NodeBuilder struct {
	name    string
	builder *Builder

	to     string
	router domain.RouterFunc
	opts   domain.RouteOptions
	set    bool
}

// Node registers a node and returns a fluent handle for its outgoing route.
// Registration errors are reported by Build.
func (b *Builder) Node(name string, step domain.Step) *NodeBuilder {
	if err := b.AddNode(name, step); err != nil {
		b.pending = append(b.pending, err)
	}
	nb := &NodeBuilder{name: name, builder: b}
	b.fluent = append(b.fluent, nb)
	return nb
}

// Entry marks the node as the first one to run (an edge from START).
func (n *NodeBuilder) Entry() *NodeBuilder {
	if err := n.builder.AddEdge(domain.START, n.name); err != nil {
		n.builder.pending = append(n.builder.pending, err)
	}
	return n
}

// To sets an unconditional transition.
func (n *NodeBuilder) To(target string) *NodeBuilder {
	n.declare()
	n.to = target
	return n
}

// Terminal routes the node to END.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	return n.To(domain.END)
}

// Route attaches a conditional edge.
func (n *NodeBuilder) Route(fn domain.RouterFunc, targets ...string) *NodeBuilder {
	return n.RouteWith(fn, domain.RouteOptions{Targets: targets})
}

// RouteWith attaches a conditional edge with options.
func (n *NodeBuilder) RouteWith(fn domain.RouterFunc, opts domain.RouteOptions) *NodeBuilder {
	n.declare()
	n.router = fn
	n.opts = opts
	return n
}

func (n *NodeBuilder) declare() {
	if n.set {
		n.builder.pending = append(n.builder.pending,
			&domain.ConstructionError{Kind: domain.ErrMultipleRouters, Node: n.name})
	}
	n.set = true
}

func (n *NodeBuilder) resolve() error {
	switch {
	case !n.set:
		return nil
	case n.router != nil:
		return n.builder.AddConditionalEdgesWith(n.name, n.router, n.opts)
	default:
		return n.builder.AddEdge(n.name, n.to)
	}
}
