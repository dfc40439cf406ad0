package domain

import "slices"

// Graph is the validated, immutable definition produced by the builder.
type Graph struct {
	Name   string
	Schema Schema

	order  []string
	nodes  map[string]Node
	edges  map[string]string
	router map[string]*Router

	// ImplicitEnd lists nodes that declare no outgoing route; they terminate the run.
	ImplicitEnd []string
}

// NewGraph assembles a graph from already-checked parts. It is meant for the builder.
func NewGraph(name string, schema Schema, nodes []Node, edges []Edge, routers []*Router) *Graph {
	g := &Graph{
		Name:   name,
		Schema: schema,
		nodes:  make(map[string]Node, len(nodes)),
		edges:  make(map[string]string, len(edges)),
		router: make(map[string]*Router, len(routers)),
	}
	for _, n := range nodes {
		g.order = append(g.order, n.Name)
		g.nodes[n.Name] = n
	}
	for _, e := range edges {
		g.edges[e.From] = e.To
	}
	for _, r := range routers {
		g.router[r.Source] = r
	}
	for _, name := range g.order {
		if !g.HasRoute(name) {
			g.ImplicitEnd = append(g.ImplicitEnd, name)
		}
	}
	return g
}

// Node returns the registered node with the given name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// HasNode reports whether name is a registered node.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Nodes returns node names in registration order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

// Edge returns the unconditional successor of from, if any.
func (g *Graph) Edge(from string) (string, bool) {
	to, ok := g.edges[from]
	return to, ok
}

// Router returns the conditional edge attached to from, if any.
func (g *Graph) Router(from string) (*Router, bool) {
	r, ok := g.router[from]
	return r, ok
}

// HasRoute reports whether from has an outgoing edge or router.
func (g *Graph) HasRoute(from string) bool {
	_, e := g.edges[from]
	_, r := g.router[from]
	return e || r
}

// Successors lists every destination reachable in one step from name,
// including END when it is a possible outcome.
func (g *Graph) Successors(name string) []string {
	if to, ok := g.edges[name]; ok {
		return []string{to}
	}
	r, ok := g.router[name]
	if !ok {
		if name == START {
			return nil
		}
		return []string{END}
	}
	var out []string
	if len(r.Targets) == 0 {
		out = append(out, g.order...)
	} else {
		out = append(out, r.Targets...)
	}
	if !r.NoEnd {
		out = append(out, END)
	}
	return out
}

// Topology returns a serializable description of the graph.
func (g *Graph) Topology() Topology {
	t := Topology{Name: g.Name, Nodes: g.Nodes(), ImplicitEnd: slices.Clone(g.ImplicitEnd)}
	for _, from := range append([]string{START}, g.order...) {
		if to, ok := g.edges[from]; ok {
			t.Edges = append(t.Edges, Edge{From: from, To: to})
		}
		if _, ok := g.router[from]; ok {
			t.Routes = append(t.Routes, RouteInfo{
				From:    from,
				Targets: g.Successors(from),
			})
		}
	}
	for field := range g.Schema {
		t.Reducers = append(t.Reducers, field)
	}
	slices.Sort(t.Reducers)
	return t
}

// Topology is the introspection view of a compiled graph.
type Topology struct {
	Name        string      `json:"name,omitempty"`
	Nodes       []string    `json:"nodes"`
	Edges       []Edge      `json:"edges,omitempty"`
	Routes      []RouteInfo `json:"routes,omitempty"`
	ImplicitEnd []string    `json:"implicit_end,omitempty"`
	Reducers    []string    `json:"reducers,omitempty"`
}

// RouteInfo describes a conditional edge and its possible outcomes.
type RouteInfo struct {
	From    string   `json:"from"`
	Targets []string `json:"targets"`
}
