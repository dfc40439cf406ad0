package definition

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/schema"
)

// Definition is a graph described in YAML.
type Definition struct {
	Name string `yaml:"name"`
	// Entry is the first node. START is wired to it.
	Entry string `yaml:"entry"`
	// Reducers names the merge policy per field: overwrite, append or messages.
	Reducers map[string]string `yaml:"reducers"`
	// Input optionally validates the state passed to an invocation.
	Input schema.Schema `yaml:"input"`
	Nodes []NodeSpec    `yaml:"nodes"`
}

// NodeSpec declares one node and its outgoing edge.
// A node has either Next or Route; a node with neither ends the graph.
type NodeSpec struct {
	Name string         `yaml:"name"`
	Step string         `yaml:"step"`
	With map[string]any `yaml:"with"`
	Next string         `yaml:"next"`
	// Route attaches a conditional edge.
	Route *RouteSpec `yaml:"route"`
}

// RouteSpec declares a conditional edge.
type RouteSpec struct {
	Router  string         `yaml:"router"`
	With    map[string]any `yaml:"with"`
	Targets []string       `yaml:"targets"`
	NoEnd   bool           `yaml:"no_end"`
}

// Load decodes a definition. Unknown keys are rejected.
func Load(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDefinition, err)
	}
	return &def, nil
}

// LoadFile reads a definition from path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Builder resolves every step and router against catalog and returns a builder
// ready to compile. Construction errors (duplicate nodes, unknown targets,
// unreachable END) surface from Build, as for graphs written in Go.
func (d *Definition) Builder(catalog *Catalog) (*dsl.Builder, error) {
	if d.Entry == "" {
		return nil, fmt.Errorf("%w: graph %q has no entry node", domain.ErrInvalidDefinition, d.Name)
	}

	if !slices.ContainsFunc(d.Nodes, func(n NodeSpec) bool { return n.Name == d.Entry }) {
		return nil, fmt.Errorf("%w: entry %q is not a declared node", domain.ErrUnknownNode, d.Entry)
	}

	reducers, err := d.schema()
	if err != nil {
		return nil, err
	}
	b := dsl.New(dsl.WithName(d.Name), dsl.WithSchema(reducers))

	for _, spec := range d.Nodes {
		if spec.Next != "" && spec.Route != nil {
			return nil, fmt.Errorf("%w: node %q declares both next and route", domain.ErrInvalidDefinition, spec.Name)
		}

		step, err := catalog.step(spec.Step, spec.With)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.Name, err)
		}

		n := b.Node(spec.Name, step)
		if spec.Name == d.Entry {
			n.Entry()
		}

		switch {
		case spec.Route != nil:
			router, defaults, err := catalog.router(spec.Route.Router, spec.Route.With)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", spec.Name, err)
			}
			targets := defaults
			if len(spec.Route.Targets) > 0 {
				targets = spec.Route.Targets
			}
			n.RouteWith(router, domain.RouteOptions{Targets: resolveAll(targets), NoEnd: spec.Route.NoEnd})
		case spec.Next != "":
			n.To(resolve(spec.Next))
		default:
			n.Terminal()
		}
	}
	return b, nil
}

// ValidateInput checks an invocation input against the declared input schema.
func (d *Definition) ValidateInput(input domain.State) error {
	if len(d.Input) == 0 {
		return nil
	}
	if err := schema.Validate(d.Input, input); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidUpdate, err)
	}
	return nil
}

func (d *Definition) schema() (domain.Schema, error) {
	out := domain.Schema{}
	for field, name := range d.Reducers {
		switch name {
		case "", "overwrite":
			out[field] = domain.Overwrite
		case "append":
			out[field] = domain.Append
		case "messages":
			out[field] = domain.AddMessages
		default:
			return nil, fmt.Errorf("%w: field %q: unknown reducer %q", domain.ErrInvalidDefinition, field, name)
		}
	}
	return out, nil
}

// resolve maps the YAML spellings of the reserved markers.
func resolve(name string) string {
	switch name {
	case "END", "end", domain.END:
		return domain.END
	}
	return name
}

func resolveAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = resolve(n)
	}
	return out
}
