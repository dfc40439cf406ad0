package definition

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/prebuilt"
)

// StepFactory builds a node step from its `with:` block.
type StepFactory func(with map[string]any) (domain.Step, error)

// RouterFactory builds a router from its `with:` block. It may return the
// targets the router can produce, used when the definition lists none.
type RouterFactory func(with map[string]any) (domain.RouterFunc, []string, error)

// Catalog maps the step and router names used in definitions to Go code.
type Catalog struct {
	mu      sync.RWMutex
	steps   map[string]StepFactory
	routers map[string]RouterFactory

	model ports.ChatModel
	tools prebuilt.ToolExecutor
	rng   *lockedRand
}

// CatalogOption configures the built-in entries.
type CatalogOption func(*Catalog)

// WithModel enables the "model" step.
func WithModel(model ports.ChatModel) CatalogOption {
	return func(c *Catalog) { c.model = model }
}

// WithToolExecutor enables the "tools" step and binds tool declarations to "model".
func WithToolExecutor(tools prebuilt.ToolExecutor) CatalogOption {
	return func(c *Catalog) { c.tools = tools }
}

// WithSeed makes the "random" router deterministic.
func WithSeed(seed uint64) CatalogOption {
	return func(c *Catalog) { c.rng = newLockedRand(seed) }
}

// NewCatalog returns a catalog holding the built-in steps and routers:
//
//	steps:   append_text, set, model, tools
//	routers: random, field_equals, tools_condition
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		steps:   map[string]StepFactory{},
		routers: map[string]RouterFactory{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = newLockedRand(rand.Uint64())
	}

	c.steps["append_text"] = appendText
	c.steps["set"] = set
	c.steps["model"] = c.modelStep
	c.steps["tools"] = c.toolsStep
	c.routers["random"] = c.random
	c.routers["field_equals"] = fieldEquals
	c.routers["tools_condition"] = toolsCondition
	return c
}

// RegisterStep adds or replaces a step factory.
func (c *Catalog) RegisterStep(name string, f StepFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps[name] = f
}

// RegisterRouter adds or replaces a router factory.
func (c *Catalog) RegisterRouter(name string, f RouterFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routers[name] = f
}

// Steps lists the registered step names.
func (c *Catalog) Steps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.steps)
}

// Routers lists the registered router names.
func (c *Catalog) Routers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.routers)
}

func (c *Catalog) step(name string, with map[string]any) (domain.Step, error) {
	c.mu.RLock()
	f, ok := c.steps[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown step %q", domain.ErrInvalidDefinition, name)
	}
	step, err := f(with)
	if err != nil {
		return nil, fmt.Errorf("%w: step %q: %w", domain.ErrInvalidDefinition, name, err)
	}
	return step, nil
}

func (c *Catalog) router(name string, with map[string]any) (domain.RouterFunc, []string, error) {
	c.mu.RLock()
	f, ok := c.routers[name]
	c.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown router %q", domain.ErrInvalidDefinition, name)
	}
	fn, targets, err := f(with)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: router %q: %w", domain.ErrInvalidDefinition, name, err)
	}
	return fn, targets, nil
}

// decode fills out from a `with:` block, rejecting unknown keys.
func decode(with map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(with)
}

type appendTextArgs struct {
	Field string `mapstructure:"field"`
	Text  string `mapstructure:"text"`
}

// appendText concatenates text onto a string field.
func appendText(with map[string]any) (domain.Step, error) {
	var args appendTextArgs
	if err := decode(with, &args); err != nil {
		return nil, err
	}
	if args.Field == "" {
		return nil, fmt.Errorf("field is required")
	}
	return domain.StepFunc(func(_ context.Context, s domain.State) (domain.State, error) {
		return domain.State{args.Field: s.String(args.Field) + args.Text}, nil
	}), nil
}

type setArgs struct {
	Values map[string]any `mapstructure:"values"`
}

// set writes fixed values.
func set(with map[string]any) (domain.Step, error) {
	var args setArgs
	if err := decode(with, &args); err != nil {
		return nil, err
	}
	values := domain.State(args.Values)
	return domain.StepFunc(func(context.Context, domain.State) (domain.State, error) {
		return values.Clone(), nil
	}), nil
}

type modelArgs struct {
	System string `mapstructure:"system"`
	Field  string `mapstructure:"field"`
}

func (c *Catalog) modelStep(with map[string]any) (domain.Step, error) {
	if c.model == nil {
		return nil, fmt.Errorf("no chat model configured")
	}
	var args modelArgs
	if err := decode(with, &args); err != nil {
		return nil, err
	}
	var opts []prebuilt.ModelNodeOption
	if args.System != "" {
		opts = append(opts, prebuilt.WithSystemPrompt(args.System))
	}
	if args.Field != "" {
		opts = append(opts, prebuilt.WithModelMessagesField(args.Field))
	}
	if lister, ok := c.tools.(prebuilt.ToolLister); ok {
		opts = append(opts, prebuilt.WithTools(lister))
	}
	return prebuilt.NewModelNode(c.model, opts...), nil
}

type toolsArgs struct {
	Field string `mapstructure:"field"`
}

func (c *Catalog) toolsStep(with map[string]any) (domain.Step, error) {
	if c.tools == nil {
		return nil, fmt.Errorf("no tools configured")
	}
	var args toolsArgs
	if err := decode(with, &args); err != nil {
		return nil, err
	}
	var opts []prebuilt.ToolNodeOption
	if args.Field != "" {
		opts = append(opts, prebuilt.WithMessagesField(args.Field))
	}
	return prebuilt.NewToolNode(c.tools, opts...), nil
}

type randomArgs struct {
	Choices []string `mapstructure:"choices"`
}

// random picks one of the choices uniformly.
func (c *Catalog) random(with map[string]any) (domain.RouterFunc, []string, error) {
	var args randomArgs
	if err := decode(with, &args); err != nil {
		return nil, nil, err
	}
	if len(args.Choices) == 0 {
		return nil, nil, fmt.Errorf("choices are required")
	}
	choices := resolveAll(args.Choices)
	return func(context.Context, domain.State) (string, error) {
		return choices[c.rng.IntN(len(choices))], nil
	}, choices, nil
}

type fieldEqualsArgs struct {
	Field   string            `mapstructure:"field"`
	Cases   map[string]string `mapstructure:"cases"`
	Default string            `mapstructure:"default"`
}

// fieldEquals routes on the string form of a field.
func fieldEquals(with map[string]any) (domain.RouterFunc, []string, error) {
	var args fieldEqualsArgs
	if err := decode(with, &args); err != nil {
		return nil, nil, err
	}
	if args.Field == "" {
		return nil, nil, fmt.Errorf("field is required")
	}
	cases := make(map[string]string, len(args.Cases))
	targets := make([]string, 0, len(args.Cases)+1)
	for value, node := range args.Cases {
		cases[value] = resolve(node)
		targets = append(targets, resolve(node))
	}
	fallback := domain.END
	if args.Default != "" {
		fallback = resolve(args.Default)
	}
	targets = append(targets, fallback)
	sort.Strings(targets)

	return func(_ context.Context, s domain.State) (string, error) {
		v, ok := s[args.Field]
		if !ok {
			return fallback, nil
		}
		if node, ok := cases[fmt.Sprint(v)]; ok {
			return node, nil
		}
		return fallback, nil
	}, targets, nil
}

func toolsCondition(with map[string]any) (domain.RouterFunc, []string, error) {
	if len(with) > 0 {
		return nil, nil, fmt.Errorf("tools_condition takes no arguments")
	}
	return prebuilt.ToolsCondition, prebuilt.ToolsTargets(), nil
}

// lockedRand is a seeded source safe for concurrent invocations.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
