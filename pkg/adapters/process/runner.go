package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/stategraph/pkg/registry"
)

// EnvPrefix prefixes the environment variables carrying tool arguments.
const EnvPrefix = "STATEGRAPH_ARG_"

// Runner turns declared commands into registry tools.
// Only commands listed in the configuration can run; arguments chosen by the
// model are passed as environment variables, never as command-line flags.
type Runner struct {
	baseDir string
	timeout time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithDefaultTimeout bounds commands that declare no timeout of their own.
func WithDefaultTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds every configured command to reg.
func (r *Runner) Register(reg *registry.Registry, tools []ProcessConfig) error {
	for _, tool := range tools {
		def := registry.Definition{
			Name:        tool.Name,
			Description: tool.Description,
			Args:        tool.Params,
		}
		if err := reg.Register(def, r.Command(tool)); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the tool function running cfg.
// Stdout is the result, decoded as JSON when it looks like an object or array.
// A non-zero exit status is an error carrying stderr.
func (r *Runner) Command(cfg ProcessConfig) registry.ToolFunction {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	return func(ctx context.Context, args map[string]any) (any, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
		cmd.Dir = r.baseDir
		// Children that inherit stdout must not hold Wait past the deadline.
		cmd.WaitDelay = time.Second
		cmd.Env = append(cmd.Environ(), environment(cfg.Environment, args)...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s: %w", cfg.Name, ctx.Err())
			}
			return nil, fmt.Errorf("%s: execution failed: %w: %s", cfg.Name, err, strings.TrimSpace(stderr.String()))
		}
		return decodeOutput(stdout.String()), nil
	}
}

// environment renders fixed variables and call arguments as KEY=value pairs.
// Scalars are formatted with %v, anything else is JSON.
func environment(fixed map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(fixed)+len(args))
	for k, v := range fixed {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		var val string
		switch v.(type) {
		case nil:
		case string, int, int64, float64, bool, json.Number:
			val = fmt.Sprintf("%v", v)
		default:
			if raw, err := json.Marshal(v); err == nil {
				val = string(raw)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+val)
	}
	sort.Strings(env)
	return env
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return trimmed
}
