package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Invoke runs the graph from START until END is reached and returns the final state.
//
// With a checkpointer attached the run resumes the thread's latest state: the
// input is merged into it through the graph schema and a checkpoint is saved
// after every node. Without one, every call starts from the input alone.
func (e *Engine) Invoke(ctx context.Context, input domain.State, cfg domain.RunConfig) (domain.State, error) {
	maxSteps := e.maxSteps
	if cfg.MaxSteps > 0 {
		maxSteps = cfg.MaxSteps
	}
	logger := e.logger.With("thread_id", cfg.ThreadID)

	working, step, err := e.prepare(ctx, input, cfg.ThreadID)
	if err != nil {
		return nil, err
	}

	current := domain.START
	executed := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, &domain.StepError{Node: current, Step: step, Kind: domain.ErrCancelled, Err: err}
		}

		next, err := e.resolveNext(ctx, current, working)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &domain.StepError{Node: current, Step: step, Kind: domain.ErrCancelled, Err: err}
			}
			return nil, &domain.StepError{Node: current, Step: step, Kind: domain.ErrRouting, Err: err}
		}
		if next == domain.END {
			logger.Debug("run finished", "node", current, "step", step, "executed", executed)
			return working, nil
		}

		if maxSteps > 0 && executed >= maxSteps {
			return nil, &domain.StepError{
				Node: next,
				Step: step,
				Kind: domain.ErrStepLimitExceeded,
				Err:  fmt.Errorf("limit of %d steps reached", maxSteps),
			}
		}

		node, _ := e.graph.Node(next)
		info := domain.StepInfo{Graph: e.graph.Name, ThreadID: cfg.ThreadID, Node: next, Step: step + 1}
		update, err := e.execute(ctx, node, working, info)
		if err != nil {
			kind := domain.ErrNodeExecution
			if ctx.Err() != nil {
				kind = domain.ErrCancelled
			}
			return nil, &domain.StepError{Node: next, Step: info.Step, Kind: kind, Err: err}
		}

		merged := working.Clone()
		if err := e.graph.Schema.Apply(merged, update); err != nil {
			return nil, &domain.StepError{Node: next, Step: info.Step, Kind: domain.ErrNodeExecution, Err: err}
		}
		writes := domain.Diff(working, merged).Fields()
		working = merged
		step = info.Step
		executed++

		if err := e.save(ctx, info, working, writes); err != nil {
			return nil, err
		}
		current = next
	}
}

// prepare builds the working state and the starting step counter.
func (e *Engine) prepare(ctx context.Context, input domain.State, threadID string) (domain.State, int, error) {
	base := domain.State{}
	step := 0

	if e.checkpointer != nil {
		if threadID == "" {
			return nil, 0, domain.ErrThreadIDRequired
		}
		cp, err := e.checkpointer.Load(ctx, threadID)
		switch {
		case errors.Is(err, domain.ErrThreadNotFound):
		case err != nil:
			return nil, 0, fmt.Errorf("load checkpoint for thread %s: %w", threadID, err)
		default:
			base = cp.State.Clone()
			step = cp.Step
		}
	}

	if err := e.graph.Schema.Apply(base, input.Clone()); err != nil {
		return nil, 0, fmt.Errorf("merge input: %w", err)
	}
	return base, step, nil
}

// execute runs a node's step through the middleware chain on a copy of the state.
func (e *Engine) execute(ctx context.Context, node domain.Node, working domain.State, info domain.StepInfo) (domain.State, error) {
	ctx = domain.WithStepInfo(ctx, info)
	view := working.Clone()

	e.emitNodeEnter(ctx, info)
	start := time.Now()

	handler := func(ctx context.Context) (domain.State, error) {
		return node.Step.Run(ctx, view)
	}
	var (
		update domain.State
		err    error
	)
	if e.middleware != nil {
		update, err = e.middleware(ctx, info, handler)
	} else {
		update, err = handler(ctx)
	}

	e.emitNodeLeave(ctx, info, time.Since(start), err)
	return update, err
}

// save persists the post-step state when a checkpointer is attached.
func (e *Engine) save(ctx context.Context, info domain.StepInfo, working domain.State, writes []string) error {
	if e.checkpointer == nil {
		return nil
	}
	cp := domain.Checkpoint{
		ID:        e.newID(),
		ThreadID:  info.ThreadID,
		Step:      info.Step,
		Node:      info.Node,
		State:     working.Clone(),
		Writes:    writes,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.checkpointer.Save(ctx, cp); err != nil {
		return fmt.Errorf("node %q step %d: save checkpoint: %w", info.Node, info.Step, err)
	}
	e.emitCheckpoint(ctx, info, writes)
	return nil
}
