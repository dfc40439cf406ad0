package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/session"
)

// Runner handles the chat loop over a session manager using the provided IO.
// This allows for easy testing and integration with different frontends (CLI, pipes, etc).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	ThreadID      string
	Field         string
	TurnTimeout   time.Duration
	HandleSignals bool
	ReplayHistory bool

	sessions *session.Manager
}

// New creates a Runner over sessions.
func New(sessions *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		sessions: sessions,
		Logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.applyDefaults()
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run reads turns until the input ends, the user types exit or quit, or ctx is done.
// Errors from a single turn are reported through the handler and do not end the loop.
func (r *Runner) Run(ctx context.Context) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if r.ReplayHistory {
		if err := r.replay(ctx); err != nil {
			return err
		}
	}

	for {
		inputCtx := ctx
		if r.HandleSignals {
			inputCtx = signals.Context()
		}

		text, err := r.Handler.Input(inputCtx)
		if err != nil {
			if r.HandleSignals {
				signals.CheckRace()
			}
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			case inputCtx.Err() != nil:
				r.Logger.Debug("runner: interrupted at prompt")
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if text == "exit" || text == "quit" {
			return nil
		}

		input, err := r.parse(text)
		if err != nil {
			_ = r.Handler.SystemOutput(ctx, err.Error())
			continue
		}

		if err := r.turn(ctx, signals, input); err != nil {
			return err
		}
	}
}

// turn runs one invocation. Only a cancelled parent context is fatal.
func (r *Runner) turn(ctx context.Context, signals *SignalManager, input domain.State) error {
	turnCtx := ctx
	if r.HandleSignals {
		turnCtx = signals.Context()
	}
	cancel := func() {}
	if r.TurnTimeout > 0 {
		turnCtx, cancel = context.WithTimeout(turnCtx, r.TurnTimeout)
	}
	defer cancel()

	start := time.Now()
	res, err := Turn(turnCtx, r.sessions, r.ThreadID, input, r.Field)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.HandleSignals && signals.Interrupted() {
			signals.Reset()
			return r.Handler.SystemOutput(ctx, "interrupted")
		}
		r.Logger.Debug("runner: turn failed", "thread_id", r.ThreadID, "err", err)
		return r.Handler.SystemOutput(ctx, describe(err))
	}

	r.Logger.Debug("runner: turn complete", "thread_id", r.ThreadID, "messages", len(res.Messages), "duration", time.Since(start))
	return r.Handler.Output(ctx, res.Messages)
}

func (r *Runner) replay(ctx context.Context) error {
	if r.ThreadID == "" {
		return nil
	}
	cp, err := r.sessions.GetState(ctx, r.ThreadID)
	if err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) || errors.Is(err, session.ErrNoStore) {
			return nil
		}
		return err
	}
	return r.Handler.Output(ctx, cp.State.Messages(r.Field))
}

// parse turns a line into a state update: JSON objects are merged as-is,
// anything else becomes a human message.
func (r *Runner) parse(text string) (domain.State, error) {
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		return domain.ParseInput([]byte(text))
	}
	return domain.State{r.Field: domain.HumanMessage(text)}, nil
}

// describe renders an execution error for the user.
func describe(err error) string {
	var stepErr *domain.StepError
	if errors.As(err, &stepErr) {
		return fmt.Sprintf("error at node %q (step %d): %v", stepErr.Node, stepErr.Step, stepErr.Err)
	}
	return "error: " + err.Error()
}
