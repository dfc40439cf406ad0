package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithThreadID sets the conversation thread. Without it turns share no memory.
func WithThreadID(id string) Option {
	return func(r *Runner) {
		r.ThreadID = id
	}
}

// WithTurnTimeout bounds every invocation.
func WithTurnTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.TurnTimeout = d
	}
}

// WithMessagesField sets the state field holding the conversation.
func WithMessagesField(field string) Option {
	return func(r *Runner) {
		r.Field = field
	}
}

// WithSignals makes Ctrl+C abort the running turn instead of the process.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.HandleSignals = enabled
	}
}

// WithHistory prints the thread's existing messages before the first prompt.
func WithHistory(enabled bool) Option {
	return func(r *Runner) {
		r.ReplayHistory = enabled
	}
}

// defaults applied by New.
func (r *Runner) applyDefaults() {
	if r.Field == "" {
		r.Field = domain.MessagesKey
	}
}
