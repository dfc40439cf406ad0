package runner

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the messages produced by a turn.
	Output(ctx context.Context, messages []domain.Message) error

	// Input reads the next turn. It returns io.EOF when the source is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. errors, status updates).
	// This is distinct from conversation content.
	SystemOutput(ctx context.Context, msg string) error
}
