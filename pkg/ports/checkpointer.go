package ports

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Checkpointer defines the interface for persisting execution state.
// This allows for durable execution: a thread can be resumed across invocations.
// Implementations must be safe for concurrent use.
type Checkpointer interface {
	// Load retrieves the latest checkpoint for a thread.
	// Returns domain.ErrThreadNotFound if the thread has no checkpoint.
	Load(ctx context.Context, threadID string) (*domain.Checkpoint, error)

	// Save persists a checkpoint. It returns domain.ErrCheckpointConflict when
	// cp.Step does not advance the latest stored step of the thread.
	Save(ctx context.Context, cp domain.Checkpoint) error
}

// CheckpointStore is a Checkpointer that can also enumerate and delete threads.
type CheckpointStore interface {
	Checkpointer

	// History returns every checkpoint of a thread, oldest first.
	// Returns domain.ErrThreadNotFound if the thread has no checkpoint.
	History(ctx context.Context, threadID string) ([]domain.Checkpoint, error)

	// List returns the ids of all stored threads.
	List(ctx context.Context) ([]string, error)

	// Delete removes all checkpoints of a thread. Deleting an unknown thread is not an error.
	Delete(ctx context.Context, threadID string) error
}
