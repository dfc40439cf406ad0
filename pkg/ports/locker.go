package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It allows the session manager to serialize invocations of a thread across
// multiple processes sharing one checkpoint store.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key (e.g., thread ID).
	// It blocks until the lock is acquired or the context is canceled.
	// Implementations keep the lock alive while it is held; ttl bounds how long
	// a holder that crashed without releasing it blocks the key.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
