package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can block a thread.
// Live holders renew their lock, so invocations may run longer than this.
const DefaultLockTTL = 30 * time.Second

// ErrNoStore is returned by thread queries when no checkpoint store is attached.
var ErrNoStore = errors.New("no checkpoint store attached")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes invocations of the same thread and exposes thread queries.
// Two invocations of one thread never interleave their steps; distinct threads
// run in parallel. Locks are reference counted and dropped when unused.
type Manager struct {
	engine ports.Invoker
	store  ports.CheckpointStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking, for processes sharing one store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager over a compiled graph. store may be nil when
// the engine runs without a checkpointer.
func NewManager(engine ports.Invoker, store ports.CheckpointStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(threadID) after unlocking.
func (m *Manager) acquire(threadID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		entry = &lockEntry{}
		m.locks[threadID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, threadID)
	}
}

// Invoke runs the graph for a thread while holding the thread's lock.
// An empty threadID runs a stateless invocation without locking.
func (m *Manager) Invoke(ctx context.Context, threadID string, input domain.State) (domain.State, error) {
	cfg := domain.RunConfig{ThreadID: threadID}
	if threadID == "" {
		return m.engine.Invoke(ctx, input, cfg)
	}
	var out domain.State
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		out, err = m.engine.Invoke(ctx, input, cfg)
		return err
	})
	return out, err
}

// GetState returns the latest checkpoint of a thread.
func (m *Manager) GetState(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.Load(ctx, threadID)
}

// History returns every checkpoint of a thread, oldest first.
func (m *Manager) History(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.History(ctx, threadID)
}

// Delete removes a thread. It waits for a running invocation of the thread to finish.
func (m *Manager) Delete(ctx context.Context, threadID string) error {
	if m.store == nil {
		return ErrNoStore
	}
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Delete(ctx, threadID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.List(ctx)
}

// Engine returns the managed graph.
func (m *Manager) Engine() ports.Invoker {
	return m.engine
}

// Store returns the underlying checkpoint store, possibly nil.
func (m *Manager) Store() ports.CheckpointStore {
	return m.store
}

// WithLock executes a function while holding the lock for the thread.
func (m *Manager) WithLock(ctx context.Context, threadID string, fn func(context.Context) error) error {
	entry := m.acquire(threadID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(threadID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, threadID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// ctx may already be cancelled; the release must still go through.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"thread_id", threadID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
