package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Store implements ports.CheckpointStore in memory, keeping the full history
// of every thread. Safe for concurrent use.
type Store struct {
	data map[string][]domain.Checkpoint
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.Checkpoint),
	}
}

// Save appends a checkpoint to the thread's history.
// The step must be greater than the latest stored step.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := cp.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.data[cp.ThreadID]
	if n := len(history); n > 0 && cp.Step <= history[n-1].Step {
		return domain.ErrCheckpointConflict
	}
	s.data[cp.ThreadID] = append(history, copied)
	return nil
}

// Load retrieves the latest checkpoint of a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[threadID]
	if !ok || len(history) == 0 {
		return nil, domain.ErrThreadNotFound
	}

	// Create a copy on read so caller can't mutate store state
	ret := history[len(history)-1].Clone()
	return &ret, nil
}

// History returns all checkpoints of a thread, oldest first.
func (s *Store) History(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[threadID]
	if !ok || len(history) == 0 {
		return nil, domain.ErrThreadNotFound
	}
	out := make([]domain.Checkpoint, len(history))
	for i, cp := range history {
		out[i] = cp.Clone()
	}
	return out, nil
}

// Delete removes every checkpoint of a thread.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

// List returns all thread IDs currently stored.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
