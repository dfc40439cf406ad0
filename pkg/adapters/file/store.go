package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/stategraph/pkg/domain"
)

// DefaultBasePath is used when New is given an empty path.
var DefaultBasePath = filepath.Join(".stategraph", "threads")

var threadIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Store implements ports.CheckpointStore on the local filesystem.
// Each checkpoint is a JSON file at <base>/<thread>/<step>.json, so the
// directory of a thread is its full history.
type Store struct {
	BasePath string

	codec *domain.Codec
	mu    sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the codec used for state values. Register application types on it.
func WithCodec(c *domain.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// New creates a new Store rooted at basePath.
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	s := &Store{BasePath: basePath, codec: domain.NewCodec()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the checkpoint atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	dir, err := s.threadDir(cp.ThreadID)
	if err != nil {
		return err
	}
	data, err := s.codec.MarshalCheckpoint(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, err := listSteps(dir)
	if err != nil {
		return err
	}
	if n := len(steps); n > 0 && cp.Step <= steps[n-1] {
		return domain.ErrCheckpointConflict
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure thread directory: %w", err)
	}
	return writeAtomic(dir, stepFile(cp.Step), data)
}

func writeAtomic(dir, name string, data []byte) error {
	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load returns the latest checkpoint of a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	dir, err := s.threadDir(threadID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, err := listSteps(dir)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, domain.ErrThreadNotFound
	}
	cp, err := s.read(dir, steps[len(steps)-1])
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// History returns every checkpoint of a thread, oldest first.
func (s *Store) History(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	dir, err := s.threadDir(threadID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, err := listSteps(dir)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, domain.ErrThreadNotFound
	}
	out := make([]domain.Checkpoint, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cp, err := s.read(dir, step)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Delete removes the thread directory.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	dir, err := s.threadDir(threadID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}
	return nil
}

// List returns the ids of threads holding at least one checkpoint, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := []string{}
	for _, entry := range entries {
		if !entry.IsDir() || !threadIDPattern.MatchString(entry.Name()) {
			continue
		}
		steps, err := listSteps(filepath.Join(s.BasePath, entry.Name()))
		if err != nil {
			return nil, err
		}
		if len(steps) > 0 {
			threads = append(threads, entry.Name())
		}
	}
	sort.Strings(threads)
	return threads, nil
}

func (s *Store) threadDir(threadID string) (string, error) {
	if threadID == "" {
		return "", domain.ErrThreadIDRequired
	}
	if !threadIDPattern.MatchString(threadID) {
		return "", fmt.Errorf("invalid thread id %q: only letters, digits, '.', '_' and '-' are allowed", threadID)
	}
	return filepath.Join(s.BasePath, threadID), nil
}

func (s *Store) read(dir string, step int) (domain.Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(dir, stepFile(step)))
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	cp, err := s.codec.UnmarshalCheckpoint(data)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("checkpoint %s: %w", filepath.Join(dir, stepFile(step)), err)
	}
	return cp, nil
}

func stepFile(step int) string {
	return strconv.Itoa(step) + ".json"
}

// listSteps returns the checkpoint steps stored in dir, ascending.
func listSteps(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read thread directory: %w", err)
	}
	steps := make([]int, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		step, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	sort.Ints(steps)
	return steps, nil
}
