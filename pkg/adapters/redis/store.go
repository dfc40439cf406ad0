package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/stategraph/pkg/domain"
)

// DefaultPrefix namespaces every key written by the store and the locker.
const DefaultPrefix = "stategraph:"

// noExpiry scores index entries of threads without TTL (2100-01-01).
const noExpiry = 4102444800

const maxSaveAttempts = 16

// Store implements ports.CheckpointStore using Redis.
// The history of a thread is a list at <prefix>thread:<id>; <prefix>index is a
// sorted set of thread ids scored by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	codec  *domain.Codec
}

type Option func(*Store)

// WithTTL expires a thread after ttl without writes.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithCodec sets the codec used for state values.
func WithCodec(c *domain.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		codec:  domain.NewCodec(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(threadID string) string {
	return s.prefix + "thread:" + threadID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save appends the checkpoint to the thread's history.
// The step check and the append run in one WATCH/MULTI transaction; a
// concurrent writer makes the transaction retry against the new latest step.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	if cp.ThreadID == "" {
		return domain.ErrThreadIDRequired
	}
	data, err := s.codec.MarshalCheckpoint(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	key := s.key(cp.ThreadID)

	txf := func(tx *backend.Tx) error {
		last, err := tx.LIndex(ctx, key, -1).Bytes()
		switch {
		case errors.Is(err, backend.Nil):
		case err != nil:
			return err
		default:
			step, err := latestStep(last)
			if err != nil {
				return err
			}
			if cp.Step <= step {
				return domain.ErrCheckpointConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.RPush(ctx, key, data)
			score := float64(noExpiry)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
				score = float64(time.Now().Add(s.ttl).Unix())
			}
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: cp.ThreadID})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrCheckpointConflict) {
			return fmt.Errorf("failed to save to redis: %w", err)
		}
		return err
	}
	return fmt.Errorf("%w: thread %s is under contention", domain.ErrCheckpointConflict, cp.ThreadID)
}

func latestStep(data []byte) (int, error) {
	var head struct {
		Step int `json:"step"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("failed to read latest checkpoint: %w", err)
	}
	return head.Step, nil
}

// Load returns the latest checkpoint of a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	val, err := s.client.LIndex(ctx, s.key(threadID), -1).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	cp, err := s.codec.UnmarshalCheckpoint(val)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// History returns every checkpoint of a thread, oldest first.
func (s *Store) History(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	vals, err := s.client.LRange(ctx, s.key(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrThreadNotFound
	}
	out := make([]domain.Checkpoint, 0, len(vals))
	for _, v := range vals {
		cp, err := s.codec.UnmarshalCheckpoint([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Delete removes the thread.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(threadID))
	pipe.ZRem(ctx, s.indexKey(), threadID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the live threads, sorted.
// Expired entries are pruned from the index lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired threads: %w", err)
	}

	threads, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	sort.Strings(threads)
	return threads, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
