package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/pkg/adapters/file"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/adapters/redis"
	"github.com/aretw0/stategraph/pkg/persistence/middleware"
	"github.com/aretw0/stategraph/pkg/ports"
)

// Persistence bundles the configured checkpoint store and, for redis, the
// distributed locker sharing its client.
type Persistence struct {
	Store   ports.CheckpointStore
	Locker  ports.DistributedLocker
	closers []io.Closer
}

// Close releases connections held by the store.
func (p *Persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenStore builds the checkpointer selected by cfg.Driver, wrapped in the
// PII masking and encryption middleware when configured.
func OpenStore(cfg config.StoreConfig, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}

	switch cfg.Driver {
	case "", "memory":
		p.Store = memory.NewStore()
	case "file":
		p.Store = file.New(cfg.File.Path)
	case "redis":
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		p.Store = store
		p.closers = append(p.closers, store)
		if cfg.Redis.Lock {
			p.Locker = redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if err := p.wrap(cfg); err != nil {
		_ = p.Close()
		return nil, err
	}

	logger.Debug("checkpoint store ready", "driver", cfg.Driver, "encrypted", cfg.EncryptionKey != "", "masked_fields", len(cfg.MaskFields))
	return p, nil
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := decodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key: %w", err)
	}
	conf := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		conf.FallbackKeys = append(conf.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(conf), nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// wrap layers the masking and encryption middleware over the store.
func (p *Persistence) wrap(cfg config.StoreConfig) error {
	// Masking runs before encryption so sealed checkpoints never hold the raw values.
	var mws []middleware.Middleware
	if len(cfg.MaskFields) > 0 {
		for _, pattern := range cfg.MaskFields {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("mask_fields: %w", err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(cfg.MaskFields))
	}
	if cfg.EncryptionKey != "" {
		enc, err := encryption(cfg)
		if err != nil {
			return err
		}
		mws = append(mws, enc)
	}
	if len(mws) > 0 {
		p.Store = middleware.Chain(p.Store, mws...)
	}

	return nil
}
