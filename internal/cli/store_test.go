package cli

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/persistence/middleware"
)

func checkpoint(thread string, state domain.State) domain.Checkpoint {
	return domain.Checkpoint{
		ID:        thread + "-1",
		ThreadID:  thread,
		Step:      1,
		Node:      "n",
		State:     state,
		CreatedAt: time.Now().UTC(),
	}
}

func TestOpenStore_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)

	cases := map[string]config.StoreConfig{
		"memory": {Driver: "memory"},
		"file":   {Driver: "file", File: config.FileConfig{Path: t.TempDir()}},
		"redis":  {Driver: "redis", Redis: config.RedisConfig{Addr: mr.Addr(), Prefix: "test:", Lock: true}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := OpenStore(cfg, logging.NewNop())
			require.NoError(t, err)
			defer p.Close()

			ctx := context.Background()
			require.NoError(t, p.Store.Save(ctx, checkpoint("t1", domain.State{"count": 1})))
			cp, err := p.Store.Load(ctx, "t1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, cp.State["count"])

			if name == "redis" {
				assert.NotNil(t, p.Locker)
			} else {
				assert.Nil(t, p.Locker)
			}
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(config.StoreConfig{Driver: "etcd"}, logging.NewNop())
	assert.ErrorContains(t, err, `unknown store driver "etcd"`)
}

func TestOpenStore_EncryptionAndMasking(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	p, err := OpenStore(config.StoreConfig{
		Driver:        "memory",
		EncryptionKey: key,
		MaskFields:    []string{"^password$"},
	}, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Store.Save(ctx, checkpoint("t1", domain.State{"user": "ana", "password": "hunter2"})))

	cp, err := p.Store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "ana", cp.State["user"])
	assert.Equal(t, middleware.Mask, cp.State["password"])
}

func TestOpenStore_InvalidKeys(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too short"))

	_, err := OpenStore(config.StoreConfig{Driver: "memory", EncryptionKey: "%%%"}, logging.NewNop())
	assert.ErrorContains(t, err, "not base64")

	_, err = OpenStore(config.StoreConfig{Driver: "memory", EncryptionKey: short}, logging.NewNop())
	assert.ErrorContains(t, err, "want 32 bytes")

	_, err = OpenStore(config.StoreConfig{Driver: "memory", MaskFields: []string{"("}}, logging.NewNop())
	assert.ErrorContains(t, err, "mask_fields")
}
