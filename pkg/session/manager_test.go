package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/session"
)

// slowCounter increments "count" with simulated latency, to provoke races if locking is missing.
func slowCounter(t *testing.T, store ports.CheckpointStore, active *int32, overlap *atomic.Bool) *stategraph.Engine {
	t.Helper()
	b := dsl.New(dsl.WithName("counter"))
	b.Node("inc", domain.StepFunc(func(_ context.Context, s domain.State) (domain.State, error) {
		if atomic.AddInt32(active, 1) > 1 {
			overlap.Store(true)
		}
		defer atomic.AddInt32(active, -1)
		time.Sleep(5 * time.Millisecond)
		n, _ := s["count"].(int)
		return domain.State{"count": n + 1}, nil
	})).Entry().Terminal()

	eng, err := stategraph.Compile(b, stategraph.WithCheckpointer(store))
	require.NoError(t, err)
	return eng
}

func TestManager_SerializesOneThread(t *testing.T) {
	store := memory.NewStore()
	var active int32
	var overlap atomic.Bool
	mgr := session.NewManager(slowCounter(t, store, &active, &overlap), store)
	ctx := context.Background()

	const runs = 10
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Invoke(ctx, "race-test", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load(), "invocations of one thread must not interleave")
	cp, err := mgr.GetState(ctx, "race-test")
	require.NoError(t, err)
	assert.Equal(t, runs, cp.State["count"], "no update may be lost")
	assert.Equal(t, runs, cp.Step)
}

func TestManager_ThreadQueries(t *testing.T) {
	store := memory.NewStore()
	var active int32
	var overlap atomic.Bool
	mgr := session.NewManager(slowCounter(t, store, &active, &overlap), store)
	ctx := context.Background()

	_, err := mgr.Invoke(ctx, "a", nil)
	require.NoError(t, err)
	_, err = mgr.Invoke(ctx, "a", nil)
	require.NoError(t, err)

	threads, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, threads)

	history, err := mgr.History(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	require.NoError(t, mgr.Delete(ctx, "a"))
	_, err = mgr.GetState(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}

func TestManager_WithoutStore(t *testing.T) {
	b := dsl.New()
	b.Node("noop", domain.StepFunc(func(context.Context, domain.State) (domain.State, error) {
		return domain.State{"ok": true}, nil
	})).Entry().Terminal()
	eng, err := stategraph.Compile(b)
	require.NoError(t, err)

	mgr := session.NewManager(eng, nil)
	out, err := mgr.Invoke(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])

	_, err = mgr.List(context.Background())
	assert.ErrorIs(t, err, session.ErrNoStore)
}

type countingLocker struct {
	locks, unlocks atomic.Int32
}

func (l *countingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	store := memory.NewStore()
	var active int32
	var overlap atomic.Bool
	locker := &countingLocker{}
	mgr := session.NewManager(slowCounter(t, store, &active, &overlap), store, session.WithLocker(locker))

	_, err := mgr.Invoke(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), locker.locks.Load())
	assert.Equal(t, int32(1), locker.unlocks.Load())
}
