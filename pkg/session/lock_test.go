package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
)

type nopInvoker struct{}

func (nopInvoker) Invoke(context.Context, domain.State, domain.RunConfig) (domain.State, error) {
	return domain.State{}, nil
}

func (nopInvoker) Inspect() domain.Topology { return domain.Topology{} }

var _ ports.Invoker = nopInvoker{}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopInvoker{}, memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		tid := fmt.Sprintf("thread-%d", i)
		_, _ = mgr.Invoke(ctx, tid, nil)
		_ = mgr.Delete(ctx, tid)
	}

	lockCount := len(mgr.locks)
	t.Logf("Threads: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
