package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
	mw "github.com/aretw0/stategraph/pkg/middleware"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testInfo() domain.StepInfo {
	return domain.StepInfo{Graph: "mood", ThreadID: "t1", Node: "node_2", Step: 2}
}

func TestChain_Order(t *testing.T) {
	var order []string
	record := func(name string) mw.Middleware {
		return func(ctx context.Context, _ domain.StepInfo, next mw.Handler) (domain.State, error) {
			order = append(order, name+":before")
			update, err := next(ctx)
			order = append(order, name+":after")
			return update, err
		}
	}

	chain := mw.Chain(record("outer"), record("inner"))
	update, err := chain(context.Background(), testInfo(), func(context.Context) (domain.State, error) {
		order = append(order, "handler")
		return domain.State{"graph_state": "happy"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update["graph_state"] != "happy" {
		t.Errorf("update lost through chain: %v", update)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChain_Empty(t *testing.T) {
	update, err := mw.Chain()(context.Background(), testInfo(), func(context.Context) (domain.State, error) {
		return domain.State{"a": 1}, nil
	})
	if err != nil || update["a"] != 1 {
		t.Errorf("empty chain should call handler directly, got %v, %v", update, err)
	}
}

func TestRecover_ConvertsPanic(t *testing.T) {
	update, err := mw.Recover(discard)(context.Background(), testInfo(), func(context.Context) (domain.State, error) {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if update != nil {
		t.Errorf("expected nil update, got %v", update)
	}
	if got := err.Error(); got != "panic in node node_2: boom" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestLogging_PassesThrough(t *testing.T) {
	sentinel := errors.New("failed")
	_, err := mw.Logging(discard)(context.Background(), testInfo(), func(context.Context) (domain.State, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}
}

func TestTimeout_CancelsContext(t *testing.T) {
	_, err := mw.Timeout(10*time.Millisecond)(context.Background(), testInfo(), func(ctx context.Context) (domain.State, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
