package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stategraph/pkg/domain"
)

var noop = domain.StepFunc(func(context.Context, domain.State) (domain.State, error) {
	return nil, nil
})

func graph(nodes []string, edges []domain.Edge, routers ...*domain.Router) *domain.Graph {
	var ns []domain.Node
	for _, n := range nodes {
		ns = append(ns, domain.Node{Name: n, Step: noop})
	}
	return domain.NewGraph("test", nil, ns, edges, routers)
}

func TestValidateGraph(t *testing.T) {
	// Scenario A: Valid Graph
	// start -> a -> b (implicit end)
	valid := graph([]string{"a", "b"}, []domain.Edge{{From: domain.START, To: "a"}, {From: "a", To: "b"}})
	if err := ValidateGraph(valid); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}

	// Scenario B: Orphan node
	orphan := graph([]string{"a", "ghost"}, []domain.Edge{{From: domain.START, To: "a"}, {From: "a", To: domain.END}})
	err := ValidateGraph(orphan)
	if !errors.Is(err, domain.ErrUnreachableNode) {
		t.Errorf("Scenario B (Orphan) expected ErrUnreachableNode, got: %v", err)
	}

	// Scenario C: Closed cycle without an exit
	cycle := graph([]string{"a", "b"}, []domain.Edge{
		{From: domain.START, To: "a"},
		{From: "a", To: "b"},
		{From: "b", To: "a"},
	})
	if err := ValidateGraph(cycle); !errors.Is(err, domain.ErrUnreachableEnd) {
		t.Errorf("Scenario C (Cycle) expected ErrUnreachableEnd, got: %v", err)
	}

	// Scenario D: No entry edge at all
	if err := ValidateGraph(graph([]string{"a"}, nil)); !errors.Is(err, domain.ErrUnreachableEnd) {
		t.Errorf("Scenario D (No entry) expected ErrUnreachableEnd, got: %v", err)
	}
}

func TestValidateGraph_Routers(t *testing.T) {
	route := func(context.Context, domain.State) (string, error) { return domain.END, nil }

	// assistant <-> tools cycle, exit through the router's implicit END
	agent := graph([]string{"assistant", "tools"},
		[]domain.Edge{{From: domain.START, To: "assistant"}, {From: "tools", To: "assistant"}},
		&domain.Router{Source: "assistant", Fn: route, Targets: []string{"tools"}},
	)
	if err := ValidateGraph(agent); err != nil {
		t.Errorf("agent graph should be valid: %v", err)
	}

	// Same cycle but END excluded
	closed := graph([]string{"assistant", "tools"},
		[]domain.Edge{{From: domain.START, To: "assistant"}, {From: "tools", To: "assistant"}},
		&domain.Router{Source: "assistant", Fn: route, Targets: []string{"tools"}, NoEnd: true},
	)
	if err := ValidateGraph(closed); !errors.Is(err, domain.ErrUnreachableEnd) {
		t.Errorf("expected ErrUnreachableEnd, got: %v", err)
	}

	// Router from START with no declared targets reaches every node
	open := graph([]string{"x", "y"}, nil, &domain.Router{Source: domain.START, Fn: route})
	if err := ValidateGraph(open); err != nil {
		t.Errorf("open router graph should be valid: %v", err)
	}
}
