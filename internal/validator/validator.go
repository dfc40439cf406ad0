package validator

import (
	"errors"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ValidateGraph checks that END and every registered node are reachable from START.
// Router destinations count as edges; END counts as a router destination unless
// the router excludes it. Nodes without an outgoing route lead to END.
func ValidateGraph(g *domain.Graph) error {
	visited := Reachable(g)

	var errs []error
	for _, name := range g.Nodes() {
		if !visited[name] {
			errs = append(errs, &domain.ConstructionError{Kind: domain.ErrUnreachableNode, Node: name})
		}
	}
	if !visited[domain.END] {
		errs = append(errs, &domain.ConstructionError{
			Kind:   domain.ErrUnreachableEnd,
			Detail: "no path leads from " + domain.START + " to " + domain.END,
		})
	}
	return errors.Join(errs...)
}

// Reachable returns the set of names reachable from START, END included.
func Reachable(g *domain.Graph) map[string]bool {
	visited := map[string]bool{domain.START: true}
	queue := []string{domain.START}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == domain.END {
			continue // Sink state
		}
		for _, next := range g.Successors(current) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}
