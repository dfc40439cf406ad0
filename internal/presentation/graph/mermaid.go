package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// GraphOverlay contains thread data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromHistory marks every node a thread has executed, the last one as current.
func OverlayFromHistory(history []domain.Checkpoint) *GraphOverlay {
	if len(history) == 0 {
		return nil
	}
	o := &GraphOverlay{}
	for _, cp := range history {
		o.VisitedNodes = append(o.VisitedNodes, cp.Node)
	}
	o.CurrentNode = history[len(history)-1].Node
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a compiled graph.
// START and END are drawn as circles. Unconditional edges are solid; each
// possible outcome of a router is a dotted edge; nodes that stop because they
// have no route get a dotted edge to END labeled "implicit".
func GenerateMermaid(t domain.Topology, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if t.Name != "" {
		fmt.Fprintf(&sb, "    %%%% %s\n", t.Name)
	}

	fmt.Fprintf(&sb, "    %s((\"start\"))\n", sanitizeMermaidID(domain.START))
	for _, name := range t.Nodes {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", sanitizeMermaidID(name), escapeLabel(name))
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", sanitizeMermaidID(domain.END))

	for _, e := range t.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(e.From), sanitizeMermaidID(e.To))
	}
	for _, r := range t.Routes {
		for _, to := range r.Targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", sanitizeMermaidID(r.From), sanitizeMermaidID(to))
		}
	}
	for _, name := range t.ImplicitEnd {
		fmt.Fprintf(&sb, "    %s -. \"implicit\" .-> %s\n", sanitizeMermaidID(name), sanitizeMermaidID(domain.END))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	switch id {
	case domain.START:
		return "START"
	case domain.END:
		return "END"
	}
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return "n_" + r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
