package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/tree"
)

// Overlay contains session state to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of the decision tree.
// Shapes follow the node role:
// - Root: ((Circle))
// - Decision: {Rhombus}
// - Terminal: [[Subroutine]], labelled with its ingredients
func GenerateMermaid(s tree.Structure, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var walk func(n tree.StructureNode, root bool)
	walk = func(n tree.StructureNode, root bool) {
		safeID := sanitizeMermaidID(n.ID)
		label := escapeLabel(n.Title)

		opener, closer := "[", "]"
		switch {
		case root:
			opener, closer = "((", "))"
		case n.Kind == domain.NodeKindDecision:
			opener, closer = "{", "}"
		case n.Kind == domain.NodeKindTerminal:
			opener, closer = "[[", "]]"
			if len(n.Ingredients) > 0 {
				label += " <br/> " + escapeLabel(strings.Join(n.Ingredients, ", "))
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, child := range n.Children {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(child.ID))
		}
		for _, child := range n.Children {
			walk(child, false)
		}
	}
	walk(s.Root, true)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
