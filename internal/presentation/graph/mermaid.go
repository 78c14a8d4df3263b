package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart from a flattened tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Sequence / Fallback: [Rectangle]
// - Retry: {Rhombus}
// - Native action: [[Subroutine]]
// - Savepoint: [(Cylinder)]
func GenerateMermaid(nodes []domain.GraphNode) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case "root":
			opener, closer = "((", "))"
		case "retry":
			opener, closer = "{", "}"
		case "native":
			opener, closer = "[[", "]]"
		case "savepoint":
			opener, closer = "[(", ")]"
		}

		label := strings.ReplaceAll(node.Label, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, child := range node.Children {
			arrow := "-->"
			// Definition expansions are late-bound, draw them dashed.
			if node.Kind == "call" || node.Kind == "param" {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(child)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
