package graph

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/branchtale/pkg/domain"
)

// GraphOverlay contains playthrough data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromTranscript highlights the path of a finished playthrough.
// When it ended on an inline outcome, the outcome leaf is marked current.
func OverlayFromTranscript(story *domain.Story, tr *domain.Transcript) *GraphOverlay {
	overlay := &GraphOverlay{VisitedNodes: tr.History}
	if len(tr.History) == 0 {
		return overlay
	}

	last := tr.History[len(tr.History)-1]
	overlay.CurrentNode = last

	if n, ok := story.Node(last); ok && len(tr.Inputs) > 0 {
		key := tr.Inputs[len(tr.Inputs)-1]
		for _, c := range n.Choices {
			if c.Outcome != nil && c.Key == key {
				overlay.CurrentNode = leafID(last, c.Key)
			}
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of the story.
// It applies semantic styling:
// - Start: ((Circle))
// - Ending node: ([Stadium]) labelled with its outcome
// - Inline outcome: {{Hexagon}} leaf hanging off its choice
// - Default: [Rectangle]
// Edges are labelled with the choice key. Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(story *domain.Story, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	type styled struct{ id, class string }
	var endings []styled

	for _, id := range story.NodeIDs() {
		node := story.Nodes[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		label := id
		switch {
		case id == story.StartID:
			opener, closer = "((", "))"
		case node.IsTerminal():
			opener, closer = "([", "])"
		}
		if node.IsTerminal() && node.Ending != "" {
			label = fmt.Sprintf("%s <br/> %s", id, node.Ending)
			endings = append(endings, styled{safeID, outcomeClass(node.Ending)})
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, c := range node.Choices {
			key := strings.ReplaceAll(c.Key, "\"", "'")
			if c.Outcome != nil {
				leaf := leafID(id, c.Key)
				fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", leaf, c.Outcome.Tag)
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, key, leaf)
				endings = append(endings, styled{leaf, outcomeClass(c.Outcome.Tag)})
				continue
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, key, sanitizeMermaidID(c.To))
		}
	}

	if len(endings) > 0 {
		sb.WriteString("\n    %% Outcomes\n")
		sb.WriteString("    classDef win fill:#c8e6c9,stroke:#2e7d32,color:#000;\n")
		sb.WriteString("    classDef survive fill:#fff9c4,stroke:#f9a825,color:#000;\n")
		sb.WriteString("    classDef loss fill:#ffcdd2,stroke:#c62828,color:#000;\n")
		for _, e := range endings {
			fmt.Fprintf(&sb, "    class %s %s;\n", e.id, e.class)
		}
	}

	// Apply Overlay Styles
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

func leafID(nodeID, key string) string {
	return sanitizeMermaidID(nodeID) + "__" + sanitizeMermaidID(key)
}

func outcomeClass(tag domain.OutcomeTag) string {
	return strings.ToLower(string(tag))
}

// sanitizeMermaidID keeps letters, digits and underscores.
func sanitizeMermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, id)
}
