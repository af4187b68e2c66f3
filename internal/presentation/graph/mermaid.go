package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Overlay contains session state to visualize on the graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces Mermaid flowchart syntax for a product's steps.
// Semantic styling:
// - First step: ((Circle))
// - Steps with an active alert: [/Parallelogram/]
// - Default: [Rectangle]
// Terminal buttons point at a shared ((fim)) sink node.
func GenerateMermaid(product *domain.Product, steps []*domain.Step, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	hasTerminal := false
	for _, step := range steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case product != nil && step.ID == product.FirstStepID:
			opener, closer = "((", "))"
		case step.Alert.Active():
			opener, closer = "[/", "/]"
		}

		label := step.Title
		if label == "" {
			label = step.ID
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeMermaidLabel(label), closer))

		for _, button := range step.Buttons {
			arrow := fmt.Sprintf("-- \"%s\" -->", escapeMermaidLabel(button.Label))
			if button.Terminal() {
				hasTerminal = true
				sb.WriteString(fmt.Sprintf("    %s %s fim\n", safeID, arrow))
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(button.NextStepID)))
		}
	}
	if hasTerminal {
		sb.WriteString("    fim((\"fim\"))\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
