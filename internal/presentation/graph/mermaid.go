package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/scenario"
)

// GenerateMermaid produces a Mermaid flowchart of the steps of sc.
// It applies semantic styling:
// - Start and end: ((Circle))
// - Status changes (publish, schedule, unpublish, save draft): [[Subroutine]]
// - Expectations: {{Hexagon}}
// - Default: [Rectangle]
// Guarded steps get their condition on the incoming edge and a dotted edge
// that skips them. When run is given, executed steps are styled by outcome.
func GenerateMermaid(sc *scenario.Scenario, run *domain.RunRecord) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    start((\"%s\"))\n", quote(sc.Name))

	for i, step := range sc.Steps {
		opener, closer := shape(step.Action)
		label := fmt.Sprintf("%d. %s", i+1, step.Action)
		if step.Name != "" {
			label = fmt.Sprintf("%d. %s <br/> %s", i+1, step.Name, step.Action)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(i), opener, quote(label), closer)
	}
	sb.WriteString("    done((\"done\"))\n")

	for i, step := range sc.Steps {
		from := previous(i)
		if step.When == "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, nodeID(i))
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, quote(step.When), nodeID(i))
		fmt.Fprintf(&sb, "    %s -. skip .-> %s\n", from, next(i, len(sc.Steps)))
	}
	fmt.Fprintf(&sb, "    %s --> done\n", previous(len(sc.Steps)))

	if run != nil {
		sb.WriteString("\n    %% Run Overlay\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef passed fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#f4f4f5,stroke:#a1a1aa,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:4px,color:#000;\n")
		for _, res := range run.Steps {
			if res.Index < 0 || res.Index >= len(sc.Steps) {
				continue
			}
			class := "passed"
			switch {
			case res.Skipped:
				class = "skipped"
			case res.Error != "":
				class = "failed"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", nodeID(res.Index), class)
		}
		if run.Status == domain.RunPassed {
			sb.WriteString("    class done passed;\n")
		}
	}

	return sb.String()
}

func shape(action string) (string, string) {
	switch action {
	case domain.ActionPublish, domain.ActionSchedule, domain.ActionUnpublish, domain.ActionSaveDraft:
		return "[[", "]]"
	case domain.ActionExpectTitle, domain.ActionExpectText:
		return "{{", "}}"
	}
	return "[", "]"
}

func nodeID(i int) string {
	return fmt.Sprintf("step_%d", i)
}

func previous(i int) string {
	if i == 0 {
		return "start"
	}
	return nodeID(i - 1)
}

func next(i, n int) string {
	if i+1 >= n {
		return "done"
	}
	return nodeID(i + 1)
}

// quote keeps a label inside its Mermaid double quotes.
func quote(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
