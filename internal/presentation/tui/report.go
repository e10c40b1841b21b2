package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/muesli/termenv"
)

// Printer writes live run progress to a terminal.
type Printer struct {
	w   io.Writer
	out *termenv.Output
}

// NewPrinter creates a printer on w. Colours are dropped when color is false
// or w is not a colour terminal.
func NewPrinter(w io.Writer, color bool) *Printer {
	opts := []termenv.OutputOption{}
	if !color {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &Printer{w: w, out: termenv.NewOutput(w, opts...)}
}

// Step prints one step result.
func (p *Printer) Step(res domain.StepResult) {
	fmt.Fprintln(p.w, p.StepLine(res))
}

// StepLine formats one step result.
func (p *Printer) StepLine(res domain.StepResult) string {
	label := res.Action
	if res.Name != "" {
		label = res.Name
	}
	var mark termenv.Style
	switch {
	case res.Skipped:
		mark = p.out.String("-").Foreground(p.out.Color("#a1a1aa"))
	case res.Error != "":
		mark = p.out.String("✗").Foreground(p.out.Color("#f87171"))
	default:
		mark = p.out.String("✓").Foreground(p.out.Color("#4ade80"))
	}

	line := fmt.Sprintf("%s %2d %s", mark, res.Index+1, label)
	switch {
	case res.Skipped:
		line += p.out.String(" (skipped)").Faint().String()
	case res.Error != "":
		line += " " + p.out.String(res.Error).Foreground(p.out.Color("#f87171")).String()
	default:
		line += p.out.String(" " + res.Duration.Round(time.Millisecond).String()).Faint().String()
		if res.Output != "" {
			line += " → " + res.Output
		}
	}
	return line
}

// Report renders a finished run as markdown.
func Report(record *domain.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", record.Scenario)
	fmt.Fprintf(&b, "**%s** · run `%s`", strings.ToUpper(string(record.Status)), record.ID)
	if !record.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " · %s", record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond))
	}
	if record.EditorStatus != "" {
		fmt.Fprintf(&b, " · editor %s", record.EditorStatus)
	}
	b.WriteString("\n\n")

	if record.Error != "" {
		fmt.Fprintf(&b, "> %s\n\n", escape(record.Error))
	}

	b.WriteString("| # | Step | Result | Duration |\n|---|------|--------|----------|\n")
	for _, s := range record.Steps {
		label := s.Action
		if s.Name != "" {
			label = s.Name + " (" + s.Action + ")"
		}
		result := "ok"
		switch {
		case s.Skipped:
			result = "skipped"
		case s.Error != "":
			result = "**" + escape(s.Error) + "**"
		case s.Output != "":
			result = escape(s.Output)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", s.Index+1, escape(label), result, s.Duration.Round(time.Millisecond))
	}

	if len(record.Outputs) > 0 {
		b.WriteString("\n## Outputs\n\n")
		keys := make([]string, 0, len(record.Outputs))
		for k := range record.Outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- `%s`: %s\n", k, escape(record.Outputs[k]))
		}
	}
	return b.String()
}

// escape keeps values on one table line.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
