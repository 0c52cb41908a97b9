package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lu-w/stars-logic-mtcq/internal/kb"
	"github.com/lu-w/stars-logic-mtcq/internal/query"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	holdsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	labelCol    = lipgloss.NewStyle().Width(12)
	holdsCol    = lipgloss.NewStyle().Width(8)
)

// renderResult writes a per-instant table followed by the temporal summary.
func renderResult(w io.Writer, segment string, res *query.Result) {
	fmt.Fprintln(w, headerStyle.Render("segment "+segment))
	fmt.Fprintln(w, labelCol.Render("instant")+holdsCol.Render("holds")+"bindings")
	for _, in := range res.Instants {
		mark := failsStyle.Render("no")
		if in.Holds() {
			mark = holdsStyle.Render("yes")
		}
		fmt.Fprintln(w, labelCol.Render(in.Label)+holdsCol.Render(mark)+formatBindings(in.Bindings))
	}
	fmt.Fprintf(w, "always=%t eventually=%t %s\n",
		res.Always(), res.Eventually(), dimStyle.Render(res.Duration.String()))
}

func formatBindings(bindings []query.Binding) string {
	rows := make([]string, 0, len(bindings))
	for _, b := range bindings {
		names := make([]string, 0, len(b))
		for name := range b {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s=%v", name, b[name])
		}
		rows = append(rows, "{"+strings.Join(parts, ", ")+"}")
	}
	sort.Strings(rows)
	return strings.Join(rows, " ")
}

// renderFacts writes the facts of one snapshot, grouped by predicate.
func renderFacts(w io.Writer, label string, snap *kb.Snapshot, predicate string) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("instant %s (%d facts)", label, snap.Len())))
	for _, pred := range snap.Predicates() {
		if predicate != "" && pred != predicate {
			continue
		}
		for _, f := range snap.Facts(pred) {
			fmt.Fprintln(w, "  "+f.String())
		}
	}
}
