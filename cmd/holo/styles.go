package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"holograph/internal/holo"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a8699"))
	keyStyle     = lipgloss.NewStyle().Bold(true)
)

// renderResult formats one query result for the terminal.
func renderResult(st holo.Statement, result *holo.Result, explain bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(st.String()) + "\n")

	if !result.Success {
		b.WriteString(errorStyle.Render("no answer"))
		if result.Reason != "" {
			b.WriteString(mutedStyle.Render(" (" + result.Reason + ")"))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(successStyle.Render(fmt.Sprintf("answered (confidence %.3f)", result.Confidence)))
	if result.Ambiguous {
		b.WriteString(" " + warnStyle.Render("[ambiguous]"))
	}
	b.WriteString("\n")

	for i, entry := range result.AllResults {
		b.WriteString(fmt.Sprintf("  %2d. ", i+1))
		names := make([]string, 0, len(entry.Bindings))
		for name := range entry.Bindings {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, keyStyle.Render("?"+name)+" = "+entry.Bindings[name].Answer)
		}
		if len(parts) == 0 {
			parts = append(parts, mutedStyle.Render("(holds)"))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  [%s %.3f]", entry.Method, entry.Score)))
		b.WriteString("\n")
		if explain {
			for _, step := range entry.Steps {
				b.WriteString(mutedStyle.Render("      "+step) + "\n")
			}
		}
	}

	if result.Equivalence != nil {
		if result.Equivalence.Equal {
			b.WriteString(mutedStyle.Render("  holographic and symbolic answer sets agree\n"))
		} else {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  answer sets diverge: %d holographic vs %d symbolic\n",
				len(result.Equivalence.HDCKeys), len(result.Equivalence.SymbolicKeys))))
		}
	}
	return b.String()
}
