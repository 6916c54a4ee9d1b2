package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mgomes/quill/quill"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(successColor)

	failStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

// renderError styles the first line of err and mutes the stack frames that
// follow it.
func renderError(err error) string {
	lines := strings.Split(err.Error(), "\n")
	label := "error"
	if fault, ok := quill.AsFault(err); ok && fault.Kind == quill.FaultInternal {
		label = "internal"
	}

	var b strings.Builder
	b.WriteString(failStyle.Render(label+":") + " " + errorStyle.Render(lines[0]))
	for _, line := range lines[1:] {
		b.WriteString("\n" + mutedStyle.Render(line))
	}
	return b.String()
}

// percentStyle colours a coverage figure against the configured minimum.
func percentStyle(pct, minimum int) lipgloss.Style {
	switch {
	case pct < minimum:
		return errorStyle
	case pct < 80:
		return warnStyle
	default:
		return passStyle
	}
}

func renderPercent(pct, minimum int) string {
	return percentStyle(pct, minimum).Render(fmt.Sprintf("%d%%", pct))
}
