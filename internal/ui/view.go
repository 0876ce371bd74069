package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
)

func (m MainModel) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	status := fmt.Sprintf(" MODEL: %s ", m.state.CurrentModel)
	if m.busy {
		status += fmt.Sprintf("| %s %s ", m.spinner.View(), m.status)
	}

	header := headerStyle.
		Width(m.viewport.Width).
		Render(status)

	border := lipgloss.NewStyle().
		Foreground(grayColor).
		Width(m.viewport.Width).
		Render(strings.Repeat("─", max(m.viewport.Width, 1)))

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		border,
		m.textarea.View(),
	)
}

// wrapLines word-wraps every entry to width. width <= 0 leaves lines as is.
func wrapLines(lines []string, width int) string {
	if width <= 0 {
		return strings.Join(lines, "\n")
	}
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		wrapped = append(wrapped, wrap.String(line, width))
	}
	return strings.Join(wrapped, "\n")
}
