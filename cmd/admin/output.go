package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func warning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, warningStyle.Render("⚠ ")+fmt.Sprintf(format, args...))
}

// table prints rows in padded columns under a highlighted header.
func table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := lipgloss.Width(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		return strings.Join(parts, "  ")
	}

	fmt.Fprintln(w, line(headers, headerStyle))
	total := 0
	for _, n := range widths {
		total += n + 2
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", total-2)))
	plain := lipgloss.NewStyle()
	for _, row := range rows {
		fmt.Fprintln(w, line(row, plain))
	}
}
