package ui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// footerHint defines a key hint for the footer bar.
// These are intentionally shorter than the KeyMap help text.
type footerHint struct {
	key  string
	desc string
}

var footerHints = []footerHint{
	{"↑↓", "Navigate"},
	{"⏎", "Apply"},
	{"t", "Toggle"},
	{"c", "Copy"},
	{"?", "Help"},
	{"q", "Quit"},
}

// renderFooter renders pill-style key hints, wrapped to width.
func (m *App) renderFooter(st styles, width int) string {
	parts := make([]string, 0, len(footerHints))
	for _, h := range footerHints {
		parts = append(parts, h.key+" "+h.desc)
	}
	wrapped := wordwrap.String(strings.Join(parts, "  "), width)

	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = st.pill.Render(strings.TrimSpace(line))
	}
	return strings.Join(lines, "\n")
}
