package ui

import (
	"fmt"
	"strings"
	"time"

	"themekeeper/internal/palette"
	"themekeeper/internal/theme"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	defaultWidth = 48
	minRowWidth  = 12
)

func (m *App) View() string {
	current := m.manager.Current()
	st := newStyles(palette.For(current, current == theme.Dark))

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	if m.showHelp {
		return renderHelpOverlay(m.keys, st, width)
	}

	title := "themekeeper"
	if m.version != "" {
		title += " " + m.version
	}

	var b strings.Builder
	b.WriteString(st.header.Render(title))
	b.WriteString("\n\n")
	b.WriteString(st.pane.Render(m.renderRows(st, width-4)))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(st, current))
	if toast := m.renderToast(st); toast != "" {
		b.WriteString("\n")
		b.WriteString(toast)
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter(st, width))
	return b.String()
}

func (m *App) renderRows(st styles, width int) string {
	if width < minRowWidth {
		width = minRowWidth
	}
	rows := make([]string, 0, len(m.buttons)+2)
	for i, btn := range m.buttons {
		marker := "  "
		if v, _ := btn.Attr(theme.AttrAriaCurrent); v == "true" {
			marker = "● "
		}
		cursor := "  "
		if i == m.cursor {
			cursor = "› "
		}
		text := truncate.StringWithTail(btn.Text(), uint(width-4), "…")
		row := cursor + marker + text
		row += strings.Repeat(" ", max(0, width-ansi.StringWidth(row)))

		switch {
		case i == m.cursor:
			row = st.selected.Render(row)
		case marker != "  ":
			row = st.active.Render(row)
		default:
			row = st.row.Render(row)
		}
		rows = append(rows, row)
	}
	if m.toggle != nil {
		rows = append(rows, "", st.toggle.Render("t  "+m.toggle.Text()))
	}
	return strings.Join(rows, "\n")
}

func (m *App) renderStatus(st styles, current string) string {
	if !m.ready {
		return st.muted.Render("Opening theme store…")
	}
	selection := m.manager.Selection()
	if selection == "" {
		selection = theme.System
	}
	line := fmt.Sprintf("Current: %s · Selection: %s · Store: %s", current, selection, m.manager.State())
	out := st.muted.Render(line)
	if m.readyErr != nil {
		out += "\n" + st.warning.Render("store unavailable: "+m.readyErr.Error())
	}
	return out
}

func (m *App) renderToast(st styles) string {
	if m.lastError != "" {
		return st.warning.Render(m.lastError)
	}
	if m.copiedText != "" && time.Since(m.copiedAt) < copyToastDuration {
		return st.toggle.Render(fmt.Sprintf("Copied '%s' to clipboard.", m.copiedText))
	}
	return ""
}
