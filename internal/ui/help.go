package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// helpRows lists the bindings shown in the help overlay.
// Text is derived from binding.Help() to keep a single source of truth.
func helpRows(keys KeyMap) [][]string {
	return [][]string{
		{keys.Up.Help().Key, keys.Up.Help().Desc},
		{keys.Select.Help().Key, keys.Select.Help().Desc},
		{keys.Toggle.Help().Key, keys.Toggle.Help().Desc},
		{keys.Copy.Help().Key, keys.Copy.Help().Desc},
		{keys.Help.Help().Key, keys.Help.Help().Desc},
		{keys.Quit.Help().Key, keys.Quit.Help().Desc},
	}
}

func renderHelpOverlay(keys KeyMap, st styles, width int) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(helpRows(keys)...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return st.active.PaddingRight(2)
			}
			return st.row
		})

	var b strings.Builder
	b.WriteString(st.header.Render("KEYS"))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(st.muted.Render("Press any key to close"))
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}
