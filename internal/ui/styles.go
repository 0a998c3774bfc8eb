package ui

import (
	"themekeeper/internal/palette"

	"github.com/charmbracelet/lipgloss"
)

// styles are derived from the palette of the active theme on every render.
type styles struct {
	header   lipgloss.Style
	row      lipgloss.Style
	selected lipgloss.Style
	active   lipgloss.Style
	muted    lipgloss.Style
	toggle   lipgloss.Style
	warning  lipgloss.Style
	pane     lipgloss.Style
	pill     lipgloss.Style
}

var cWarning = lipgloss.Color("208")

func newStyles(p palette.Palette) styles {
	return styles{
		header: lipgloss.NewStyle().
			Foreground(p.Background).
			Background(p.Primary).
			Bold(true).
			Padding(0, 1),
		row: lipgloss.NewStyle().Foreground(p.Text),
		selected: lipgloss.NewStyle().
			Background(p.Selected).
			Foreground(p.Text).
			Bold(true),
		active:  lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(p.TextMuted),
		toggle:  lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		warning: lipgloss.NewStyle().Foreground(cWarning),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		pill: lipgloss.NewStyle().
			Foreground(p.Background).
			Background(p.TextMuted).
			Padding(0, 1),
	}
}
