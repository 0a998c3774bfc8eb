package palette

import "github.com/charmbracelet/lipgloss"

// Colors below come from the upstream palettes:
// https://primer.style/primitives/colors
// https://ethanschoonover.com/solarized/
// https://draculatheme.com/contribute
// https://www.nordtheme.com/docs/colors-and-palettes

func init() {
	Register("light", Palette{
		Primary:    lipgloss.Color("#0969da"),
		Accent:     lipgloss.Color("#8250df"),
		Text:       lipgloss.Color("#24292f"),
		TextMuted:  lipgloss.Color("#57606a"),
		Background: lipgloss.Color("#ffffff"),
		Selected:   lipgloss.Color("#ddf4ff"),
		Border:     lipgloss.Color("#d0d7de"),
	})
	Register("dark", Palette{
		Primary:    lipgloss.Color("#58a6ff"),
		Accent:     lipgloss.Color("#bc8cff"),
		Text:       lipgloss.Color("#c9d1d9"),
		TextMuted:  lipgloss.Color("#8b949e"),
		Background: lipgloss.Color("#0d1117"),
		Selected:   lipgloss.Color("#161b22"),
		Border:     lipgloss.Color("#30363d"),
		Dark:       true,
	})
	Register("solarized", Palette{
		Primary:    lipgloss.Color("#268bd2"),
		Accent:     lipgloss.Color("#2aa198"),
		Text:       lipgloss.Color("#839496"),
		TextMuted:  lipgloss.Color("#586e75"),
		Background: lipgloss.Color("#002b36"),
		Selected:   lipgloss.Color("#073642"),
		Border:     lipgloss.Color("#586e75"),
		Dark:       true,
	})
	Register("dracula", Palette{
		Primary:    lipgloss.Color("#bd93f9"),
		Accent:     lipgloss.Color("#ff79c6"),
		Text:       lipgloss.Color("#f8f8f2"),
		TextMuted:  lipgloss.Color("#6272a4"),
		Background: lipgloss.Color("#282a36"),
		Selected:   lipgloss.Color("#44475a"),
		Border:     lipgloss.Color("#6272a4"),
		Dark:       true,
	})
	Register("nord", Palette{
		Primary:    lipgloss.Color("#88C0D0"),
		Accent:     lipgloss.Color("#B48EAD"),
		Text:       lipgloss.Color("#ECEFF4"),
		TextMuted:  lipgloss.Color("#4C566A"),
		Background: lipgloss.Color("#2E3440"),
		Selected:   lipgloss.Color("#3B4252"),
		Border:     lipgloss.Color("#434C5E"),
		Dark:       true,
	})
}
