package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts for the picker.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Toggle key.Binding
	Copy   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Up/Down share help text (displayed as single row)
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓  j/k", "Move up/down"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↑/↓  j/k", "Move up/down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " ", "space"),
			key.WithHelp("⏎  Space", "Apply theme"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle light/dark"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Copy current theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
	}
}
