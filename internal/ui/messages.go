package ui

import (
	"context"
	"time"

	"themekeeper/internal/theme"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval      = time.Second
	copyToastDuration = 2 * time.Second
)

// readyMsg reports that the manager finished opening its store. err is the
// open or read failure, if any.
type readyMsg struct {
	err error
}

type tickMsg struct{}

func waitReady(m *theme.Manager) tea.Cmd {
	return func() tea.Msg {
		if err := m.Wait(context.Background()); err != nil {
			return readyMsg{err: err}
		}
		return readyMsg{err: m.Err()}
	}
}

// scheduleTick re-renders periodically so OS color-scheme changes applied
// by the manager in the background show up.
func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}
