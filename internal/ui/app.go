package ui

import (
	"errors"
	"strings"
	"time"

	"themekeeper/internal/dom"
	"themekeeper/internal/theme"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoSelectors is returned when the document has no theme selector elements.
var ErrNoSelectors = errors.New("document has no theme selectors")

// Config configures the UI application.
type Config struct {
	Manager *theme.Manager
	Version string // Version string to display in header
	// CopyFunc writes to the clipboard. Defaults to clipboard.WriteAll.
	CopyFunc func(string) error
}

// App implements the Bubble Tea model for the theme picker. Every row is a
// selector element of the manager's document; choosing a row clicks it.
type App struct {
	manager *theme.Manager
	buttons []*dom.Element
	toggle  *dom.Element
	cursor  int

	keys     KeyMap
	showHelp bool
	ready    bool
	readyErr error
	width    int
	height   int
	version  string

	copy       func(string) error
	copiedText string
	copiedAt   time.Time
	lastError  string
}

// BuildDocument returns a document with one selector button per theme and a
// light/dark toggle, the markup the picker renders.
func BuildDocument(themes []string) *dom.Document {
	doc := dom.New()
	AppendControls(doc, themes)
	return doc
}

// AppendControls adds the selector buttons and the toggle to doc's body.
func AppendControls(doc *dom.Document, themes []string) {
	body := doc.Body()
	nav := doc.CreateElement("nav")
	for _, name := range themes {
		btn := doc.CreateElement("button")
		btn.SetAttr(theme.AttrThemeName, name)
		btn.SetText(label(name))
		nav.AppendChild(btn)
	}
	body.AppendChild(nav)

	toggle := doc.CreateElement("button")
	toggle.SetAttr(theme.AttrThemeToggle, "")
	toggle.SetText("Toggle light/dark")
	body.AppendChild(toggle)
}

func label(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// NewApp wires the manager's selector and toggle elements and returns the model.
func NewApp(cfg Config) (*App, error) {
	if cfg.Manager == nil {
		return nil, errors.New("ui: manager is required")
	}
	doc := cfg.Manager.Document()
	buttons := doc.QueryAll(theme.AttrThemeName)
	if len(buttons) == 0 {
		return nil, ErrNoSelectors
	}

	cfg.Manager.InitButtons()
	cfg.Manager.InitToggleButton()

	app := &App{
		manager: cfg.Manager,
		buttons: buttons,
		keys:    DefaultKeyMap(),
		version: cfg.Version,
		copy:    cfg.CopyFunc,
	}
	if toggles := doc.QueryAll(theme.AttrThemeToggle); len(toggles) > 0 {
		app.toggle = toggles[0]
	}
	if app.copy == nil {
		app.copy = clipboard.WriteAll
	}
	return app, nil
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(waitReady(m.manager), scheduleTick())
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		m.ready = true
		m.readyErr = msg.err
		m.moveCursorToActive()
		return m, nil
	case tickMsg:
		return m, scheduleTick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case m.showHelp:
		// Any other key closes the help overlay.
		m.showHelp = false
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.buttons)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		m.buttons[m.cursor].Click()
		m.noteResult()
	case key.Matches(msg, m.keys.Toggle):
		if m.toggle != nil {
			m.toggle.Click()
			m.noteResult()
			m.moveCursorToActive()
		}
	case key.Matches(msg, m.keys.Copy):
		current := m.manager.Current()
		if err := m.copy(current); err != nil {
			m.lastError = "copy failed: " + err.Error()
		} else {
			m.copiedText = current
			m.copiedAt = time.Now()
		}
	}
	return m, nil
}

func (m *App) noteResult() {
	res := m.manager.LastResult()
	switch {
	case res.Outcome.Has(theme.PersistFailed):
		m.lastError = "theme applied but not saved: " + res.Err.Error()
	default:
		m.lastError = ""
	}
}

func (m *App) moveCursorToActive() {
	current := m.manager.Current()
	for i, btn := range m.buttons {
		if v, _ := btn.Attr(theme.AttrThemeName); v == current {
			m.cursor = i
			return
		}
	}
}

// Cursor returns the index of the highlighted selector.
func (m *App) Cursor() int {
	return m.cursor
}
