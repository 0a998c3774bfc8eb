package theme

import (
	"context"
	"sync"

	"themekeeper/internal/debug"
	"themekeeper/internal/dom"
	"themekeeper/internal/store"
)

// Config configures a Manager.
type Config struct {
	// Document receives the theme. A blank document is created when nil.
	Document *dom.Document
	// ColorScheme resolves "system". When nil the system never prefers dark.
	ColorScheme ColorScheme
	// Open opens the theme store. When nil nothing is persisted.
	Open OpenFunc
	// AdditionalThemes extend the built-in identifiers.
	AdditionalThemes []string
}

// Manager owns the allowed theme set, the resolved theme and the store handle.
// All resolutions are serialized; the document is only mutated under the
// manager lock.
type Manager struct {
	doc    *dom.Document
	scheme ColorScheme
	themes map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}

	mu          sync.Mutex
	store       Store
	state       State
	initErr     error
	selection   string
	resolved    string
	last        Result
	unsubscribe func()
	closed      bool
}

type lightScheme struct{}

func (lightScheme) Matches() bool {
	return false
}

func (lightScheme) OnChange(func(bool)) func() {
	return func() {}
}

// New builds the allowed theme set, subscribes to the color-scheme signal and
// starts opening the store in the background. It never blocks on the store;
// use Ready or Wait to observe initialization.
func New(cfg Config) *Manager {
	doc := cfg.Document
	if doc == nil {
		doc = dom.New()
	}
	scheme := cfg.ColorScheme
	if scheme == nil {
		scheme = lightScheme{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		doc:    doc,
		scheme: scheme,
		themes: newThemeSet(cfg.AdditionalThemes),
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		state:  StateOpening,
	}
	m.unsubscribe = scheme.OnChange(m.handleSchemeChange)

	open := cfg.Open
	if open == nil {
		open = func(context.Context) (Store, error) { return nil, nil }
	}
	go m.initialize(open)
	return m
}

// initialize opens the store, reads the saved theme and applies it, or
// applies "system" when nothing was saved.
func (m *Manager) initialize(open OpenFunc) {
	defer close(m.ready)

	s, err := open(m.ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		debug.Errorw("open theme store failed", "error", err)
		m.state = StateFailed
		m.initErr = err
		if !m.closed {
			m.setLocked(System)
		}
		return
	}
	if m.closed {
		if s != nil {
			_ = s.Close()
		}
		m.state = StateFailed
		m.initErr = context.Canceled
		return
	}

	m.store = s
	m.state = StateReady
	if s == nil {
		m.setLocked(System)
		return
	}

	rec, ok, err := s.Get(m.ctx, store.ThemeKey)
	switch {
	case err != nil:
		debug.Errorw("read theme record failed", "error", err)
		m.setLocked(System)
	case ok:
		debug.Logf("loaded saved theme %q", rec.Value)
		m.setLocked(rec.Value)
	default:
		m.setLocked(System)
	}
}

// Ready is closed once store initialization has finished, successfully or not.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until the manager is ready or ctx is done. It returns the
// store initialization error, if any.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return m.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the store initialization state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the store initialization error, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initErr
}

// Document returns the managed document.
func (m *Manager) Document() *dom.Document {
	return m.doc
}

// Themes returns the allowed identifiers in sorted order.
func (m *Manager) Themes() []string {
	return sortedThemes(m.themes)
}

// Allowed reports whether name is in the theme set.
func (m *Manager) Allowed(name string) bool {
	_, ok := m.themes[name]
	return ok
}

// Selection returns the last logical selection, which may be "system".
func (m *Manager) Selection() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// Resolved returns the concrete theme last applied, or "" before the first resolution.
func (m *Manager) Resolved() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolved
}

// LastResult returns the most recent resolution.
func (m *Manager) LastResult() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// ChangeTheme resolves requested, applies it and returns the applied theme.
func (m *Manager) ChangeTheme(requested string) string {
	return m.Resolve(requested).Theme
}

// Resolve runs the resolution algorithm without touching indicators.
func (m *Manager) Resolve(requested string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(requested)
}

// Current returns the theme set on the document root, "system" if none.
func (m *Manager) Current() string {
	root := m.doc.Root()
	if root == nil {
		return System
	}
	if v, ok := root.Attr(AttrTheme); ok && v != "" {
		return v
	}
	return System
}

// SetCurrent resolves theme and marks the matching selector elements.
func (m *Manager) SetCurrent(theme string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(theme)
}

// Toggle flips between light and dark based on the document's current
// theme: dark becomes light, anything else becomes dark.
func (m *Manager) Toggle() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := Dark
	if m.Current() == Dark {
		next = Light
	}
	return m.setLocked(next)
}

// InitButtons wires every [data-theme-name] element to select its theme and
// syncs the indicators to the active theme.
func (m *Manager) InitButtons() {
	for _, el := range m.doc.QueryAll(AttrThemeName) {
		el.OnClick(func(e *dom.Element) {
			res := m.SetCurrent(selectorToken(e))
			debug.Logf("selector clicked: requested=%q applied=%q outcome=%s", res.Requested, res.Theme, res.Outcome)
		})
	}
	m.UpdateAriaCurrent(m.Current())
}

// InitToggleButton wires every [data-theme-toggle] element to Toggle.
func (m *Manager) InitToggleButton() {
	for _, el := range m.doc.QueryAll(AttrThemeToggle) {
		el.OnClick(func(*dom.Element) {
			res := m.Toggle()
			debug.Logf("toggle clicked: applied=%q outcome=%s", res.Theme, res.Outcome)
		})
	}
}

// UpdateAriaCurrent marks the selector elements whose token equals theme
// with aria-current="true" and clears the marker from all others.
func (m *Manager) UpdateAriaCurrent(theme string) {
	for _, el := range m.doc.QueryAll(AttrThemeName) {
		if selectorToken(el) == theme {
			el.SetAttr(AttrAriaCurrent, "true")
		} else {
			el.RemoveAttr(AttrAriaCurrent)
		}
	}
}

// Close unsubscribes from the color-scheme signal and closes the store.
// It waits for a pending store open to finish.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.mu.Unlock()

	m.cancel()
	<-m.ready

	m.mu.Lock()
	s := m.store
	m.store = nil
	m.mu.Unlock()
	if s != nil {
		return s.Close()
	}
	return nil
}

func (m *Manager) handleSchemeChange(prefersDark bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.selection != System {
		return
	}
	res := m.setLocked(System)
	debug.Logf("system scheme changed (dark=%v): applied %q", prefersDark, res.Theme)
}

func (m *Manager) setLocked(theme string) Result {
	res := m.resolveLocked(theme)
	m.UpdateAriaCurrent(res.Theme)
	return res
}

func (m *Manager) resolveLocked(requested string) Result {
	res := Result{Requested: requested}

	value := requested
	if !m.Allowed(value) {
		value = System
		res.Outcome |= CoercedToDefault
	}
	m.selection = value

	applied := value
	if value == System {
		applied = Light
		if m.scheme.Matches() {
			applied = Dark
		}
		res.Outcome |= ResolvedFromSystem
	}

	m.project(applied)
	m.resolved = applied
	res.Theme = applied

	m.persistLocked(&res)
	m.last = res
	return res
}

// project materializes theme on the document root: exactly one theme class
// and the data-theme attribute. Calling it twice with the same theme is a no-op.
func (m *Manager) project(theme string) {
	root := m.doc.Root()
	if root == nil {
		return
	}
	for name := range m.themes {
		if name != theme {
			root.RemoveClass(name)
		}
	}
	root.AddClass(theme)
	root.SetAttr(AttrTheme, theme)
}

func (m *Manager) persistLocked(res *Result) {
	if m.store == nil {
		debug.Logf("theme store not ready, skipping save of %q", res.Theme)
		res.Outcome |= PersistSkipped
		return
	}
	if err := m.store.Put(m.ctx, store.Record{ID: store.ThemeKey, Value: res.Theme}); err != nil {
		debug.Errorw("save theme failed", "theme", res.Theme, "error", err)
		res.Outcome |= PersistFailed
		res.Err = err
		return
	}
	res.Outcome |= Persisted
}

func selectorToken(el *dom.Element) string {
	if v, ok := el.Attr(AttrThemeName); ok && v != "" {
		return v
	}
	return System
}
