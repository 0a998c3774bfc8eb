package theme

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"themekeeper/internal/dom"
	"themekeeper/internal/store"
)

type fakeScheme struct {
	mu        sync.Mutex
	dark      bool
	listeners map[int]func(bool)
	next      int
}

func newFakeScheme(dark bool) *fakeScheme {
	return &fakeScheme{dark: dark, listeners: make(map[int]func(bool))}
}

func (s *fakeScheme) Matches() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

func (s *fakeScheme) OnChange(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *fakeScheme) set(dark bool) {
	s.mu.Lock()
	s.dark = dark
	var fns []func(bool)
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(dark)
	}
}

func (s *fakeScheme) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

type memStore struct {
	mu      sync.Mutex
	records map[string]string
	puts    int
	putErr  error
	getErr  error
	closed  bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, id string) (store.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return store.Record{}, false, s.getErr
	}
	v, ok := s.records[id]
	return store.Record{ID: id, Value: v}, ok, nil
}

func (s *memStore) Put(_ context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.records[rec.ID] = rec.Value
	return nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStore) value() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[store.ThemeKey]
	return v, ok
}

func openMem(s *memStore) OpenFunc {
	return func(context.Context) (Store, error) { return s, nil }
}

const pageHTML = `<!DOCTYPE html>
<html class="js">
<body>
  <button data-theme-name="light">Light</button>
  <button data-theme-name="dark">Dark</button>
  <button data-theme-name="dark" class="footer">Dark (footer)</button>
  <button data-theme-name="system">Auto</button>
  <button data-theme-name="solarized">Solarized</button>
  <button data-theme-toggle>Toggle</button>
</body>
</html>`

func parsePage(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(pageHTML))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

type harness struct {
	m      *Manager
	doc    *dom.Document
	scheme *fakeScheme
	store  *memStore
}

func newHarness(t *testing.T, dark bool, additional ...string) *harness {
	t.Helper()
	h := &harness{doc: parsePage(t), scheme: newFakeScheme(dark), store: newMemStore()}
	h.m = New(Config{
		Document:         h.doc,
		ColorScheme:      h.scheme,
		Open:             openMem(h.store),
		AdditionalThemes: additional,
	})
	waitReady(t, h.m)
	t.Cleanup(func() { _ = h.m.Close() })
	return h
}

func waitReady(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil && !errors.Is(err, errOpen) {
		t.Fatalf("Wait returned error: %v", err)
	}
}

var errOpen = errors.New("open failed")

// themeClasses returns the allowed-set tokens on the root class list.
func themeClasses(m *Manager) []string {
	var out []string
	for _, c := range m.Document().Root().Classes() {
		if m.Allowed(c) {
			out = append(out, c)
		}
	}
	return out
}

func markedTokens(doc *dom.Document) []string {
	var out []string
	for _, el := range doc.QueryAll(AttrThemeName) {
		if v, ok := el.Attr(AttrAriaCurrent); ok && v == "true" {
			token, _ := el.Attr(AttrThemeName)
			out = append(out, token)
		}
	}
	return out
}

func TestNewBuildsThemeSet(t *testing.T) {
	h := newHarness(t, false, "solarized", "dark", " ", "nord")
	want := []string{"dark", "light", "nord", "solarized", "system"}
	if got := h.m.Themes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Themes() = %v, want %v", got, want)
	}
}

func TestInitialLoadWithoutRecordAppliesSystem(t *testing.T) {
	h := newHarness(t, true)

	if h.m.State() != StateReady {
		t.Fatalf("State() = %s, want ready", h.m.State())
	}
	if got := h.m.Current(); got != Dark {
		t.Fatalf("Current() = %q, want dark", got)
	}
	if got := h.m.Selection(); got != System {
		t.Fatalf("Selection() = %q, want system", got)
	}
	if v, ok := h.store.value(); !ok || v != Dark {
		t.Fatalf("stored value = %q (%v), want dark", v, ok)
	}
}

func TestUnknownThemesResolveLikeSystem(t *testing.T) {
	for _, dark := range []bool{false, true} {
		for _, requested := range []string{"", "garbage", "SYSTEM", " dark", "solarized"} {
			h := newHarness(t, dark)
			want := h.m.Resolve(System)

			got := h.m.Resolve(requested)
			if got.Theme != want.Theme {
				t.Errorf("dark=%v Resolve(%q) = %q, want %q", dark, requested, got.Theme, want.Theme)
			}
			if !got.Outcome.Has(CoercedToDefault) || !got.Outcome.Has(ResolvedFromSystem) {
				t.Errorf("Resolve(%q) outcome = %s, want coerced|system", requested, got.Outcome)
			}
			if h.m.Selection() != System {
				t.Errorf("Selection() after %q = %q, want system", requested, h.m.Selection())
			}
		}
	}
}

func TestExactlyOneThemeClassAfterResolution(t *testing.T) {
	h := newHarness(t, true, "solarized")
	for _, requested := range []string{"light", "dark", "solarized", "system", "nope", "light"} {
		res := h.m.Resolve(requested)
		classes := themeClasses(h.m)
		if len(classes) != 1 || classes[0] != res.Theme {
			t.Fatalf("after %q theme classes = %v, want [%s]", requested, classes, res.Theme)
		}
		if got := h.m.Current(); got != res.Theme {
			t.Fatalf("Current() = %q, want %q", got, res.Theme)
		}
		if !h.doc.Root().HasClass("js") {
			t.Fatal("unrelated root classes must survive")
		}
	}
}

func TestSystemResolution(t *testing.T) {
	cases := []struct {
		dark bool
		want string
	}{
		{true, Dark},
		{false, Light},
	}
	for _, tc := range cases {
		h := newHarness(t, tc.dark)
		res := h.m.Resolve(System)
		if res.Theme != tc.want {
			t.Fatalf("dark=%v Resolve(system) = %q, want %q", tc.dark, res.Theme, tc.want)
		}
		if res.Theme == System {
			t.Fatal("resolution must never return system")
		}
		if v, _ := h.store.value(); v != tc.want {
			t.Fatalf("stored value = %q, want %q", v, tc.want)
		}
		if !res.Outcome.Has(Persisted) {
			t.Fatalf("outcome = %s, want persisted", res.Outcome)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	h := newHarness(t, false)
	h.doc.Root().AddClass("zz-last")

	h.m.Resolve(Dark)
	before := h.doc.String()
	stored, _ := h.store.value()

	h.m.Resolve(Dark)
	if after := h.doc.String(); after != before {
		t.Fatalf("document changed on repeated resolution:\nbefore: %s\nafter:  %s", before, after)
	}
	if again, _ := h.store.value(); again != stored {
		t.Fatalf("stored value changed: %q -> %q", stored, again)
	}
}

func TestRoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme-db.sqlite")

	first := New(Config{Document: dom.New(), ColorScheme: newFakeScheme(false), Open: SQLiteOpener(path)})
	waitReady(t, first)
	if got := first.SetCurrent(Dark); got.Theme != Dark || !got.Outcome.Has(Persisted) {
		t.Fatalf("SetCurrent(dark) = %+v", got)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	second := New(Config{Document: dom.New(), ColorScheme: newFakeScheme(false), Open: SQLiteOpener(path)})
	t.Cleanup(func() { _ = second.Close() })
	waitReady(t, second)

	if got := second.Current(); got != Dark {
		t.Fatalf("Current() after restart = %q, want dark", got)
	}
	if got := second.Resolved(); got != Dark {
		t.Fatalf("Resolved() after restart = %q, want dark", got)
	}
}

func TestAdditionalThemeAccepted(t *testing.T) {
	h := newHarness(t, false, "solarized")

	res := h.m.SetCurrent("solarized")
	if res.Theme != "solarized" || res.Outcome.Has(CoercedToDefault) {
		t.Fatalf("SetCurrent(solarized) = %+v", res)
	}
	if !h.doc.Root().HasClass("solarized") || h.m.Current() != "solarized" {
		t.Fatal("expected solarized class and attribute on root")
	}
	if v, _ := h.store.value(); v != "solarized" {
		t.Fatalf("stored value = %q, want solarized", v)
	}
}

func TestToggle(t *testing.T) {
	h := newHarness(t, false, "solarized")
	h.m.InitToggleButton()
	toggle := h.doc.QueryAll(AttrThemeToggle)[0]

	cases := []struct {
		from string
		want string
	}{
		{"solarized", Dark},
		{Dark, Light},
		{Light, Dark},
	}
	for _, tc := range cases {
		h.m.SetCurrent(tc.from)
		if !toggle.Click() {
			t.Fatal("toggle has no click listener")
		}
		if got := h.m.Current(); got != tc.want {
			t.Fatalf("toggle from %q = %q, want %q", tc.from, got, tc.want)
		}
	}
}

func TestToggleFromMissingAttribute(t *testing.T) {
	m := New(Config{Open: func(context.Context) (Store, error) {
		return nil, errOpen
	}})
	t.Cleanup(func() { _ = m.Close() })
	waitReady(t, m)
	m.Document().Root().RemoveAttr(AttrTheme)

	if got := m.Toggle().Theme; got != Dark {
		t.Fatalf("Toggle() from unset attribute = %q, want dark", got)
	}
}

func TestIndicatorSync(t *testing.T) {
	h := newHarness(t, false, "solarized")

	h.m.SetCurrent(Dark)
	if got := markedTokens(h.doc); !reflect.DeepEqual(got, []string{"dark", "dark"}) {
		t.Fatalf("marked tokens = %v, want both dark selectors", got)
	}

	h.m.SetCurrent("solarized")
	if got := markedTokens(h.doc); !reflect.DeepEqual(got, []string{"solarized"}) {
		t.Fatalf("marked tokens = %v, want [solarized]", got)
	}

	h.m.UpdateAriaCurrent("none")
	if got := markedTokens(h.doc); len(got) != 0 {
		t.Fatalf("marked tokens = %v, want none", got)
	}
}

func TestInitButtons(t *testing.T) {
	h := newHarness(t, true, "solarized")
	h.m.InitButtons()

	// Indicators reflect the active theme before any click.
	if got := markedTokens(h.doc); !reflect.DeepEqual(got, []string{"dark", "dark"}) {
		t.Fatalf("marked tokens after init = %v", got)
	}

	buttons := h.doc.QueryAll(AttrThemeName)
	buttons[0].Click()
	if h.m.Current() != Light {
		t.Fatalf("Current() after light click = %q", h.m.Current())
	}
	if got := markedTokens(h.doc); !reflect.DeepEqual(got, []string{"light"}) {
		t.Fatalf("marked tokens after light click = %v", got)
	}

	buttons[4].Click()
	if h.m.Current() != "solarized" {
		t.Fatalf("Current() after solarized click = %q", h.m.Current())
	}

	buttons[3].Click()
	if h.m.Current() != Dark || h.m.Selection() != System {
		t.Fatalf("system click: current=%q selection=%q", h.m.Current(), h.m.Selection())
	}
}

func TestSelectorWithoutTokenSelectsSystem(t *testing.T) {
	doc, err := dom.Parse(strings.NewReader(`<html><body><button data-theme-name>Auto</button></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := New(Config{Document: doc, ColorScheme: newFakeScheme(true), Open: openMem(newMemStore())})
	t.Cleanup(func() { _ = m.Close() })
	waitReady(t, m)
	m.InitButtons()
	m.SetCurrent(Light)

	doc.QueryAll(AttrThemeName)[0].Click()
	if m.Selection() != System || m.Current() != Dark {
		t.Fatalf("selection=%q current=%q, want system/dark", m.Selection(), m.Current())
	}
}

func TestPersistFailureKeepsDocumentState(t *testing.T) {
	h := newHarness(t, false)
	h.store.mu.Lock()
	h.store.putErr = errors.New("disk full")
	h.store.mu.Unlock()

	res := h.m.SetCurrent(Dark)
	if !res.Outcome.Has(PersistFailed) || res.Err == nil {
		t.Fatalf("outcome = %s err = %v, want persist-failed", res.Outcome, res.Err)
	}
	if h.m.Current() != Dark {
		t.Fatal("document change must not be rolled back")
	}
	if v, _ := h.store.value(); v != Light {
		t.Fatalf("stored value = %q, want the previous light", v)
	}
}

func TestWritesBeforeReadyAreSkipped(t *testing.T) {
	release := make(chan struct{})
	mem := newMemStore()
	mem.records[store.ThemeKey] = "light"

	m := New(Config{
		Document:    dom.New(),
		ColorScheme: newFakeScheme(false),
		Open: func(ctx context.Context) (Store, error) {
			select {
			case <-release:
				return mem, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
	t.Cleanup(func() { _ = m.Close() })

	if m.State() != StateOpening {
		t.Fatalf("State() = %s, want opening", m.State())
	}
	if got := m.Current(); got != System {
		t.Fatalf("Current() before ready = %q, want system", got)
	}

	res := m.SetCurrent(Dark)
	if !res.Outcome.Has(PersistSkipped) {
		t.Fatalf("outcome before ready = %s, want persist-skipped", res.Outcome)
	}

	close(release)
	waitReady(t, m)

	// The saved record wins over the unsaved early selection.
	if got := m.Current(); got != Light {
		t.Fatalf("Current() after ready = %q, want saved light", got)
	}
	if mem.puts != 1 {
		t.Fatalf("puts = %d, want only the load write", mem.puts)
	}
}

func TestOpenFailureStillResolves(t *testing.T) {
	m := New(Config{
		Document:    dom.New(),
		ColorScheme: newFakeScheme(true),
		Open:        func(context.Context) (Store, error) { return nil, errOpen },
	})
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Wait(ctx); !errors.Is(err, errOpen) {
		t.Fatalf("Wait() = %v, want open error", err)
	}
	if m.State() != StateFailed {
		t.Fatalf("State() = %s, want failed", m.State())
	}
	if m.Current() != Dark {
		t.Fatalf("Current() = %q, want dark", m.Current())
	}
	if res := m.SetCurrent(Light); !res.Outcome.Has(PersistSkipped) {
		t.Fatalf("outcome without store = %s, want persist-skipped", res.Outcome)
	}
}

func TestReadFailureAppliesSystem(t *testing.T) {
	mem := newMemStore()
	mem.getErr = errors.New("corrupt")
	m := New(Config{Document: dom.New(), ColorScheme: newFakeScheme(false), Open: openMem(mem)})
	t.Cleanup(func() { _ = m.Close() })
	waitReady(t, m)

	if m.State() != StateReady || m.Current() != Light {
		t.Fatalf("state=%s current=%q, want ready/light", m.State(), m.Current())
	}
}

func TestSchemeChangeFollowsSystemSelection(t *testing.T) {
	h := newHarness(t, false)
	h.m.InitButtons()
	h.m.SetCurrent(System)

	h.scheme.set(true)
	if h.m.Current() != Dark {
		t.Fatalf("Current() after OS switch = %q, want dark", h.m.Current())
	}
	if v, _ := h.store.value(); v != Dark {
		t.Fatalf("stored value = %q, want dark", v)
	}
	if got := markedTokens(h.doc); !reflect.DeepEqual(got, []string{"dark", "dark"}) {
		t.Fatalf("marked tokens = %v", got)
	}

	h.m.SetCurrent(Light)
	h.scheme.set(false)
	h.scheme.set(true)
	if h.m.Current() != Light {
		t.Fatalf("explicit selection must ignore OS changes, got %q", h.m.Current())
	}
}

func TestCloseReleasesResources(t *testing.T) {
	h := newHarness(t, false)
	if h.scheme.subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", h.scheme.subscribers())
	}
	if err := h.m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := h.m.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if h.scheme.subscribers() != 0 {
		t.Fatal("expected color-scheme subscription removed")
	}
	if !h.store.closed {
		t.Fatal("expected store closed")
	}
}

func TestCloseWhileOpening(t *testing.T) {
	m := New(Config{Open: func(ctx context.Context) (Store, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if m.State() != StateFailed {
		t.Fatalf("State() = %s, want failed", m.State())
	}
}

func TestOutcomeString(t *testing.T) {
	if got := (CoercedToDefault | ResolvedFromSystem | Persisted).String(); got != "coerced|system|persisted" {
		t.Fatalf("String() = %q", got)
	}
	if got := Outcome(0).String(); got != "none" {
		t.Fatalf("String() = %q", got)
	}
}

func TestLastResult(t *testing.T) {
	h := newHarness(t, false)
	h.m.SetCurrent("bogus")
	last := h.m.LastResult()
	if last.Requested != "bogus" || last.Theme != Light || !last.Outcome.Has(CoercedToDefault) {
		t.Fatalf("LastResult() = %+v", last)
	}
}
