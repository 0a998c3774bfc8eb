// Package theme manages the active UI theme of a document: it validates
// requested themes against a fixed set, resolves "system" through the OS
// color-scheme signal, projects the result onto the document root and
// persists it in the theme store.
package theme

import (
	"context"
	"sort"
	"strings"

	"themekeeper/internal/store"
)

// Built-in theme identifiers.
const (
	System = "system"
	Dark   = "dark"
	Light  = "light"
)

// Document attributes read and written by the manager.
const (
	AttrTheme       = "data-theme"
	AttrThemeName   = "data-theme-name"
	AttrThemeToggle = "data-theme-toggle"
	AttrAriaCurrent = "aria-current"
)

// ColorScheme is the OS dark-mode signal.
type ColorScheme interface {
	// Matches reports whether the system prefers a dark scheme.
	Matches() bool
	// OnChange subscribes to preference changes and returns an unsubscribe func.
	OnChange(fn func(prefersDark bool)) func()
}

// Store persists the theme record.
type Store interface {
	Get(ctx context.Context, id string) (store.Record, bool, error)
	Put(ctx context.Context, rec store.Record) error
	Close() error
}

// OpenFunc opens the theme store. It runs on a background goroutine.
type OpenFunc func(ctx context.Context) (Store, error)

// SQLiteOpener returns an OpenFunc for the SQLite database at path.
func SQLiteOpener(path string) OpenFunc {
	return func(ctx context.Context) (Store, error) {
		s, err := store.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// State is the store initialization state of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateOpening
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Outcome is a set of flags describing what a resolution did.
type Outcome uint8

const (
	// CoercedToDefault: the requested theme was not allowed and "system" was used.
	CoercedToDefault Outcome = 1 << iota
	// ResolvedFromSystem: the theme came from the OS color-scheme signal.
	ResolvedFromSystem
	// Persisted: the store accepted the write.
	Persisted
	// PersistSkipped: no store was ready, nothing was written.
	PersistSkipped
	// PersistFailed: the store write returned an error (see Result.Err).
	PersistFailed
)

var outcomeNames = []struct {
	flag Outcome
	name string
}{
	{CoercedToDefault, "coerced"},
	{ResolvedFromSystem, "system"},
	{Persisted, "persisted"},
	{PersistSkipped, "persist-skipped"},
	{PersistFailed, "persist-failed"},
}

// Has reports whether flag is set.
func (o Outcome) Has(flag Outcome) bool {
	return o&flag != 0
}

func (o Outcome) String() string {
	var parts []string
	for _, n := range outcomeNames {
		if o.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Result describes one theme resolution.
type Result struct {
	// Requested is the value passed by the caller.
	Requested string
	// Theme is the concrete theme applied to the document. Never "system".
	Theme   string
	Outcome Outcome
	// Err holds the store error when Outcome has PersistFailed.
	Err error
}

func newThemeSet(additional []string) map[string]struct{} {
	set := map[string]struct{}{System: {}, Dark: {}, Light: {}}
	for _, name := range additional {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

func sortedThemes(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
