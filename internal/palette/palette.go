// Package palette maps theme identifiers to terminal colors.
package palette

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colors a front-end needs to draw one theme.
type Palette struct {
	Primary    lipgloss.Color // Active indicator, header background
	Accent     lipgloss.Color // Toggle control, highlights
	Text       lipgloss.Color
	TextMuted  lipgloss.Color
	Background lipgloss.Color
	Selected   lipgloss.Color // Cursor row background
	Border     lipgloss.Color
	// Dark is true for palettes meant for a dark background.
	Dark bool
}

var registry = struct {
	mu       sync.RWMutex
	palettes map[string]Palette
}{palettes: make(map[string]Palette)}

// Register adds or replaces the palette for name.
func Register(name string, p Palette) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.palettes[name] = p
}

// Lookup returns the palette registered for name.
func Lookup(name string) (Palette, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	p, ok := registry.palettes[name]
	return p, ok
}

// For returns the palette for name, falling back to the "dark" palette when
// darkFallback is set and to the "light" palette otherwise.
func For(name string, darkFallback bool) Palette {
	if p, ok := Lookup(name); ok {
		return p
	}
	if darkFallback {
		p, _ := Lookup("dark")
		return p
	}
	p, _ := Lookup("light")
	return p
}

// Available returns all registered palette names in sorted order.
func Available() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.palettes))
	for name := range registry.palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
