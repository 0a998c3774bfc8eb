// Package system reports the operating system's dark color-scheme
// preference, the equivalent of a "(prefers-color-scheme: dark)" media query.
package system

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// EnvVar forces the detected scheme when set to "dark" or "light".
const EnvVar = "THEMEKEEPER_COLOR_SCHEME"

const commandTimeout = time.Second

// Detector reports one source of the color-scheme preference.
// ok is false when the source is unavailable or inconclusive.
type Detector interface {
	Name() string
	Detect() (prefersDark bool, ok bool)
}

// Static always reports the given preference.
type Static bool

func (s Static) Name() string { return "static" }

func (s Static) Detect() (bool, bool) { return bool(s), true }

// EnvDetector reads EnvVar.
type EnvDetector struct {
	lookup func(string) (string, bool)
}

// NewEnvDetector returns a detector reading the process environment.
func NewEnvDetector() EnvDetector {
	return EnvDetector{lookup: os.LookupEnv}
}

func (d EnvDetector) Name() string { return "env" }

func (d EnvDetector) Detect() (bool, bool) {
	lookup := d.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(EnvVar)
	if !ok {
		return false, false
	}
	return parseScheme(v)
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	//nolint:gosec // G204: fixed command names, arguments are constants
	return exec.CommandContext(ctx, name, args...).Output()
}

// DesktopDetector asks the desktop environment: AppleInterfaceStyle on macOS,
// the GNOME color-scheme (then gtk-theme) setting on Linux.
type DesktopDetector struct {
	goos string
	run  CommandRunner
}

// NewDesktopDetector returns a detector for the running platform.
func NewDesktopDetector() DesktopDetector {
	return DesktopDetector{goos: runtime.GOOS, run: execRunner}
}

func (d DesktopDetector) Name() string { return "desktop" }

func (d DesktopDetector) Detect() (bool, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch d.goos {
	case "darwin":
		out, err := d.run(ctx, "defaults", "read", "-g", "AppleInterfaceStyle")
		if err != nil {
			// The key is absent in light mode.
			return false, true
		}
		return strings.EqualFold(strings.TrimSpace(string(out)), "dark"), true
	case "linux":
		if out, err := d.run(ctx, "gsettings", "get", "org.gnome.desktop.interface", "color-scheme"); err == nil {
			lower := strings.ToLower(string(out))
			if strings.Contains(lower, "dark") {
				return true, true
			}
			if strings.Contains(lower, "light") {
				return false, true
			}
		}
		if out, err := d.run(ctx, "gsettings", "get", "org.gnome.desktop.interface", "gtk-theme"); err == nil {
			if strings.Contains(strings.ToLower(string(out)), "dark") {
				return true, true
			}
		}
	}
	return false, false
}

// TerminalDetector infers the preference from the terminal background color.
// Querying a non-terminal would block on the OSC reply, so it only runs on a TTY.
type TerminalDetector struct {
	isTTY  func() bool
	output *termenv.Output
}

// NewTerminalDetector queries the terminal attached to stdout.
func NewTerminalDetector() TerminalDetector {
	return TerminalDetector{
		isTTY: func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		output: termenv.NewOutput(os.Stdout),
	}
}

func (d TerminalDetector) Name() string { return "terminal" }

func (d TerminalDetector) Detect() (bool, bool) {
	if d.output == nil || d.isTTY == nil || !d.isTTY() {
		return false, false
	}
	return d.output.HasDarkBackground(), true
}

// DefaultDetectors returns the detector chain for scheme, which is one of
// "auto", "dark" or "light". Unknown values behave like "auto".
func DefaultDetectors(scheme string) []Detector {
	if dark, ok := parseScheme(scheme); ok {
		return []Detector{Static(dark)}
	}
	return []Detector{NewEnvDetector(), NewDesktopDetector(), NewTerminalDetector()}
}

func parseScheme(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "dark":
		return true, true
	case "light":
		return false, true
	}
	return false, false
}
