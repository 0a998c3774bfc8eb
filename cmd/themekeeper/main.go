package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"themekeeper/internal/config"
	"themekeeper/internal/debug"
	"themekeeper/internal/store"
	"themekeeper/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

const usage = `Usage: themekeeper [flags] [command]

Commands:
  ui                      Interactive theme picker (default)
  get                     Print the current theme
  set <theme>             Select a theme ("system" follows the OS)
  toggle                  Flip between light and dark
  list                    List allowed themes
  apply <in.html> [out]   Apply the saved theme to an HTML document
  status                  Show a status report
  themes add <name>...    Allow additional themes

Flags:
`

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	versionFlag := flag.Bool("version", false, "Print version information and exit")
	dbPathFlag := flag.String("db-path", config.GetString(config.KeyDatabasePath), "Path to the theme database file")
	themesFlag := flag.String("themes", strings.Join(config.GetStringSlice(config.KeyThemes), ","), "Comma separated additional theme names")
	colorSchemeFlag := flag.String("color-scheme", config.GetString(config.KeyColorScheme), "System color scheme: auto, dark or light")
	outputFormatFlag := flag.String("output-format", config.GetString(config.KeyOutputFormat), "Status report style (rich, plain)")
	debugFlag := flag.Bool("debug", config.GetBool(config.KeyDebug), "Write a debug log to ~/.themekeeper/debug.log")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag {
		printVersion(os.Stdout)
		os.Exit(0)
	}

	visited := map[string]struct{}{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = struct{}{}
	})
	overrides := map[string]any{}
	if flagWasExplicitlySet("db-path", visited) {
		overrides[config.KeyDatabasePath] = *dbPathFlag
	}
	if flagWasExplicitlySet("themes", visited) {
		overrides[config.KeyThemes] = splitList(*themesFlag)
	}
	if flagWasExplicitlySet("color-scheme", visited) {
		overrides[config.KeyColorScheme] = *colorSchemeFlag
	}
	if flagWasExplicitlySet("output-format", visited) {
		overrides[config.KeyOutputFormat] = *outputFormatFlag
	}
	if flagWasExplicitlySet("debug", visited) {
		overrides[config.KeyDebug] = *debugFlag
	}
	if err := config.ApplyOverrides(overrides); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := debug.Init(config.GetBool(config.KeyDebug)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log disabled: %v\n", err)
	}

	opts, err := loadRuntimeOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	env := runEnv{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		opts:    opts,
		runUI:   runProgram,
		version: Version,
	}
	code := run(context.Background(), flag.Args(), env)
	debug.Close()
	os.Exit(code)
}

// runtimeOptions is the effective configuration after flags were applied.
type runtimeOptions struct {
	dbPath         string
	themes         []string
	colorScheme    string
	detectInterval time.Duration
	outputFormat   string
}

func loadRuntimeOptions() (runtimeOptions, error) {
	dbPath := strings.TrimSpace(config.GetString(config.KeyDatabasePath))
	if dbPath == "" {
		path, err := store.DefaultPath()
		if err != nil {
			return runtimeOptions{}, err
		}
		dbPath = path
	}
	return runtimeOptions{
		dbPath:         dbPath,
		themes:         config.GetStringSlice(config.KeyThemes),
		colorScheme:    strings.TrimSpace(config.GetString(config.KeyColorScheme)),
		detectInterval: config.GetDuration(config.KeyDetectInterval),
		outputFormat:   strings.TrimSpace(config.GetString(config.KeyOutputFormat)),
	}, nil
}

// runEnv carries the process dependencies so commands can be tested.
type runEnv struct {
	stdout  io.Writer
	stderr  io.Writer
	opts    runtimeOptions
	runUI   func(*ui.App) error
	version string
}

func runProgram(app *ui.App) error {
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

func flagWasExplicitlySet(name string, visited map[string]struct{}) bool {
	if _, ok := visited[name]; ok {
		return true
	}
	f := flag.CommandLine.Lookup(name)
	if f == nil {
		return false
	}
	return f.Value.String() != f.DefValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
