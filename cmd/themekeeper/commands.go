package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"themekeeper/internal/config"
	"themekeeper/internal/debug"
	"themekeeper/internal/dom"
	appErrors "themekeeper/internal/errors"
	"themekeeper/internal/system"
	"themekeeper/internal/theme"
	"themekeeper/internal/ui"
)

const storeWaitTimeout = 5 * time.Second

// run dispatches the command in args and returns the process exit code.
func run(ctx context.Context, args []string, env runEnv) int {
	cmd := "ui"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	var err error
	switch cmd {
	case "ui":
		err = runUI(ctx, env)
	case "get":
		err = runGet(ctx, env)
	case "set":
		err = runSet(ctx, args, env)
	case "toggle":
		err = runToggle(ctx, env)
	case "list":
		err = runList(ctx, env)
	case "apply":
		err = runApply(ctx, args, env)
	case "status":
		err = runStatus(ctx, env)
	case "themes":
		err = runThemes(args, env)
	default:
		err = appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("unknown command %q", cmd), nil)
	}
	if err != nil {
		debug.Errorw("command failed", "command", cmd, "code", string(appErrors.CodeOf(err)), "error", err)
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newManager opens a manager on doc with the configured color scheme and store.
func newManager(opts runtimeOptions, doc *dom.Document) (*theme.Manager, *system.MediaQuery) {
	mq := system.NewMediaQuery(system.DefaultDetectors(opts.colorScheme)...)
	debug.Logf("color scheme: prefersDark=%t source=%q", mq.Matches(), mq.Source())
	mgr := theme.New(theme.Config{
		Document:         doc,
		ColorScheme:      mq,
		Open:             theme.SQLiteOpener(opts.dbPath),
		AdditionalThemes: opts.themes,
	})
	return mgr, mq
}

// waitForStore blocks until the manager finished loading. A store that failed
// to open is reported as a warning; the manager still applied a theme.
func waitForStore(ctx context.Context, mgr *theme.Manager, stderr io.Writer) error {
	waitCtx, cancel := context.WithTimeout(ctx, storeWaitTimeout)
	defer cancel()
	if err := mgr.Wait(waitCtx); err != nil {
		return appErrors.New(appErrors.CodeStoreNotReady, "theme store did not become ready", err)
	}
	if err := mgr.Err(); err != nil {
		fmt.Fprintf(stderr, "Warning: theme store unavailable, changes will not be saved: %v\n", err)
	}
	return nil
}

func reportResult(res theme.Result, stderr io.Writer) {
	if res.Outcome.Has(theme.CoercedToDefault) {
		fmt.Fprintf(stderr, "Unknown theme %q, using %s\n", res.Requested, theme.System)
	}
	if res.Outcome.Has(theme.PersistFailed) {
		fmt.Fprintf(stderr, "Warning: theme applied but not saved: %v\n", res.Err)
	}
}

func runGet(ctx context.Context, env runEnv) error {
	mgr, _ := newManager(env.opts, dom.New())
	defer mgr.Close()
	if err := waitForStore(ctx, mgr, env.stderr); err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, mgr.Current())
	return nil
}

func runSet(ctx context.Context, args []string, env runEnv) error {
	if len(args) != 1 {
		return appErrors.New(appErrors.CodeInvalidTheme, "usage: themekeeper set <theme>", nil)
	}
	mgr, _ := newManager(env.opts, dom.New())
	defer mgr.Close()
	if err := waitForStore(ctx, mgr, env.stderr); err != nil {
		return err
	}
	res := mgr.SetCurrent(args[0])
	reportResult(res, env.stderr)
	fmt.Fprintln(env.stdout, res.Theme)
	return nil
}

func runToggle(ctx context.Context, env runEnv) error {
	doc := dom.New()
	toggle := doc.CreateElement("button")
	toggle.SetAttr(theme.AttrThemeToggle, "")
	doc.Body().AppendChild(toggle)

	mgr, _ := newManager(env.opts, doc)
	defer mgr.Close()
	mgr.InitToggleButton()
	if err := waitForStore(ctx, mgr, env.stderr); err != nil {
		return err
	}
	toggle.Click()
	reportResult(mgr.LastResult(), env.stderr)
	fmt.Fprintln(env.stdout, mgr.Current())
	return nil
}

func runList(ctx context.Context, env runEnv) error {
	mgr, _ := newManager(env.opts, dom.New())
	defer mgr.Close()
	if err := waitForStore(ctx, mgr, env.stderr); err != nil {
		return err
	}
	selection := mgr.Selection()
	for _, name := range mgr.Themes() {
		marker := " "
		if name == selection {
			marker = "*"
		}
		line := marker + " " + name
		if name == theme.System && selection == theme.System {
			line += " (" + mgr.Resolved() + ")"
		}
		fmt.Fprintln(env.stdout, line)
	}
	return nil
}

func runApply(ctx context.Context, args []string, env runEnv) error {
	if len(args) < 1 || len(args) > 2 {
		return appErrors.New(appErrors.CodeConfigurationError, "usage: themekeeper apply <in.html> [out.html]", nil)
	}
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	doc, err := dom.Parse(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	mgr, _ := newManager(env.opts, doc)
	defer mgr.Close()
	mgr.InitButtons()
	mgr.InitToggleButton()
	if err := waitForStore(ctx, mgr, env.stderr); err != nil {
		return err
	}

	if len(args) == 1 {
		return doc.Render(env.stdout)
	}
	out, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := doc.Render(out); err != nil {
		out.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return out.Close()
}

func runThemes(args []string, env runEnv) error {
	if len(args) < 2 || args[0] != "add" {
		return appErrors.New(appErrors.CodeConfigurationError, "usage: themekeeper themes add <name>...", nil)
	}
	names := splitList(strings.Join(args[1:], ","))
	if len(names) == 0 {
		return appErrors.New(appErrors.CodeInvalidTheme, "no theme names given", nil)
	}
	saved, err := config.SaveAdditionalThemes(names)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "Additional themes: %s\n", strings.Join(saved, ", "))
	return nil
}

func runUI(ctx context.Context, env runEnv) error {
	doc := dom.New()
	mgr, mq := newManager(env.opts, doc)
	defer mgr.Close()
	ui.AppendControls(doc, mgr.Themes())

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go mq.Watch(watchCtx, env.opts.detectInterval)

	app, err := ui.NewApp(ui.Config{Manager: mgr, Version: env.version})
	if err != nil {
		return err
	}
	return env.runUI(app)
}
