package main

import (
	"context"
	"fmt"
	"strings"

	"themekeeper/internal/dom"
	"themekeeper/internal/palette"
	"themekeeper/internal/theme"

	"github.com/charmbracelet/glamour"
)

const statusWrapWidth = 80

type statusReport struct {
	selection   string
	resolved    string
	systemDark  bool
	source      string
	state       string
	storeErr    error
	dbPath      string
	themes      []string
	colorScheme string
}

func runStatus(ctx context.Context, env runEnv) error {
	mgr, mq := newManager(env.opts, dom.New())
	defer mgr.Close()
	if err := waitForStore(ctx, mgr, env.stderr); err != nil {
		return err
	}

	report := statusReport{
		selection:   mgr.Selection(),
		resolved:    mgr.Resolved(),
		systemDark:  mq.Matches(),
		source:      mq.Source(),
		state:       mgr.State().String(),
		storeErr:    mgr.Err(),
		dbPath:      env.opts.dbPath,
		themes:      mgr.Themes(),
		colorScheme: env.opts.colorScheme,
	}
	markdown := report.markdown()

	dark := palette.For(report.resolved, report.systemDark).Dark
	fmt.Fprintln(env.stdout, renderMarkdown(markdown, env.opts.outputFormat, dark))
	return nil
}

func (r statusReport) markdown() string {
	var b strings.Builder
	b.WriteString("# Theme status\n\n")
	b.WriteString("| Setting | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Selection | %s |\n", r.selection)
	fmt.Fprintf(&b, "| Applied | %s |\n", r.resolved)

	scheme := theme.Light
	if r.systemDark {
		scheme = theme.Dark
	}
	source := r.source
	if source == "" {
		source = "fallback"
	}
	fmt.Fprintf(&b, "| System | %s (%s) |\n", scheme, source)
	if r.colorScheme != "" {
		fmt.Fprintf(&b, "| Color scheme setting | %s |\n", r.colorScheme)
	}

	store := r.state
	if r.storeErr != nil {
		store += ": " + r.storeErr.Error()
	}
	fmt.Fprintf(&b, "| Store | %s |\n", escapeCell(store))
	fmt.Fprintf(&b, "| Database | `%s` |\n", r.dbPath)
	fmt.Fprintf(&b, "| Themes | %s |\n", strings.Join(r.themes, ", "))
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// renderMarkdown renders input with glamour in the style matching the applied
// theme. The "plain" format returns input unchanged.
func renderMarkdown(input, format string, dark bool) string {
	style := strings.ToLower(strings.TrimSpace(format))
	if style == "plain" {
		return strings.TrimRight(input, "\n")
	}
	if style == "" || style == "rich" {
		style = "light"
		if dark {
			style = "dark"
		}
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(statusWrapWidth),
	)
	if err != nil {
		return strings.TrimRight(input, "\n")
	}
	out, err := renderer.Render(input)
	if err != nil {
		return strings.TrimRight(input, "\n")
	}
	return strings.TrimSpace(out)
}
