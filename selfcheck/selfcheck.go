// Package selfcheck implements the --test diagnostic: it checks library
// versions, the built-in themes and the compiled-in configuration without
// opening a window.
package selfcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pkt.systems/pslog"

	"github.com/javanhut/svte/app"
	"github.com/javanhut/svte/config"
	"github.com/javanhut/svte/keybind"
	"github.com/javanhut/svte/tab"
	"github.com/javanhut/svte/theme"
)

// VersionSource returns a version string.
type VersionSource func() (string, error)

// Options supplies the environment-dependent parts of the check.
type Options struct {
	// ToolkitVersion reports the windowing toolkit version.
	ToolkitVersion VersionSource
	// EngineVersion reports the terminal emulation library version.
	EngineVersion VersionSource
	Logger        pslog.Logger
}

// Result is the outcome of one check.
type Result struct {
	Name   string
	OK     bool
	Detail string
}

// Report collects check results.
type Report struct {
	Results []Result
}

// Failed returns the number of failed checks.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK {
			n++
		}
	}
	return n
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	return len(r.Results) > 0 && r.Failed() == 0
}

// ExitCode is 0 when every check passed and 1 otherwise.
func (r Report) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}

var errNoVersionSource = errors.New("no version source configured")

// Run performs every check, writing one line per check and a summary to w.
func Run(w io.Writer, opts Options) Report {
	log := opts.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}

	var report Report
	record := func(name string, detail string, err error) {
		res := Result{Name: name, OK: err == nil, Detail: detail}
		status := "PASS"
		if err != nil {
			status = "FAIL"
			res.Detail = err.Error()
			log.With("err", err).Warn("self-check failed", "check", name)
		}
		report.Results = append(report.Results, res)
		fmt.Fprintf(w, "%s %s: %s\n", status, name, res.Detail)
	}

	v, err := readVersion(opts.ToolkitVersion)
	record("toolkit version", v, err)
	v, err = readVersion(opts.EngineVersion)
	record("terminal engine version", v, err)

	for _, name := range theme.Names() {
		record("theme "+name, "16 colors, fg/bg opaque", checkTheme(name))
	}
	record("theme fallback", "unknown names resolve to "+theme.DefaultName, checkFallback())

	cfg, err := config.Default()
	detail := ""
	if err == nil {
		detail = fmt.Sprintf("%dx%d, %s %g, %d lines scrollback", cfg.WindowWidth, cfg.WindowHeight, cfg.FontName, cfg.FontSize, cfg.ScrollbackLines)
	}
	record("default configuration", detail, err)

	if cfg != nil {
		n, err := checkBindings(cfg)
		record("key bindings", fmt.Sprintf("%d accelerators", n), err)
		record("application", "constructed with stub sessions", checkApp(cfg, log))
	}

	fmt.Fprintf(w, "%d checks, %d failed\n", len(report.Results), report.Failed())
	return report
}

func readVersion(src VersionSource) (string, error) {
	if src == nil {
		return "", errNoVersionSource
	}
	v, err := src()
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errors.New("empty version")
	}
	return v, nil
}

func checkTheme(name string) error {
	t := theme.Resolve(name)
	if t.Name != name {
		return fmt.Errorf("resolved to %q", t.Name)
	}
	return theme.Validate(t)
}

func checkFallback() error {
	got := theme.Resolve("svte-self-check-unknown")
	if got != theme.Default() {
		return fmt.Errorf("fallback resolved to %q", got.Name)
	}
	return nil
}

// checkBindings parses every accelerator and confirms each one dispatches
// back to its own action.
func checkBindings(cfg *config.Config) (int, error) {
	accels, err := cfg.Accelerators()
	if err != nil {
		return 0, err
	}
	table, err := keybind.NewTable(accels)
	if err != nil {
		return 0, err
	}
	bindings := table.Bindings()
	for _, b := range bindings {
		if got, ok := table.Dispatch(b.Mods, b.Key); !ok || got != b.Action {
			return 0, fmt.Errorf("%s dispatches to %s", b, got)
		}
	}
	if len(bindings) == 0 {
		return 0, errors.New("no key bindings")
	}
	return len(bindings), nil
}

func checkApp(cfg *config.Config, log pslog.Logger) error {
	a, err := app.New(cfg, func(tab.ID, func(tab.Event)) tab.Session {
		return stubSession{}
	}, app.WithLogger(log))
	if err != nil {
		return err
	}
	if a.Tabs().Len() != 0 || a.Done() {
		return errors.New("new application is not idle")
	}
	return nil
}

type stubSession struct{}

func (stubSession) SetColors(theme.Color, theme.Color, theme.Palette) {}
func (stubSession) SetFont(string, float64)                           {}
func (stubSession) SetScrollback(int)                                 {}
func (stubSession) Spawn(string)                                      {}
func (stubSession) Resize(int, int)                                   {}
func (stubSession) SendKey(keybind.Modifier, keybind.Key)             {}
func (stubSession) SendText(rune)                                     {}
func (stubSession) CopySelection()                                    {}
func (stubSession) PasteClipboard()                                   {}
func (stubSession) Destroy()                                          {}
