// Package app holds the top-level state of a window: configuration, theme,
// key bindings and tabs. Key presses are routed through the binding table
// to tab actions; session notifications are queued and applied on the
// event loop.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"pkt.systems/pslog"

	"github.com/javanhut/svte/config"
	"github.com/javanhut/svte/keybind"
	"github.com/javanhut/svte/shell"
	"github.com/javanhut/svte/tab"
	"github.com/javanhut/svte/theme"
)

// SessionFactory creates the session for a new tab. notify is safe to call
// from any goroutine.
type SessionFactory func(id tab.ID, notify func(tab.Event)) tab.Session

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(log pslog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithWake sets the hook called after an event is posted, so a toolkit
// blocked waiting for input can return to the loop.
func WithWake(fn func()) Option {
	return func(a *App) { a.wake = fn }
}

// WithShell overrides how the program for a new tab is chosen.
func WithShell(fn func() string) Option {
	return func(a *App) { a.shell = fn }
}

// WithTheme overrides the configured color scheme.
func WithTheme(name string) Option {
	return func(a *App) { a.themeName = name }
}

// WithAction replaces the handler for a bound action.
func WithAction(action keybind.Action, fn func()) Option {
	return func(a *App) { a.overrides.actions[action] = fn }
}

// WithEventHandler replaces the handler for a session event kind.
func WithEventHandler(kind tab.EventKind, fn func(tab.Event)) Option {
	return func(a *App) { a.overrides.events[kind] = fn }
}

// App is the application state. Apart from Post, its methods must be
// called from the event loop.
type App struct {
	cfg       *config.Config
	theme     theme.Theme
	themeName string
	bindings  *keybind.Table
	tabs      *tab.Manager
	log       pslog.Logger
	wake      func()
	shell     func() string

	actions map[keybind.Action]func()
	events  map[tab.EventKind]func(tab.Event)

	overrides struct {
		actions map[keybind.Action]func()
		events  map[tab.EventKind]func(tab.Event)
	}

	mu    sync.Mutex
	queue []tab.Event
	done  atomic.Bool
}

// New builds the application. An invalid configuration or an accelerator
// that does not parse is an error.
func New(cfg *config.Config, factory SessionFactory, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: %w: nil configuration", config.ErrInvalidConfig)
	}
	if factory == nil {
		return nil, fmt.Errorf("app: nil session factory")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{cfg: cfg, themeName: cfg.ColorScheme}
	a.overrides.actions = make(map[keybind.Action]func())
	a.overrides.events = make(map[tab.EventKind]func(tab.Event))
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = pslog.Ctx(context.Background())
	}
	if a.shell == nil {
		fallback := cfg.ShellFallback
		a.shell = func() string { return shell.Resolve(fallback) }
	}

	accels, err := cfg.Accelerators()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.bindings, err = keybind.NewTable(accels)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	if !theme.Known(a.themeName) {
		a.log.Warn("unknown color scheme, using default", "scheme", a.themeName, "default", theme.DefaultName)
	}
	a.theme = theme.Resolve(a.themeName)

	a.tabs = tab.NewManager(func(id tab.ID) tab.Session {
		return factory(id, a.Post)
	}, tab.Options{
		Theme:      a.theme,
		FontFamily: cfg.FontName,
		FontSize:   cfg.FontSize,
		Scrollback: cfg.ScrollbackLines,
		Shell:      a.shell,
		OnShutdown: a.shutdown,
		Logger:     a.log,
	})

	a.actions = map[keybind.Action]func(){
		keybind.ActionNewTab:   func() { a.tabs.NewTab("") },
		keybind.ActionCloseTab: a.tabs.CloseCurrent,
		keybind.ActionNextTab:  a.tabs.NextTab,
		keybind.ActionPrevTab:  a.tabs.PrevTab,
		keybind.ActionCopy:     a.Copy,
		keybind.ActionPaste:    a.Paste,
	}
	for action, fn := range a.overrides.actions {
		a.actions[action] = fn
	}

	a.events = map[tab.EventKind]func(tab.Event){
		tab.EventExited: func(ev tab.Event) {
			a.tabs.OnSessionExited(ev.Tab, ev.ExitCode)
		},
		tab.EventTitleChanged: func(ev tab.Event) {
			a.tabs.OnTitleChanged(ev.Tab, ev.Title)
		},
		tab.EventSpawnFailed: func(ev tab.Event) {
			a.tabs.OnSpawnFailed(ev.Tab, ev.Err)
		},
	}
	for kind, fn := range a.overrides.events {
		a.events[kind] = fn
	}

	return a, nil
}

// Start opens the first tab.
func (a *App) Start() {
	a.log.Info("start", "theme", a.theme.Name, "font", a.cfg.FontName, "scrollback", a.cfg.ScrollbackLines)
	a.tabs.NewTab("")
}

// HandleKey routes a key press. It reports whether the press was consumed
// by a binding or a tab jump; otherwise it belongs to the current session.
func (a *App) HandleKey(mods keybind.Modifier, key keybind.Key) bool {
	if action, ok := a.bindings.Dispatch(mods, key); ok {
		a.log.Debug("action", "action", action.String())
		if fn := a.actions[action]; fn != nil {
			fn()
		}
		return true
	}
	if idx, ok := keybind.DigitJump(mods, key, a.tabs.Len()); ok {
		a.tabs.JumpTo(idx)
		return true
	}
	return false
}

// HandleRepeat routes an auto-repeated key press. Repeats of keys that
// trigger an action or a tab jump are swallowed, so a held shortcut fires
// once; other repeats belong to the current session.
func (a *App) HandleRepeat(mods keybind.Modifier, key keybind.Key) bool {
	if _, ok := a.bindings.Dispatch(mods, key); ok {
		return true
	}
	_, ok := keybind.DigitJump(mods, key, a.tabs.Len())
	return ok
}

// ForwardKey sends an unconsumed key press to the current session.
func (a *App) ForwardKey(mods keybind.Modifier, key keybind.Key) {
	if s := a.liveSession(); s != nil {
		s.SendKey(mods, key)
	}
}

// ForwardText sends typed text to the current session.
func (a *App) ForwardText(r rune) {
	if s := a.liveSession(); s != nil {
		s.SendText(r)
	}
}

// Copy copies the current session's selection to the clipboard.
func (a *App) Copy() {
	if t := a.tabs.Current(); t != nil {
		t.Session().CopySelection()
	}
}

// Paste pastes the clipboard into the current session.
func (a *App) Paste() {
	if s := a.liveSession(); s != nil {
		s.PasteClipboard()
	}
}

func (a *App) liveSession() tab.Session {
	t := a.tabs.Current()
	if t == nil || t.State() == tab.StateExited {
		return nil
	}
	return t.Session()
}

// Post queues a session event for the event loop. It may be called from
// any goroutine.
func (a *App) Post(ev tab.Event) {
	a.mu.Lock()
	a.queue = append(a.queue, ev)
	a.mu.Unlock()
	if a.wake != nil {
		a.wake()
	}
}

// Drain applies queued events and returns how many were handled.
func (a *App) Drain() int {
	a.mu.Lock()
	queue := a.queue
	a.queue = nil
	a.mu.Unlock()

	for _, ev := range queue {
		a.Dispatch(ev)
	}
	return len(queue)
}

// Dispatch applies one event immediately.
func (a *App) Dispatch(ev tab.Event) {
	fn := a.events[ev.Kind]
	if fn == nil {
		a.log.Debug("unhandled event", "kind", ev.Kind.String(), "tab", uint64(ev.Tab))
		return
	}
	fn(ev)
}

func (a *App) shutdown() {
	a.done.Store(true)
	if a.wake != nil {
		a.wake()
	}
}

// Done reports whether the application should quit.
func (a *App) Done() bool {
	return a.done.Load()
}

// Close destroys every remaining session.
func (a *App) Close() {
	a.tabs.DestroyAll()
}

// Tabs returns the tab manager.
func (a *App) Tabs() *tab.Manager { return a.tabs }

// Theme returns the resolved theme.
func (a *App) Theme() theme.Theme { return a.theme }

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Bindings returns the key binding table.
func (a *App) Bindings() *keybind.Table { return a.bindings }
