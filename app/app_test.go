package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"pkt.systems/pslog"

	"github.com/javanhut/svte/config"
	"github.com/javanhut/svte/keybind"
	"github.com/javanhut/svte/tab"
	"github.com/javanhut/svte/theme"
)

type fakeSession struct {
	id        tab.ID
	notify    func(tab.Event)
	fg        theme.Color
	spawned   string
	keys      []keybind.Key
	text      []rune
	copies    int
	pastes    int
	destroyed bool
}

func (s *fakeSession) SetColors(fg, _ theme.Color, _ theme.Palette) { s.fg = fg }
func (s *fakeSession) SetFont(string, float64)                      {}
func (s *fakeSession) SetScrollback(int)                            {}
func (s *fakeSession) Spawn(shell string)                           { s.spawned = shell }
func (s *fakeSession) Resize(int, int)                              {}
func (s *fakeSession) SendKey(_ keybind.Modifier, key keybind.Key)  { s.keys = append(s.keys, key) }
func (s *fakeSession) SendText(r rune)                              { s.text = append(s.text, r) }
func (s *fakeSession) CopySelection()                               { s.copies++ }
func (s *fakeSession) PasteClipboard()                              { s.pastes++ }
func (s *fakeSession) Destroy()                                     { s.destroyed = true }

type logEntry struct {
	Message string
	Fields  map[string]any
}

type logCapture struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	lines []string
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.buf.Write(p)
	for {
		data := c.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		c.lines = append(c.lines, string(data[:idx]))
		c.buf.Next(idx + 1)
	}
	return len(p), nil
}

func (c *logCapture) Entries() []logEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]logEntry, 0, len(c.lines))
	for _, line := range c.lines {
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			continue
		}
		msg, _ := payload["msg"].(string)
		if msg == "" {
			msg, _ = payload["message"].(string)
		}
		entries = append(entries, logEntry{Message: msg, Fields: payload})
	}
	return entries
}

func (c *logCapture) count(msg string) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

type fixture struct {
	app      *App
	sessions map[tab.ID]*fakeSession
	logs     *logCapture
	wakes    atomic.Int32
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return newFixtureWith(t, cfg, opts...)
}

func newFixtureWith(t *testing.T, cfg *config.Config, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{sessions: make(map[tab.ID]*fakeSession), logs: &logCapture{}}
	logger := pslog.NewWithOptions(f.logs, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.DebugLevel,
	})
	factory := func(id tab.ID, notify func(tab.Event)) tab.Session {
		s := &fakeSession{id: id, notify: notify}
		f.sessions[id] = s
		return s
	}
	base := []Option{
		WithLogger(logger),
		WithShell(func() string { return "/bin/test-shell" }),
		WithWake(func() { f.wakes.Add(1) }),
	}
	a, err := New(cfg, factory, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	f.app = a
	return f
}

func (f *fixture) current(t *testing.T) *fakeSession {
	t.Helper()
	cur := f.app.Tabs().Current()
	if cur == nil {
		t.Fatalf("no current tab")
	}
	return f.sessions[cur.ID()]
}

func TestStartOpensFirstTab(t *testing.T) {
	f := newFixture(t)
	f.app.Start()

	tabs := f.app.Tabs()
	if tabs.Len() != 1 {
		t.Fatalf("len = %d, want 1", tabs.Len())
	}
	if got := tabs.Current().Title(); got != "Terminal 1" {
		t.Fatalf("title = %q", got)
	}
	s := f.current(t)
	if s.spawned != "/bin/test-shell" {
		t.Fatalf("spawned %q", s.spawned)
	}
	if s.fg != theme.Resolve("gruvbox").Foreground {
		t.Fatalf("theme colors not applied")
	}
}

func TestHandleKeyNewTab(t *testing.T) {
	f := newFixture(t)
	f.app.Start()

	if !f.app.HandleKey(keybind.ModControl|keybind.ModShift|keybind.ModNumLock, keybind.KeyT) {
		t.Fatalf("Control+Shift+T not consumed")
	}
	if f.app.Tabs().Len() != 2 || f.app.Tabs().CurrentIndex() != 1 {
		t.Fatalf("len = %d current = %d", f.app.Tabs().Len(), f.app.Tabs().CurrentIndex())
	}
}

func TestHandleKeyRouting(t *testing.T) {
	f := newFixture(t)
	f.app.Start()
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyT)
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyT)

	tests := []struct {
		name     string
		mods     keybind.Modifier
		key      keybind.Key
		consumed bool
		current  int
	}{
		{"plain letter falls through", keybind.ModNone, keybind.KeyA, false, 2},
		{"next wraps", keybind.ModControl, keybind.KeyPageDown, true, 0},
		{"prev wraps", keybind.ModControl, keybind.KeyPageUp, true, 2},
		{"alt 2 jumps", keybind.ModAlt, keybind.Key1 + 1, true, 1},
		{"alt 5 out of range", keybind.ModAlt, keybind.Key1 + 4, false, 1},
		{"alt 1 with capslock", keybind.ModAlt | keybind.ModCapsLock, keybind.Key1, true, 0},
		{"ctrl 1 is not a jump", keybind.ModControl, keybind.Key1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.app.HandleKey(tt.mods, tt.key); got != tt.consumed {
				t.Fatalf("consumed = %v, want %v", got, tt.consumed)
			}
			if got := f.app.Tabs().CurrentIndex(); got != tt.current {
				t.Fatalf("current = %d, want %d", got, tt.current)
			}
		})
	}
}

func TestCloseTabAction(t *testing.T) {
	f := newFixture(t)
	f.app.Start()
	first := f.current(t)

	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyW)

	if !first.destroyed {
		t.Fatalf("session not destroyed")
	}
	if !f.app.Done() {
		t.Fatalf("closing the last tab should shut down")
	}
	if n := f.logs.count("shutdown"); n != 1 {
		t.Fatalf("shutdown logged %d times", n)
	}
}

func TestHeldShortcutFiresOnce(t *testing.T) {
	f := newFixture(t)
	f.app.Start()
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyT)

	closeMods := keybind.ModControl | keybind.ModShift
	if !f.app.HandleKey(closeMods, keybind.KeyW) {
		t.Fatalf("close not consumed")
	}
	for i := 0; i < 5; i++ {
		if !f.app.HandleRepeat(closeMods, keybind.KeyW) {
			t.Fatalf("repeat %d of a bound key reached the session", i)
		}
	}
	if f.app.Tabs().Len() != 1 || f.app.Done() {
		t.Fatalf("len = %d done = %v, repeats must not close more tabs", f.app.Tabs().Len(), f.app.Done())
	}

	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyT)
	if !f.app.HandleRepeat(keybind.ModAlt, keybind.Key1) {
		t.Fatalf("repeat of a tab jump not swallowed")
	}
	if got := f.app.Tabs().CurrentIndex(); got != 1 {
		t.Fatalf("repeat jumped to %d", got)
	}
	if f.app.HandleRepeat(keybind.ModNone, keybind.KeyBackspace) {
		t.Fatalf("repeat of an unbound key was swallowed")
	}
}

func TestCopyPaste(t *testing.T) {
	f := newFixture(t)

	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyC)
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyV)

	f.app.Start()
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyC)
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyV)
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyV)

	s := f.current(t)
	if s.copies != 1 || s.pastes != 2 {
		t.Fatalf("copies = %d pastes = %d", s.copies, s.pastes)
	}
}

func TestForwardInput(t *testing.T) {
	f := newFixture(t)
	f.app.ForwardText('x')
	f.app.Start()

	f.app.ForwardText('l')
	f.app.ForwardKey(keybind.ModNone, keybind.KeyEnter)

	s := f.current(t)
	if string(s.text) != "l" || len(s.keys) != 1 || s.keys[0] != keybind.KeyEnter {
		t.Fatalf("text = %q keys = %v", string(s.text), s.keys)
	}

	f.app.Dispatch(tab.Event{Kind: tab.EventExited, Tab: s.id})
	f.app.ForwardText('z')
	if string(s.text) != "l" {
		t.Fatalf("input reached an exited session: %q", string(s.text))
	}
}

func TestPostDrainLastExit(t *testing.T) {
	f := newFixture(t)
	f.app.Start()
	s := f.current(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.notify(tab.Event{Kind: tab.EventTitleChanged, Tab: s.id, Title: "htop"})
		s.notify(tab.Event{Kind: tab.EventExited, Tab: s.id, ExitCode: 0})
		s.notify(tab.Event{Kind: tab.EventExited, Tab: s.id, ExitCode: 0})
	}()
	wg.Wait()

	if f.app.Done() {
		t.Fatalf("done before drain")
	}
	if n := f.app.Drain(); n != 3 {
		t.Fatalf("drained %d events, want 3", n)
	}
	if !f.app.Done() {
		t.Fatalf("last exit should shut down")
	}
	if got := f.app.Tabs().Current().Title(); got != "htop (exited)" {
		t.Fatalf("title = %q", got)
	}
	if n := f.logs.count("shutdown"); n != 1 {
		t.Fatalf("shutdown logged %d times, want 1", n)
	}
	if f.wakes.Load() < 3 {
		t.Fatalf("wake called %d times", f.wakes.Load())
	}
	if f.app.Drain() != 0 {
		t.Fatalf("queue not emptied")
	}
}

func TestExitWithOtherTabsKeepsRunning(t *testing.T) {
	f := newFixture(t)
	f.app.Start()
	first := f.current(t)
	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyT)

	first.notify(tab.Event{Kind: tab.EventExited, Tab: first.id, ExitCode: 1})
	f.app.Drain()

	if f.app.Done() {
		t.Fatalf("shut down with a live tab")
	}
	if f.app.Tabs().Len() != 2 {
		t.Fatalf("exited tab removed")
	}
}

func TestSpawnFailedEvent(t *testing.T) {
	f := newFixture(t)
	f.app.Start()
	s := f.current(t)

	f.app.Post(tab.Event{Kind: tab.EventSpawnFailed, Tab: s.id, Err: errors.New("exec format error")})
	f.app.Drain()

	cur := f.app.Tabs().Current()
	if cur.Err() == nil || cur.Title() != "Terminal 1 (failed)" {
		t.Fatalf("title = %q err = %v", cur.Title(), cur.Err())
	}
	if f.app.Done() {
		t.Fatalf("spawn failure must not shut down")
	}
}

func TestHandlerOverrides(t *testing.T) {
	var newTabs int
	var exits []tab.Event
	f := newFixture(t,
		WithAction(keybind.ActionNewTab, func() { newTabs++ }),
		WithEventHandler(tab.EventExited, func(ev tab.Event) { exits = append(exits, ev) }),
	)

	f.app.HandleKey(keybind.ModControl|keybind.ModShift, keybind.KeyT)
	f.app.Dispatch(tab.Event{Kind: tab.EventExited, Tab: 9, ExitCode: 4})

	if newTabs != 1 || f.app.Tabs().Len() != 0 {
		t.Fatalf("new tab override not used: calls=%d len=%d", newTabs, f.app.Tabs().Len())
	}
	if len(exits) != 1 || exits[0].ExitCode != 4 {
		t.Fatalf("exit override not used: %+v", exits)
	}
}

func TestThemeOverride(t *testing.T) {
	f := newFixture(t, WithTheme("solarized-dark"))
	if got := f.app.Theme().Name; got != "solarized-dark" {
		t.Fatalf("theme = %q", got)
	}

	f = newFixture(t, WithTheme("no-such-theme"))
	if got := f.app.Theme().Name; got != theme.DefaultName {
		t.Fatalf("theme = %q, want fallback", got)
	}
	if n := f.logs.count("unknown color scheme, using default"); n != 1 {
		t.Fatalf("fallback warning logged %d times", n)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	factory := func(tab.ID, func(tab.Event)) tab.Session { return &fakeSession{} }

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Keys["copy"] = "Control+Hyper+C"
	if _, err := New(cfg, factory); !errors.Is(err, keybind.ErrInvalidAccelerator) {
		t.Fatalf("err = %v, want ErrInvalidAccelerator", err)
	}

	cfg, _ = config.Default()
	cfg.Keys["split"] = "Control+S"
	if _, err := New(cfg, factory); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}

	cfg, _ = config.Default()
	cfg.FontSize = 0
	if _, err := New(cfg, factory); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}

	if _, err := New(nil, factory); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v for nil config", err)
	}
}
