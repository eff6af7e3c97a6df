package tab

import (
	"context"
	"fmt"
	"sync"

	"pkt.systems/pslog"

	"github.com/javanhut/svte/shell"
	"github.com/javanhut/svte/theme"
)

// Options configures the sessions a Manager creates.
type Options struct {
	Theme      theme.Theme
	FontFamily string
	FontSize   float64
	Scrollback int
	// Shell resolves the program for each new tab. Defaults to $SHELL with
	// shell.DefaultFallback.
	Shell func() string
	// OnShutdown is called once, when the last live tab goes away.
	OnShutdown func()
	Logger     pslog.Logger
}

// Manager owns the ordered tab collection and tracks the current tab.
type Manager struct {
	tabs       []*Tab
	current    int
	counter    uint64
	nextID     ID
	cols, rows int
	shutdown   bool
	factory    SessionFactory
	opts       Options
	log        pslog.Logger
	mu         sync.RWMutex
}

// NewManager creates an empty manager. Tabs are created with NewTab.
func NewManager(factory SessionFactory, opts Options) *Manager {
	if opts.Shell == nil {
		opts.Shell = func() string { return shell.Resolve(shell.DefaultFallback) }
	}
	log := opts.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Manager{
		factory: factory,
		opts:    opts,
		log:     log,
	}
}

// NewTab creates a session, starts the shell in it and makes the tab
// current. An empty title means "Terminal N".
func (m *Manager) NewTab(title string) ID {
	m.mu.Lock()
	m.counter++
	m.nextID++
	id := m.nextID
	if title == "" {
		title = fmt.Sprintf("Terminal %d", m.counter)
	}

	sess := m.factory(id)
	sess.SetColors(m.opts.Theme.Foreground, m.opts.Theme.Background, m.opts.Theme.Palette)
	sess.SetFont(m.opts.FontFamily, m.opts.FontSize)
	sess.SetScrollback(m.opts.Scrollback)
	if m.cols > 0 && m.rows > 0 {
		sess.Resize(m.cols, m.rows)
	}

	t := &Tab{
		id:           id,
		defaultTitle: title,
		session:      sess,
		state:        StateCreated,
	}
	t.setTitle(title)
	m.tabs = append(m.tabs, t)
	m.current = len(m.tabs) - 1
	m.mu.Unlock()

	sh := m.opts.Shell()
	m.log.Info("tab new", "tab", uint64(id), "title", title, "shell", sh)
	sess.Spawn(sh)

	m.mu.Lock()
	if t.state == StateCreated {
		t.state = StateActive
	}
	m.mu.Unlock()
	return id
}

// OnSessionExited marks the tab as exited and keeps it as a placeholder
// until it is closed. Only when the exited tab is the last one in the
// collection does the shutdown callback fire.
func (m *Manager) OnSessionExited(id ID, code int) {
	m.mu.Lock()
	t := m.find(id)
	if t == nil || t.state == StateExited {
		m.mu.Unlock()
		return
	}
	t.state = StateExited
	t.exitCode = code
	t.refreshTitle()
	quit := len(m.tabs) == 1
	m.mu.Unlock()

	m.log.Info("tab exited", "tab", uint64(id), "code", code)
	if quit {
		m.signalShutdown("last tab exited")
	}
}

// OnSpawnFailed records a spawn error. The tab stays open and shows the
// error.
func (m *Manager) OnSpawnFailed(id ID, err error) {
	m.mu.Lock()
	t := m.find(id)
	if t == nil {
		m.mu.Unlock()
		return
	}
	t.err = err
	if t.state == StateCreated {
		t.state = StateActive
	}
	t.refreshTitle()
	m.mu.Unlock()

	m.log.With("err", err).Warn("tab spawn failed", "tab", uint64(id))
}

// OnTitleChanged replaces the tab title with the sanitized one reported by
// the session. An empty title restores the default.
func (m *Manager) OnTitleChanged(id ID, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.find(id)
	if t == nil {
		return
	}
	t.setTitle(SanitizeTitle(title))
}

// CloseTab destroys the session and removes the tab, whatever its state.
// The tab at the same position becomes current, or the last one.
func (m *Manager) CloseTab(id ID) {
	m.mu.Lock()
	idx := m.index(id)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	t := m.tabs[idx]
	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)
	switch {
	case len(m.tabs) == 0:
		m.current = 0
	case idx < m.current:
		m.current--
	case m.current >= len(m.tabs):
		m.current = len(m.tabs) - 1
	}
	empty := len(m.tabs) == 0
	m.mu.Unlock()

	t.session.Destroy()
	m.log.Info("tab closed", "tab", uint64(id))
	if empty {
		m.signalShutdown("last tab closed")
	}
}

// CloseCurrent closes the current tab.
func (m *Manager) CloseCurrent() {
	if t := m.Current(); t != nil {
		m.CloseTab(t.id)
	}
}

// NextTab switches to the next tab, wrapping around.
func (m *Manager) NextTab() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tabs) > 1 {
		m.current = (m.current + 1) % len(m.tabs)
	}
}

// PrevTab switches to the previous tab, wrapping around.
func (m *Manager) PrevTab() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tabs) > 1 {
		m.current = (m.current - 1 + len(m.tabs)) % len(m.tabs)
	}
}

// JumpTo makes the tab at index i current. Out of range is ignored.
func (m *Manager) JumpTo(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i >= 0 && i < len(m.tabs) {
		m.current = i
	}
}

// Move reorders the tab at from to position to. The current tab stays
// current.
func (m *Manager) Move(from, to int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.tabs)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	cur := m.tabs[m.current]
	t := m.tabs[from]
	m.tabs = append(m.tabs[:from], m.tabs[from+1:]...)
	m.tabs = append(m.tabs[:to], append([]*Tab{t}, m.tabs[to:]...)...)
	for i, tt := range m.tabs {
		if tt == cur {
			m.current = i
			break
		}
	}
}

// ResizeAll resizes every session. New tabs get the same size.
func (m *Manager) ResizeAll(cols, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cols <= 0 || rows <= 0 {
		return
	}
	m.cols = cols
	m.rows = rows
	for _, t := range m.tabs {
		t.session.Resize(cols, rows)
	}
}

// Current returns the current tab, or nil when there are none.
func (m *Manager) Current() *Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.tabs) == 0 {
		return nil
	}
	return m.tabs[m.current]
}

// CurrentIndex returns the index of the current tab.
func (m *Manager) CurrentIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Len returns the number of tabs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

// Tabs returns the tabs in display order (for rendering the tab bar).
func (m *Manager) Tabs() []*Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Tab, len(m.tabs))
	copy(result, m.tabs)
	return result
}

// Counter returns how many tabs have ever been created.
func (m *Manager) Counter() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counter
}

// Get returns the tab with the given ID.
func (m *Manager) Get(id ID) (*Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := m.find(id)
	return t, t != nil
}

// DestroyAll tears down every session without signalling shutdown.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	tabs := m.tabs
	m.tabs = nil
	m.current = 0
	m.mu.Unlock()

	for _, t := range tabs {
		t.session.Destroy()
	}
}

func (m *Manager) signalShutdown(reason string) {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	m.mu.Unlock()

	m.log.Info("shutdown", "reason", reason)
	if m.opts.OnShutdown != nil {
		m.opts.OnShutdown()
	}
}

func (m *Manager) find(id ID) *Tab {
	if i := m.index(id); i >= 0 {
		return m.tabs[i]
	}
	return nil
}

func (m *Manager) index(id ID) int {
	for i, t := range m.tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}
