// Package term embeds a headless terminal emulator and a shell in a tab.
package term

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	headlessterm "github.com/danielgatis/go-headless-term"
	"pkt.systems/pslog"

	"github.com/javanhut/svte/keybind"
	"github.com/javanhut/svte/shell"
	"github.com/javanhut/svte/tab"
	"github.com/javanhut/svte/theme"
)

const (
	defaultCols       = 80
	defaultRows       = 24
	defaultScrollback = 10000
	readBufferSize    = 4096
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log pslog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

// WithSize sets the initial grid size.
func WithSize(cols, rows int) Option {
	return func(s *Session) {
		if cols > 0 && rows > 0 {
			s.cols, s.rows = cols, rows
		}
	}
}

// WithStarter replaces how the shell process is started.
func WithStarter(start func(shell string, cols, rows uint16) (Process, error)) Option {
	return func(s *Session) { s.start = start }
}

// Process is a running shell attached to a pseudo-terminal.
type Process interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
	Done() <-chan struct{}
	ExitCode() int
	Close() error
}

func startPty(sh string, cols, rows uint16) (Process, error) {
	return shell.Start(sh, cols, rows)
}

// Session is a tab.Session backed by go-headless-term and a PTY.
type Session struct {
	id        tab.ID
	notify    func(tab.Event)
	log       pslog.Logger
	clipboard Clipboard
	start     func(shell string, cols, rows uint16) (Process, error)
	term      *headlessterm.Terminal

	mu         sync.Mutex
	proc       Process
	destroyed  bool
	cols, rows int
	fg, bg     theme.Color
	palette    theme.Palette
	fontFamily string
	fontSize   float64
}

// New creates the session for tab id. Notifications are passed to notify,
// possibly from other goroutines.
func New(id tab.ID, notify func(tab.Event), opts ...Option) *Session {
	s := &Session{
		id:        id,
		notify:    notify,
		clipboard: systemClipboard{},
		start:     startPty,
		cols:      defaultCols,
		rows:      defaultRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = pslog.Ctx(context.Background())
	}
	s.log = s.log.With("tab", uint64(id))

	def := theme.Default()
	s.fg, s.bg, s.palette = def.Foreground, def.Background, def.Palette

	s.term = headlessterm.New(
		headlessterm.WithSize(s.rows, s.cols),
		headlessterm.WithResponse(responder{s}),
		headlessterm.WithMiddleware(&headlessterm.Middleware{
			SetTitle: func(title string, next func(string)) {
				next(title)
				s.post(tab.Event{Kind: tab.EventTitleChanged, Tab: s.id, Title: title})
			},
		}),
		headlessterm.WithScrollback(headlessterm.NewMemoryScrollback(defaultScrollback)),
	)
	return s
}

// responder writes terminal replies (cursor reports etc.) back to the shell.
type responder struct{ s *Session }

func (r responder) Write(p []byte) (int, error) {
	r.s.mu.Lock()
	proc := r.s.proc
	r.s.mu.Unlock()
	if proc == nil {
		return len(p), nil
	}
	return proc.Write(p)
}

func (s *Session) post(ev tab.Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

// Terminal returns the emulator for rendering.
func (s *Session) Terminal() *headlessterm.Terminal {
	return s.term
}

// SetColors sets the default colors and the 16-color palette.
func (s *Session) SetColors(fg, bg theme.Color, palette theme.Palette) {
	s.mu.Lock()
	s.fg, s.bg, s.palette = fg, bg, palette
	s.mu.Unlock()
	for i, c := range palette {
		s.term.SetColor(i, c)
	}
}

// Colors returns the colors set with SetColors.
func (s *Session) Colors() (fg, bg theme.Color, palette theme.Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fg, s.bg, s.palette
}

// SetFont records the font the renderer should draw this session with.
func (s *Session) SetFont(family string, size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontFamily, s.fontSize = family, size
}

// Font returns the font set with SetFont.
func (s *Session) Font() (family string, size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fontFamily, s.fontSize
}

// SetScrollback limits the number of lines kept above the screen.
func (s *Session) SetScrollback(lines int) {
	if lines < 0 {
		lines = 0
	}
	s.term.SetMaxScrollback(lines)
}

// Spawn starts shell without blocking. A failure is written into the
// terminal and reported as tab.EventSpawnFailed; a normal exit as
// tab.EventExited.
func (s *Session) Spawn(sh string) {
	s.mu.Lock()
	cols, rows := s.cols, s.rows
	s.mu.Unlock()

	go func() {
		proc, err := s.start(sh, uint16(cols), uint16(rows))
		if err != nil {
			s.log.With("err", err).Warn("spawn failed", "shell", sh)
			s.term.WriteString(fmt.Sprintf("\x1b[1;31mfailed to start %s: %v\x1b[0m\r\n", sh, err))
			s.post(tab.Event{Kind: tab.EventSpawnFailed, Tab: s.id, Err: err})
			return
		}

		s.mu.Lock()
		if s.destroyed {
			s.mu.Unlock()
			proc.Close()
			return
		}
		s.proc = proc
		s.mu.Unlock()
		s.log.Debug("shell started", "shell", sh)

		go s.readLoop(proc)
		<-proc.Done()

		s.mu.Lock()
		destroyed := s.destroyed
		s.mu.Unlock()
		if destroyed {
			return
		}
		code := proc.ExitCode()
		s.log.Debug("shell exited", "code", code)
		s.post(tab.Event{Kind: tab.EventExited, Tab: s.id, ExitCode: code})
	}()
}

// readLoop continuously reads from the PTY and feeds the emulator
func (s *Session) readLoop(proc Process) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := proc.Read(buf)
		if n > 0 {
			s.term.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) write(data []byte) {
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if proc == nil {
		return
	}
	if _, err := proc.Write(data); err != nil {
		s.log.With("err", err).Debug("pty write failed")
	}
}

// Resize resizes the emulator grid and the PTY.
func (s *Session) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	proc := s.proc
	s.mu.Unlock()

	s.term.Resize(rows, cols)
	if proc != nil {
		proc.Resize(uint16(cols), uint16(rows))
	}
}

// Size returns the grid size in cells.
func (s *Session) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// SendKey sends a non-text key press to the shell.
func (s *Session) SendKey(mods keybind.Modifier, key keybind.Key) {
	s.write(EncodeKey(mods, key, s.term.HasMode(headlessterm.ModeCursorKeys)))
}

// SendText sends typed text to the shell.
func (s *Session) SendText(r rune) {
	s.write(EncodeText(r))
}

// Select marks the cells between start and end, inclusive.
func (s *Session) Select(startRow, startCol, endRow, endCol int) {
	s.term.SetSelection(
		headlessterm.Position{Row: startRow, Col: startCol},
		headlessterm.Position{Row: endRow, Col: endCol},
	)
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.term.ClearSelection()
}

// CopySelection puts the selected text on the clipboard. Nothing happens
// without a selection.
func (s *Session) CopySelection() {
	if !s.term.HasSelection() {
		return
	}
	lines := strings.Split(s.term.GetSelectedText(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := s.clipboard.WriteAll(text); err != nil {
		s.log.With("err", err).Warn("clipboard write failed")
	}
}

// PasteClipboard sends the clipboard contents to the shell, bracketed when
// the application asked for it.
func (s *Session) PasteClipboard() {
	text, err := s.clipboard.ReadAll()
	if err != nil {
		s.log.With("err", err).Warn("clipboard read failed")
		return
	}
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	if s.term.HasMode(headlessterm.ModeBracketedPaste) {
		text = strings.ReplaceAll(text, "\x1b[201~", "")
		text = "\x1b[200~" + text + "\x1b[201~"
	}
	s.write([]byte(text))
}

// Destroy kills the shell and closes the PTY. No exit event follows.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()

	if proc != nil {
		if err := proc.Close(); err != nil {
			s.log.With("err", err).Debug("pty close")
		}
	}
}

// Resolve maps a cell color to RGBA using the session colors. Palette
// slots 0-15 and the default foreground and background come from the
// theme; everything else from the emulator's default palette.
func (s *Session) Resolve(c color.Color, fg bool) color.RGBA {
	s.mu.Lock()
	defFg, defBg, palette := s.fg, s.bg, s.palette
	s.mu.Unlock()

	switch v := c.(type) {
	case nil:
		if fg {
			return toRGBA(defFg)
		}
		return toRGBA(defBg)
	case *headlessterm.NamedColor:
		switch {
		case v.Name >= 0 && v.Name < theme.PaletteSize:
			return toRGBA(palette[v.Name])
		case v.Name == headlessterm.NamedColorForeground:
			return toRGBA(defFg)
		case v.Name == headlessterm.NamedColorBackground:
			return toRGBA(defBg)
		}
	case *headlessterm.IndexedColor:
		if v.Index >= 0 && v.Index < theme.PaletteSize {
			return toRGBA(palette[v.Index])
		}
	}
	return toRGBA(headlessterm.ResolveDefaultColor(c, fg))
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

var _ tab.Session = (*Session)(nil)
