package tab

import (
	"github.com/javanhut/svte/keybind"
	"github.com/javanhut/svte/theme"
)

// ID identifies a tab for its whole lifetime. IDs are never reused.
type ID uint64

// Session is the terminal engine embedded in one tab. Implementations
// deliver exit, title and spawn-failure notifications as Events through
// whatever sink their factory wired up; those may arrive on any goroutine
// and must be handed to the manager on the event loop.
type Session interface {
	SetColors(fg, bg theme.Color, palette theme.Palette)
	SetFont(family string, size float64)
	SetScrollback(lines int)
	// Spawn starts the program without blocking. Exit is reported later.
	Spawn(shell string)
	Resize(cols, rows int)
	SendKey(mods keybind.Modifier, key keybind.Key)
	SendText(r rune)
	CopySelection()
	PasteClipboard()
	// Destroy tears the session down; a running child is killed.
	Destroy()
}

// SessionFactory creates the session for a new tab.
type SessionFactory func(id ID) Session

// EventKind distinguishes session notifications.
type EventKind int

const (
	EventExited EventKind = iota
	EventTitleChanged
	EventSpawnFailed
)

func (k EventKind) String() string {
	switch k {
	case EventExited:
		return "exited"
	case EventTitleChanged:
		return "title-changed"
	case EventSpawnFailed:
		return "spawn-failed"
	}
	return "unknown"
}

// Event is a notification from a session about the tab that owns it.
type Event struct {
	Kind     EventKind
	Tab      ID
	ExitCode int
	Title    string
	Err      error
}
