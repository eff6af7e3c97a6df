package tab

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// MaxTitleWidth is the display width titles are truncated to, state
// marker included.
const MaxTitleWidth = 40

const (
	exitedMarker = " (exited)"
	failedMarker = " (failed)"
)

// State is the lifecycle state of a tab.
type State int

const (
	StateCreated State = iota
	StateActive
	StateExited
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateExited:
		return "exited"
	}
	return "unknown"
}

// Tab is one terminal session and its label.
type Tab struct {
	id           ID
	title        string
	base         string
	defaultTitle string
	session      Session
	state        State
	exitCode     int
	err          error
}

// ID returns the tab ID.
func (t *Tab) ID() ID { return t.id }

// Title returns the displayed title.
func (t *Tab) Title() string { return t.title }

// State returns the lifecycle state.
func (t *Tab) State() State { return t.state }

// Session returns the embedded session.
func (t *Tab) Session() Session { return t.session }

// ExitCode returns the child's exit status once the tab has exited.
func (t *Tab) ExitCode() int { return t.exitCode }

// Err returns the spawn error, if the shell could not be started.
func (t *Tab) Err() error { return t.err }

// setTitle replaces the title text. An empty title restores the default.
func (t *Tab) setTitle(title string) {
	if title == "" {
		title = t.defaultTitle
	}
	t.base = title
	t.refreshTitle()
}

// refreshTitle rebuilds the displayed title from the base text and the
// state marker, truncating the text so the marker always fits.
func (t *Tab) refreshTitle() {
	marker := ""
	switch {
	case t.state == StateExited:
		marker = exitedMarker
	case t.err != nil:
		marker = failedMarker
	}
	width := MaxTitleWidth - runewidth.StringWidth(marker)
	t.title = runewidth.Truncate(t.base, width, "…") + marker
}

// SanitizeTitle makes an externally supplied window title safe to display:
// control characters are dropped, whitespace runs collapse to one space and
// the result is truncated to MaxTitleWidth columns.
func SanitizeTitle(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return runewidth.Truncate(b.String(), MaxTitleWidth, "…")
}
