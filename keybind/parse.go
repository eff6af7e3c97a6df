package keybind

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAccelerator is returned when an accelerator spec cannot be parsed.
var ErrInvalidAccelerator = errors.New("invalid accelerator spec")

// Binding is a parsed accelerator attached to an action.
type Binding struct {
	Action Action
	Mods   Modifier
	Key    Key
}

// Parse parses an accelerator into canonical modifier and key form.
//
// Supported forms:
//   - "Control+Shift+T", "Ctrl+Page_Down", "Alt+1"
//   - GTK style "<Control><Shift>t", "<Control>Page_Down"
func Parse(spec string) (Binding, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Binding{}, fmt.Errorf("%w: empty", ErrInvalidAccelerator)
	}
	if strings.HasPrefix(spec, "<") {
		return parseGTK(spec)
	}
	return parsePlus(spec)
}

// MustParse is like Parse but panics on error. Intended for tests and
// compiled-in tables.
func MustParse(spec string) Binding {
	b, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return b
}

func parsePlus(spec string) (Binding, error) {
	parts := strings.Split(spec, "+")
	keyPart := parts[len(parts)-1]
	// a trailing "+" leaves no key token
	if keyPart == "" {
		return Binding{}, fmt.Errorf("%w: %q has no key", ErrInvalidAccelerator, spec)
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod, ok := ModifierFromName(p)
		if !ok {
			return Binding{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidAccelerator, p, spec)
		}
		mods |= mod
	}
	return finish(spec, mods, keyPart)
}

func parseGTK(spec string) (Binding, error) {
	var mods Modifier
	rest := spec
	for strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return Binding{}, fmt.Errorf("%w: unterminated modifier in %q", ErrInvalidAccelerator, spec)
		}
		name := rest[1:end]
		mod, ok := ModifierFromName(name)
		if !ok {
			return Binding{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidAccelerator, name, spec)
		}
		mods |= mod
		rest = rest[end+1:]
	}
	return finish(spec, mods, rest)
}

func finish(spec string, mods Modifier, keyPart string) (Binding, error) {
	key, ok := KeyFromName(keyPart)
	if !ok {
		return Binding{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidAccelerator, keyPart, spec)
	}
	return Binding{Mods: mods, Key: key}, nil
}

// Matches reports whether an incoming key event triggers the binding.
// Incoming modifiers are masked to DefaultModMask first, so NumLock or
// CapsLock being active does not prevent a match.
func (b Binding) Matches(mods Modifier, key Key) bool {
	return key == b.Key && mods.Masked() == b.Mods
}

// String renders the binding in "Control+Shift+T" form.
func (b Binding) String() string {
	if b.Mods == ModNone {
		return b.Key.String()
	}
	return b.Mods.String() + "+" + b.Key.String()
}
