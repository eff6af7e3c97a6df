package keybind

import (
	"strconv"
	"strings"
)

// Key is a key code. Values follow the GLFW key numbering: printable keys
// use their unshifted uppercase ASCII code, named keys start at 256.
type Key int

const (
	KeyUnknown      Key = -1
	KeySpace        Key = 32
	KeyApostrophe   Key = 39
	KeyComma        Key = 44
	KeyMinus        Key = 45
	KeyPeriod       Key = 46
	KeySlash        Key = 47
	Key0            Key = 48
	Key1            Key = 49
	Key9            Key = 57
	KeySemicolon    Key = 59
	KeyEqual        Key = 61
	KeyA            Key = 65
	KeyC            Key = 67
	KeyT            Key = 84
	KeyV            Key = 86
	KeyW            Key = 87
	KeyZ            Key = 90
	KeyLeftBracket  Key = 91
	KeyBackslash    Key = 92
	KeyRightBracket Key = 93
	KeyGraveAccent  Key = 96
	KeyEscape       Key = 256
	KeyEnter        Key = 257
	KeyTab          Key = 258
	KeyBackspace    Key = 259
	KeyInsert       Key = 260
	KeyDelete       Key = 261
	KeyRight        Key = 262
	KeyLeft         Key = 263
	KeyDown         Key = 264
	KeyUp           Key = 265
	KeyPageUp       Key = 266
	KeyPageDown     Key = 267
	KeyHome         Key = 268
	KeyEnd          Key = 269
	KeyF1           Key = 290
	KeyF12          Key = 301
	KeyKP0          Key = 320
	KeyKP9          Key = 329
	KeyKPEnter      Key = 335
)

var namedKeys = map[string]Key{
	"space":        KeySpace,
	"apostrophe":   KeyApostrophe,
	"comma":        KeyComma,
	"minus":        KeyMinus,
	"period":       KeyPeriod,
	"slash":        KeySlash,
	"semicolon":    KeySemicolon,
	"equal":        KeyEqual,
	"bracketleft":  KeyLeftBracket,
	"backslash":    KeyBackslash,
	"bracketright": KeyRightBracket,
	"grave":        KeyGraveAccent,
	"escape":       KeyEscape,
	"esc":          KeyEscape,
	"return":       KeyEnter,
	"enter":        KeyEnter,
	"kp_enter":     KeyKPEnter,
	"tab":          KeyTab,
	"backspace":    KeyBackspace,
	"insert":       KeyInsert,
	"delete":       KeyDelete,
	"right":        KeyRight,
	"left":         KeyLeft,
	"down":         KeyDown,
	"up":           KeyUp,
	"page_up":      KeyPageUp,
	"pageup":       KeyPageUp,
	"prior":        KeyPageUp,
	"page_down":    KeyPageDown,
	"pagedown":     KeyPageDown,
	"next":         KeyPageDown,
	"home":         KeyHome,
	"end":          KeyEnd,
}

var keyNames = map[Key]string{
	KeySpace:     "space",
	KeyEscape:    "Escape",
	KeyEnter:     "Return",
	KeyKPEnter:   "KP_Enter",
	KeyTab:       "Tab",
	KeyBackspace: "BackSpace",
	KeyInsert:    "Insert",
	KeyDelete:    "Delete",
	KeyRight:     "Right",
	KeyLeft:      "Left",
	KeyDown:      "Down",
	KeyUp:        "Up",
	KeyPageUp:    "Page_Up",
	KeyPageDown:  "Page_Down",
	KeyHome:      "Home",
	KeyEnd:       "End",
}

// KeyFromName resolves a key token: a single printable character or a
// named key such as Page_Down or F5. Lookup is case-insensitive.
func KeyFromName(name string) (Key, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return KeyUnknown, false
	}
	if r := []rune(name); len(r) == 1 {
		return keyFromRune(r[0])
	}
	lower := strings.ToLower(name)
	if k, ok := namedKeys[lower]; ok {
		return k, true
	}
	if strings.HasPrefix(lower, "f") {
		if n, err := strconv.Atoi(lower[1:]); err == nil && n >= 1 && n <= 12 {
			return KeyF1 + Key(n-1), true
		}
	}
	return KeyUnknown, false
}

func keyFromRune(r rune) (Key, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return Key(r - 'a' + 'A'), true
	case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return Key(r), true
	}
	switch Key(r) {
	case KeySpace, KeyApostrophe, KeyComma, KeyMinus, KeyPeriod, KeySlash,
		KeySemicolon, KeyEqual, KeyLeftBracket, KeyBackslash, KeyRightBracket, KeyGraveAccent:
		return Key(r), true
	}
	return KeyUnknown, false
}

// String returns the accelerator token for k.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= KeyF1 && k <= KeyF12 {
		return "F" + strconv.Itoa(int(k-KeyF1)+1)
	}
	if k > KeySpace && k < 127 {
		return string(rune(k))
	}
	return "Key(" + strconv.Itoa(int(k)) + ")"
}
