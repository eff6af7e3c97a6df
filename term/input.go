package term

import (
	"strconv"
	"unicode/utf8"

	"github.com/javanhut/svte/keybind"
)

var cursorKeys = map[keybind.Key]byte{
	keybind.KeyUp:    'A',
	keybind.KeyDown:  'B',
	keybind.KeyRight: 'C',
	keybind.KeyLeft:  'D',
	keybind.KeyHome:  'H',
	keybind.KeyEnd:   'F',
}

var tildeKeys = map[keybind.Key]int{
	keybind.KeyInsert:   2,
	keybind.KeyDelete:   3,
	keybind.KeyPageUp:   5,
	keybind.KeyPageDown: 6,
	keybind.KeyF1 + 4:   15,
	keybind.KeyF1 + 5:   17,
	keybind.KeyF1 + 6:   18,
	keybind.KeyF1 + 7:   19,
	keybind.KeyF1 + 8:   20,
	keybind.KeyF1 + 9:   21,
	keybind.KeyF1 + 10:  23,
	keybind.KeyF1 + 11:  24,
}

// xtermModifier returns the CSI modifier parameter, 1 meaning none.
func xtermModifier(mods keybind.Modifier) int {
	m := 1
	if mods.Has(keybind.ModShift) {
		m++
	}
	if mods.Has(keybind.ModAlt) {
		m += 2
	}
	if mods.Has(keybind.ModControl) {
		m += 4
	}
	return m
}

// EncodeKey translates a non-text key press into the bytes a shell
// expects. It returns nil for keys that arrive as text through EncodeText.
func EncodeKey(mods keybind.Modifier, key keybind.Key, appCursor bool) []byte {
	mods = mods.Masked()
	ctrl := mods.Has(keybind.ModControl)
	shift := mods.Has(keybind.ModShift)
	alt := mods.Has(keybind.ModAlt)
	mod := xtermModifier(mods)

	if final, ok := cursorKeys[key]; ok {
		switch {
		case mod > 1:
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		case appCursor:
			return []byte{0x1b, 'O', final}
		default:
			return []byte{0x1b, '[', final}
		}
	}

	if n, ok := tildeKeys[key]; ok {
		seq := "\x1b[" + strconv.Itoa(n)
		if mod > 1 {
			seq += ";" + strconv.Itoa(mod)
		}
		return []byte(seq + "~")
	}

	if key >= keybind.KeyF1 && key <= keybind.KeyF1+3 {
		final := byte('P' + (key - keybind.KeyF1))
		if mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		}
		return []byte{0x1b, 'O', final}
	}

	var out []byte
	switch key {
	case keybind.KeyBackspace:
		out = []byte{0x7f}
		if ctrl {
			out = []byte{0x08}
		}
	case keybind.KeyEnter, keybind.KeyKPEnter:
		out = []byte{'\r'}
	case keybind.KeyTab:
		if shift {
			return []byte("\x1b[Z")
		}
		out = []byte{'\t'}
	case keybind.KeyEscape:
		out = []byte{0x1b}
	case keybind.KeySpace:
		if !ctrl {
			return nil
		}
		out = []byte{0}
	default:
		switch {
		case ctrl && key >= keybind.KeyA && key <= keybind.KeyZ:
			// Ctrl+A = 1, Ctrl+B = 2, etc.
			out = []byte{byte(key - keybind.KeyA + 1)}
		case ctrl && key == keybind.KeyLeftBracket:
			out = []byte{0x1b}
		case ctrl && key == keybind.KeyBackslash:
			out = []byte{0x1c}
		case ctrl && key == keybind.KeyRightBracket:
			out = []byte{0x1d}
		case alt && key >= keybind.KeyA && key <= keybind.KeyZ:
			c := byte(key - keybind.KeyA + 'a')
			if shift {
				c = byte(key - keybind.KeyA + 'A')
			}
			return []byte{0x1b, c}
		case alt && key >= keybind.Key0 && key <= keybind.Key9:
			return []byte{0x1b, byte(key)}
		default:
			return nil
		}
	}

	if alt {
		return append([]byte{0x1b}, out...)
	}
	return out
}

// EncodeText UTF-8 encodes typed text.
func EncodeText(r rune) []byte {
	if !utf8.ValidRune(r) {
		return nil
	}
	return utf8.AppendRune(nil, r)
}

// ProducesText reports whether the toolkit will also deliver a character
// event for this key press, which must then be dropped because EncodeKey
// already sent the key.
func ProducesText(mods keybind.Modifier, key keybind.Key) bool {
	mods = mods.Masked()
	if !mods.Has(keybind.ModAlt) || mods.Has(keybind.ModControl) {
		return false
	}
	return (key >= keybind.KeyA && key <= keybind.KeyZ) || (key >= keybind.Key0 && key <= keybind.Key9)
}
