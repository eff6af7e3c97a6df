package keybind

import "strings"

// Modifier is a bitset of held modifier keys. Bit values follow the GLFW
// modifier flags so toolkit events convert with a plain type conversion.
type Modifier uint16

const (
	ModNone     Modifier = 0
	ModShift    Modifier = 0x0001
	ModControl  Modifier = 0x0002
	ModAlt      Modifier = 0x0004
	ModSuper    Modifier = 0x0008
	ModCapsLock Modifier = 0x0010
	ModNumLock  Modifier = 0x0020
)

// DefaultModMask holds the modifiers that take part in binding comparison.
// Lock modifiers and Super are ignored.
const DefaultModMask = ModControl | ModShift | ModAlt

// Has reports whether m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// Masked returns m restricted to DefaultModMask.
func (m Modifier) Masked() Modifier {
	return m & DefaultModMask
}

// String returns a form like "Control+Shift".
func (m Modifier) String() string {
	var parts []string
	if m.Has(ModControl) {
		parts = append(parts, "Control")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModSuper) {
		parts = append(parts, "Super")
	}
	return strings.Join(parts, "+")
}

var modifierNames = map[string]Modifier{
	"control": ModControl,
	"ctrl":    ModControl,
	"ctl":     ModControl,
	"primary": ModControl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"mod1":    ModAlt,
}

// ModifierFromName returns the modifier for a name, case-insensitively.
func ModifierFromName(name string) (Modifier, bool) {
	m, ok := modifierNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}
