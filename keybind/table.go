package keybind

import (
	"fmt"
	"strings"
)

// Action identifies something a key binding can trigger.
type Action int

const (
	ActionNone Action = iota
	ActionNewTab
	ActionCloseTab
	ActionNextTab
	ActionPrevTab
	ActionCopy
	ActionPaste
)

// Actions lists the bindable actions in dispatch order.
var Actions = []Action{
	ActionNewTab,
	ActionCloseTab,
	ActionNextTab,
	ActionPrevTab,
	ActionCopy,
	ActionPaste,
}

var actionNames = map[Action]string{
	ActionNone:     "none",
	ActionNewTab:   "new_tab",
	ActionCloseTab: "close_tab",
	ActionNextTab:  "next_tab",
	ActionPrevTab:  "prev_tab",
	ActionCopy:     "copy",
	ActionPaste:    "paste",
}

// String returns the configuration name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ActionFromName maps a configuration name back to an action.
func ActionFromName(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if a != ActionNone && n == name {
			return a, true
		}
	}
	return ActionNone, false
}

// Table maps actions to their bindings. It is built once at startup.
type Table struct {
	bindings []Binding
}

// NewTable parses one accelerator per action. Any malformed accelerator
// fails the whole table.
func NewTable(accels map[Action]string) (*Table, error) {
	t := &Table{}
	for _, action := range Actions {
		spec, ok := accels[action]
		if !ok || strings.TrimSpace(spec) == "" {
			continue
		}
		b, err := Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", action, err)
		}
		b.Action = action
		t.bindings = append(t.bindings, b)
	}
	for action := range accels {
		if _, known := actionNames[action]; !known || action == ActionNone {
			return nil, fmt.Errorf("binding %s: %w: unknown action", action, ErrInvalidAccelerator)
		}
	}
	return t, nil
}

// Dispatch returns the first action whose binding matches the event.
func (t *Table) Dispatch(mods Modifier, key Key) (Action, bool) {
	for _, b := range t.bindings {
		if b.Matches(mods, key) {
			return b.Action, true
		}
	}
	return ActionNone, false
}

// Binding returns the binding for an action.
func (t *Table) Binding(action Action) (Binding, bool) {
	for _, b := range t.bindings {
		if b.Action == action {
			return b, true
		}
	}
	return Binding{}, false
}

// Bindings returns a copy of all bindings in dispatch order.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, len(t.bindings))
	copy(out, t.bindings)
	return out
}

// DigitJump resolves Alt+1..Alt+9 to a zero-based tab index. It reports
// false for any other chord or when the index is not below tabCount.
func DigitJump(mods Modifier, key Key, tabCount int) (int, bool) {
	if mods.Masked() != ModAlt || key < Key1 || key > Key9 {
		return 0, false
	}
	idx := int(key - Key1)
	if idx >= tabCount {
		return 0, false
	}
	return idx, true
}
