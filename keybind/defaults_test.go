package keybind_test

import (
	"errors"
	"testing"

	"github.com/javanhut/svte/config"
	"github.com/javanhut/svte/keybind"
)

func shippedAccelerators(t *testing.T) map[keybind.Action]string {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	accels, err := cfg.Accelerators()
	if err != nil {
		t.Fatalf("Accelerators: %v", err)
	}
	return accels
}

func shippedTable(t *testing.T) *keybind.Table {
	t.Helper()
	table, err := keybind.NewTable(shippedAccelerators(t))
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestShippedAcceleratorsRoundTrip(t *testing.T) {
	for action, accel := range shippedAccelerators(t) {
		b, err := keybind.Parse(accel)
		if err != nil {
			t.Fatalf("%s: Parse(%q): %v", action, accel, err)
		}
		if !b.Matches(b.Mods, b.Key) {
			t.Errorf("%s: binding does not match its own chord", action)
		}
		again, err := keybind.Parse(b.String())
		if err != nil || again.Mods != b.Mods || again.Key != b.Key {
			t.Errorf("%s: String() %q does not parse back (%v)", action, b.String(), err)
		}
	}
}

func TestDispatch(t *testing.T) {
	table := shippedTable(t)

	if action, ok := table.Dispatch(keybind.ModControl|keybind.ModShift, keybind.KeyT); !ok || action != keybind.ActionNewTab {
		t.Fatalf("Control+Shift+T = %v,%v want new_tab", action, ok)
	}
	if action, ok := table.Dispatch(keybind.ModControl|keybind.ModShift|keybind.ModNumLock, keybind.KeyW); !ok || action != keybind.ActionCloseTab {
		t.Fatalf("Control+Shift+W with NumLock = %v,%v want close_tab", action, ok)
	}
	if action, ok := table.Dispatch(keybind.ModControl, keybind.KeyPageDown); !ok || action != keybind.ActionNextTab {
		t.Fatalf("Control+Page_Down = %v,%v want next_tab", action, ok)
	}
	if action, ok := table.Dispatch(keybind.ModNone, keybind.KeyT); ok || action != keybind.ActionNone {
		t.Fatalf("plain T dispatched to %v", action)
	}
	if _, ok := table.Dispatch(keybind.ModControl, keybind.KeyEnd); ok {
		t.Fatal("unbound chord dispatched")
	}
}

func TestDispatchEveryShippedBinding(t *testing.T) {
	table := shippedTable(t)
	for _, action := range keybind.Actions {
		b, ok := table.Binding(action)
		if !ok {
			t.Fatalf("no binding for %s", action)
		}
		got, ok := table.Dispatch(b.Mods, b.Key)
		if !ok || got != action {
			t.Errorf("dispatch(%s) = %v, want %v", b, got, action)
		}
	}
	if n := len(table.Bindings()); n != len(keybind.Actions) {
		t.Errorf("bindings = %d, want %d", n, len(keybind.Actions))
	}
}

func TestNewTableFailsFast(t *testing.T) {
	accels := shippedAccelerators(t)
	accels[keybind.ActionPaste] = "<Control><Shift>Nope"
	if _, err := keybind.NewTable(accels); !errors.Is(err, keybind.ErrInvalidAccelerator) {
		t.Fatalf("expected ErrInvalidAccelerator, got %v", err)
	}
}
