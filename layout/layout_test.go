package layout

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestGrid(t *testing.T) {
	tests := []struct {
		name       string
		l          Layout
		cols, rows int
	}{
		{"default window", New(1000, 700, 10, 20), 98, 33},
		{"tiny window", New(10, 10, 10, 20), 1, 1},
		{"zero cell clamps", New(100, 100, 0, 0), 88, 79},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := tt.l.Grid()
			if cols != tt.cols || rows != tt.rows {
				t.Fatalf("grid = %dx%d, want %dx%d", cols, rows, tt.cols, tt.rows)
			}
		})
	}
}

func TestCellAt(t *testing.T) {
	l := New(1000, 700, 10, 20)
	_, oy := l.GridOrigin()
	tests := []struct {
		name     string
		x, y     float64
		row, col int
		ok       bool
	}{
		{"tab bar", 50, 5, 0, 0, false},
		{"first cell", 7, float64(oy) + 1, 0, 0, true},
		{"inside", 6 + 10*5 + 3, float64(oy) + 20*2 + 3, 2, 5, true},
		{"left padding", 1, float64(oy) + 25, 1, 0, true},
		{"beyond right edge", 5000, float64(oy) + 1, 0, 97, true},
		{"beyond bottom", 7, 5000, 32, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col, ok := l.CellAt(tt.x, tt.y)
			if ok != tt.ok || (ok && (row != tt.row || col != tt.col)) {
				t.Fatalf("CellAt = (%d, %d, %v), want (%d, %d, %v)", row, col, ok, tt.row, tt.col, tt.ok)
			}
		})
	}
}

func TestTabs(t *testing.T) {
	l := New(1000, 700, 10, 20)
	rects := l.Tabs([]string{"a", "Terminal 1", strings.Repeat("x", 60)})

	if len(rects) != 3 {
		t.Fatalf("len = %d", len(rects))
	}
	if rects[0].W != minTabCells*10 {
		t.Fatalf("short title width = %d", rects[0].W)
	}
	if rects[1].W != 14*10 || rects[1].Label != "Terminal 1" {
		t.Fatalf("tab 1 = %+v", rects[1])
	}
	if rects[2].W != maxTabCells*10 {
		t.Fatalf("long title width = %d", rects[2].W)
	}
	if got := runewidth.StringWidth(rects[2].Label); got != maxTabCells-2-CloseCells {
		t.Fatalf("long label width = %d", got)
	}
	for i := 1; i < len(rects); i++ {
		if rects[i].X != rects[i-1].X+rects[i-1].W {
			t.Fatalf("tab %d not adjacent", i)
		}
	}
}

func TestTabsShrinkWhenNarrow(t *testing.T) {
	l := New(200, 700, 10, 20)
	titles := []string{"Terminal 1", "Terminal 2", "Terminal 3", "Terminal 4"}
	rects := l.Tabs(titles)
	total := 0
	for _, r := range rects {
		total += r.W
		if r.W != 4*10 {
			t.Fatalf("tab width = %d, want 40", r.W)
		}
		if r.Close.X < r.X || r.Close.X+r.Close.W > r.X+r.W {
			t.Fatalf("close button %+v outside tab %+v", r.Close, r.Rect)
		}
	}
	total += l.NewTabButton(rects).W
	if total > l.Width {
		t.Fatalf("tabs overflow: %d > %d", total, l.Width)
	}
}

func TestTabAt(t *testing.T) {
	l := New(1000, 700, 10, 20)
	rects := l.Tabs([]string{"one", "two"})

	if i, ok := TabAt(rects, 5, 5); !ok || i != 0 {
		t.Fatalf("TabAt first = %d %v", i, ok)
	}
	if i, ok := TabAt(rects, float64(rects[1].X+1), 5); !ok || i != 1 {
		t.Fatalf("TabAt second = %d %v", i, ok)
	}
	if _, ok := TabAt(rects, 900, 5); ok {
		t.Fatalf("hit past the last tab")
	}
	if _, ok := TabAt(rects, 5, 300); ok {
		t.Fatalf("hit below the tab bar")
	}
}

func TestCloseAt(t *testing.T) {
	l := New(1000, 700, 10, 20)
	rects := l.Tabs([]string{"one", "two"})

	for i, r := range rects {
		if r.Close.X+r.Close.W != r.X+r.W || r.Close.W != CloseCells*10 {
			t.Fatalf("tab %d close = %+v, tab = %+v", i, r.Close, r.Rect)
		}
	}
	if i, ok := CloseAt(rects, float64(rects[1].Close.X+1), 5); !ok || i != 1 {
		t.Fatalf("CloseAt second = %d %v", i, ok)
	}
	if _, ok := CloseAt(rects, float64(rects[1].X+1), 5); ok {
		t.Fatalf("label area hit as close button")
	}
	if i, ok := TabAt(rects, float64(rects[0].Close.X+1), 5); !ok || i != 0 {
		t.Fatalf("close button should lie inside its tab")
	}
}

func TestNewTabButton(t *testing.T) {
	l := New(1000, 700, 10, 20)

	if b := l.NewTabButton(nil); b.X != 0 || b.W != NewTabCells*10 || b.H != l.TabBarHeight() {
		t.Fatalf("button without tabs = %+v", b)
	}

	rects := l.Tabs([]string{"one", "two"})
	b := l.NewTabButton(rects)
	if b.X != rects[1].X+rects[1].W {
		t.Fatalf("button x = %d, want %d", b.X, rects[1].X+rects[1].W)
	}
	if !b.Contains(float64(b.X+1), 5) {
		t.Fatalf("button does not contain its own area")
	}
	if _, ok := TabAt(rects, float64(b.X+1), 5); ok {
		t.Fatalf("button overlaps a tab")
	}
}
