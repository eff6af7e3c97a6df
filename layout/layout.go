// Package layout computes where the tab bar and the terminal grid sit in
// the window, and maps pointer positions back to tabs and cells.
package layout

import (
	"github.com/mattn/go-runewidth"
)

const (
	// Padding is the gap around the grid in pixels.
	Padding = 6
	// TabPadding is the vertical space around a tab label in pixels.
	TabPadding = 4
	// CloseCells is the width of a tab's close button in cells.
	CloseCells = 2
	// NewTabCells is the width of the new tab button in cells.
	NewTabCells = 3

	minTabCells = 8
	maxTabCells = 28
)

// Layout is the geometry of one frame. All values are framebuffer pixels.
type Layout struct {
	Width, Height         int
	CellWidth, CellHeight int
}

// New returns the layout for a framebuffer and font cell size.
func New(width, height, cellWidth, cellHeight int) Layout {
	if cellWidth < 1 {
		cellWidth = 1
	}
	if cellHeight < 1 {
		cellHeight = 1
	}
	return Layout{Width: width, Height: height, CellWidth: cellWidth, CellHeight: cellHeight}
}

// TabBarHeight returns the height of the tab strip.
func (l Layout) TabBarHeight() int {
	return l.CellHeight + 2*TabPadding
}

// GridOrigin returns the top-left pixel of cell (0, 0).
func (l Layout) GridOrigin() (x, y int) {
	return Padding, l.TabBarHeight() + Padding
}

// Grid returns how many cells fit below the tab bar, at least 1x1.
func (l Layout) Grid() (cols, rows int) {
	x, y := l.GridOrigin()
	cols = (l.Width - x - Padding) / l.CellWidth
	rows = (l.Height - y - Padding) / l.CellHeight
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// CellAt maps a pixel to a grid cell. Positions left of or above the grid
// clamp to the first cell and positions beyond it to the last; ok is false
// only inside the tab bar.
func (l Layout) CellAt(px, py float64) (row, col int, ok bool) {
	if py < float64(l.TabBarHeight()) {
		return 0, 0, false
	}
	ox, oy := l.GridOrigin()
	cols, rows := l.Grid()
	col = clamp(int((px-float64(ox))/float64(l.CellWidth)), 0, cols-1)
	row = clamp(int((py-float64(oy))/float64(l.CellHeight)), 0, rows-1)
	if px < float64(ox) {
		col = 0
	}
	if py < float64(oy) {
		row = 0
	}
	return row, col, true
}

// Rect is an area in framebuffer pixels.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the pixel lies inside r.
func (r Rect) Contains(px, py float64) bool {
	return px >= float64(r.X) && px < float64(r.X+r.W) && py >= float64(r.Y) && py < float64(r.Y+r.H)
}

// TabRect is one tab in the strip: its area, its label and the close
// button at its right end.
type TabRect struct {
	Rect
	Label string
	Close Rect
}

// Tabs lays the titles out left to right. Each tab is as wide as its
// title allows within fixed bounds, and all tabs shrink equally when the
// strip is too narrow. Labels are truncated to fit. Room for the new tab
// button is kept at the end of the strip.
func (l Layout) Tabs(titles []string) []TabRect {
	if len(titles) == 0 {
		return nil
	}
	avail := l.Width/l.CellWidth - NewTabCells
	share := avail / len(titles)
	if share < 1 {
		share = 1
	}

	h := l.TabBarHeight()
	rects := make([]TabRect, 0, len(titles))
	x := 0
	for _, title := range titles {
		cells := runewidth.StringWidth(title) + 2 + CloseCells
		cells = clamp(cells, minTabCells, maxTabCells)
		if cells > share {
			cells = share
		}
		closeCells := min(CloseCells, cells)
		label := title
		if w := cells - 2 - closeCells; runewidth.StringWidth(label) > w {
			if w < 1 {
				label = ""
			} else {
				label = runewidth.Truncate(label, w, "…")
			}
		}
		rects = append(rects, TabRect{
			Rect:  Rect{X: x, Y: 0, W: cells * l.CellWidth, H: h},
			Label: label,
			Close: Rect{X: x + (cells-closeCells)*l.CellWidth, Y: 0, W: closeCells * l.CellWidth, H: h},
		})
		x += cells * l.CellWidth
	}
	return rects
}

// NewTabButton returns the area of the "+" button that follows the tabs.
func (l Layout) NewTabButton(rects []TabRect) Rect {
	x := 0
	if n := len(rects); n > 0 {
		x = rects[n-1].X + rects[n-1].W
	}
	return Rect{X: x, Y: 0, W: NewTabCells * l.CellWidth, H: l.TabBarHeight()}
}

// TabAt returns the index of the tab under the pointer.
func TabAt(rects []TabRect, px, py float64) (int, bool) {
	for i, r := range rects {
		if r.Contains(px, py) {
			return i, true
		}
	}
	return 0, false
}

// CloseAt returns the index of the tab whose close button is under the
// pointer.
func CloseAt(rects []TabRect, px, py float64) (int, bool) {
	for i, r := range rects {
		if r.Close.Contains(px, py) {
			return i, true
		}
	}
	return 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
