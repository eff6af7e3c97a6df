// Package glyphs rasterizes a monospace font into a glyph atlas for the
// renderer.
package glyphs

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultDPI is the resolution font sizes are scaled with.
const DefaultDPI = 96

const atlasColumns = 64

// ErrInvalidSize is returned for a non-positive font size.
var ErrInvalidSize = errors.New("glyphs: invalid font size")

// Glyph is the atlas cell holding one rune.
type Glyph struct {
	X, Y int
}

// Atlas is a grid of equally sized cells, one per rasterized rune. The
// image holds coverage only; color is applied when drawing.
type Atlas struct {
	Family     string
	Fallback   bool
	Size       float64
	CellWidth  int
	CellHeight int
	Ascent     int
	Image      *image.Alpha

	regular map[rune]Glyph
	bold    map[rune]Glyph
}

var charRanges = []struct{ start, end rune }{
	{32, 126},        // Printable ASCII
	{160, 255},       // Latin-1
	{0x2010, 0x2027}, // Dashes, quotes, ellipsis
	{0x2500, 0x257F}, // Box Drawing
	{0x2580, 0x259F}, // Block Elements
}

var families = map[string]string{
	"":          "Go Mono",
	"monospace": "Go Mono",
	"mono":      "Go Mono",
	"go mono":   "Go Mono",
	"gomono":    "Go Mono",
}

// Build rasterizes the regular and bold faces of family at size points.
// Families other than the built-in Go Mono fall back to it and set
// Fallback.
func Build(family string, size float64, dpi float64) (*Atlas, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	name, known := families[strings.ToLower(strings.TrimSpace(family))]
	if !known {
		name = "Go Mono"
	}

	regular, err := newFace(gomono.TTF, size, dpi)
	if err != nil {
		return nil, err
	}
	defer regular.Close()
	bold, err := newFace(gomonobold.TTF, size, dpi)
	if err != nil {
		return nil, err
	}
	defer bold.Close()

	metrics := regular.Metrics()
	advance, _ := regular.GlyphAdvance('M')
	a := &Atlas{
		Family:     name,
		Fallback:   !known,
		Size:       size,
		CellWidth:  advance.Ceil(),
		CellHeight: (metrics.Ascent + metrics.Descent).Ceil(),
		Ascent:     metrics.Ascent.Ceil(),
		regular:    make(map[rune]Glyph),
		bold:       make(map[rune]Glyph),
	}

	runes := coveredRunes(regular)
	rows := (2*len(runes) + atlasColumns - 1) / atlasColumns
	a.Image = image.NewAlpha(image.Rect(0, 0, atlasColumns*a.CellWidth, rows*a.CellHeight))

	slot := 0
	for _, set := range []struct {
		face   font.Face
		glyphs map[rune]Glyph
	}{{regular, a.regular}, {bold, a.bold}} {
		drawer := &font.Drawer{Dst: a.Image, Src: image.Opaque, Face: set.face}
		for _, r := range runes {
			x := (slot % atlasColumns) * a.CellWidth
			y := (slot / atlasColumns) * a.CellHeight
			drawer.Dot = fixed.P(x, y+a.Ascent)
			drawer.DrawString(string(r))
			set.glyphs[r] = Glyph{X: x, Y: y}
			slot++
		}
	}
	return a, nil
}

func newFace(ttf []byte, size, dpi float64) (font.Face, error) {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("glyphs: parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("glyphs: create face: %w", err)
	}
	return face, nil
}

func coveredRunes(face font.Face) []rune {
	var runes []rune
	for _, cr := range charRanges {
		for r := cr.start; r <= cr.end; r++ {
			if _, ok := face.GlyphAdvance(r); ok {
				runes = append(runes, r)
			}
		}
	}
	return runes
}

// Lookup returns the cell for r, falling back to '?' for runes the font
// does not cover.
func (a *Atlas) Lookup(r rune, bold bool) (Glyph, bool) {
	set := a.regular
	if bold {
		set = a.bold
	}
	if g, ok := set[r]; ok {
		return g, true
	}
	g, ok := set['?']
	return g, ok
}

// Has reports whether r was rasterized.
func (a *Atlas) Has(r rune) bool {
	_, ok := a.regular[r]
	return ok
}

// Bounds returns the atlas size in pixels.
func (a *Atlas) Bounds() (width, height int) {
	b := a.Image.Bounds()
	return b.Dx(), b.Dy()
}
