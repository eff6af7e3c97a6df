package theme

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the theme used when a name is not recognized.
const DefaultName = "gruvbox"

// PaletteSize is the number of indexed ANSI colors a theme defines.
const PaletteSize = 16

// Color is an RGBA color with channels in [0,1].
type Color [4]float32

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(clamp01(c[3]) * 0xffff)
	r = uint32(clamp01(c[0])*0xffff) * a / 0xffff
	g = uint32(clamp01(c[1])*0xffff) * a / 0xffff
	b = uint32(clamp01(c[2])*0xffff) * a / 0xffff
	return r, g, b, a
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}.Clamped().Hex()
}

// Palette holds ANSI colors 0-15: black, red, green, yellow, blue, magenta,
// cyan, white, then their bright variants.
type Palette [PaletteSize]Color

// Theme is an immutable color scheme for a terminal session.
type Theme struct {
	Name       string
	Foreground Color
	Background Color
	Palette    Palette
}

// Option describes an available theme.
type Option struct {
	Name  string
	Label string
}

type scheme struct {
	label   string
	aliases []string
	fg, bg  string
	palette [PaletteSize]string
}

var registry = map[string]scheme{
	"gruvbox": {
		label: "Gruvbox Dark",
		fg:    "#ebdbb2",
		bg:    "#282828",
		palette: [PaletteSize]string{
			"#282828", "#cc241d", "#98971a", "#d79921", "#458588", "#b16286", "#689d6a", "#a89984",
			"#928374", "#fb4934", "#b8bb26", "#fabd2f", "#83a598", "#d3869b", "#8ec07c", "#ebdbb2",
		},
	},
	"solarized-dark": {
		label:   "Solarized Dark",
		aliases: []string{"solarized"},
		fg:      "#839496",
		bg:      "#002b36",
		palette: [PaletteSize]string{
			"#073642", "#dc322f", "#859900", "#b58900", "#268bd2", "#d33682", "#2aa198", "#eee8d5",
			"#002b36", "#cb4b16", "#586e75", "#657b83", "#839496", "#6c71c4", "#93a1a1", "#fdf6e3",
		},
	},
	"catppuccin-mocha": {
		label:   "Catppuccin Mocha",
		aliases: []string{"catppuccin", "catpuccin"},
		fg:      "#cdd6f4",
		bg:      "#1e1e2e",
		palette: [PaletteSize]string{
			"#45475a", "#f38ba8", "#a6e3a1", "#f9e2af", "#89b4fa", "#f5c2e7", "#94e2d5", "#bac2de",
			"#585b70", "#f38ba8", "#a6e3a1", "#f9e2af", "#89b4fa", "#f5c2e7", "#94e2d5", "#a6adc8",
		},
	},
}

// order fixes the listing order of Options and Names.
var order = []string{"gruvbox", "solarized-dark", "catppuccin-mocha"}

// Resolve returns the theme registered under name. Unknown names resolve to
// the gruvbox theme.
func Resolve(name string) Theme {
	key := canonical(name)
	s, ok := registry[key]
	if !ok {
		key = DefaultName
		s = registry[key]
	}
	t, err := build(key, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the fallback theme.
func Default() Theme {
	return Resolve(DefaultName)
}

// Names returns the canonical names of the built-in themes.
func Names() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Options lists the built-in themes with display labels.
func Options() []Option {
	opts := make([]Option, 0, len(order))
	for _, name := range order {
		opts = append(opts, Option{Name: name, Label: registry[name].label})
	}
	return opts
}

// Known reports whether name refers to a built-in theme.
func Known(name string) bool {
	_, ok := registry[canonical(name)]
	return ok
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := registry[name]; ok {
		return name
	}
	for key, s := range registry {
		for _, alias := range s.aliases {
			if alias == name {
				return key
			}
		}
	}
	return name
}

func build(name string, s scheme) (Theme, error) {
	t := Theme{Name: name}
	var err error
	if t.Foreground, err = parseHex(s.fg); err != nil {
		return Theme{}, fmt.Errorf("theme %s: foreground: %w", name, err)
	}
	if t.Background, err = parseHex(s.bg); err != nil {
		return Theme{}, fmt.Errorf("theme %s: background: %w", name, err)
	}
	for i, hex := range s.palette {
		if t.Palette[i], err = parseHex(hex); err != nil {
			return Theme{}, fmt.Errorf("theme %s: palette[%d]: %w", name, i, err)
		}
	}
	return t, nil
}

func parseHex(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, err
	}
	return Color{float32(c.R), float32(c.G), float32(c.B), 1.0}, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
