package config

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/javanhut/svte/keybind"
)

//go:embed defaults.toml
var defaultsTOML []byte

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the terminal configuration.
type Config struct {
	Title           string            `toml:"title"`
	WindowWidth     int               `toml:"window_width"`
	WindowHeight    int               `toml:"window_height"`
	FontName        string            `toml:"font_name"`
	FontSize        float64           `toml:"font_size"`
	ScrollbackLines int               `toml:"scrollback_lines"`
	ColorScheme     string            `toml:"color_scheme"`
	ShellFallback   string            `toml:"shell_fallback"`
	Keys            map[string]string `toml:"keys"`
}

// Default returns the compiled-in configuration.
func Default() (*Config, error) {
	return Decode(defaultsTOML)
}

// Decode parses a TOML document and validates the result. Keys missing from
// data are left at their zero value.
func Decode(data []byte) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks numeric ranges and required values.
func (c *Config) Validate() error {
	switch {
	case c.WindowWidth <= 0 || c.WindowHeight <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.WindowWidth, c.WindowHeight)
	case c.FontSize <= 0:
		return fmt.Errorf("%w: font_size %v", ErrInvalidConfig, c.FontSize)
	case c.ScrollbackLines < 0:
		return fmt.Errorf("%w: scrollback_lines %d", ErrInvalidConfig, c.ScrollbackLines)
	case strings.TrimSpace(c.FontName) == "":
		return fmt.Errorf("%w: font_name is empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ShellFallback) == "":
		return fmt.Errorf("%w: shell_fallback is empty", ErrInvalidConfig)
	}
	return nil
}

// Accelerators maps the [keys] table onto key binding actions.
func (c *Config) Accelerators() (map[keybind.Action]string, error) {
	out := make(map[keybind.Action]string, len(c.Keys))
	names := make([]string, 0, len(c.Keys))
	for name := range c.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		action, ok := keybind.ActionFromName(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown action %q in [keys]", ErrInvalidConfig, name)
		}
		out[action] = c.Keys[name]
	}
	return out, nil
}
