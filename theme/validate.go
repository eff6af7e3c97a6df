package theme

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by Validate for colors outside the unit range or
// with partial opacity.
var ErrMalformed = errors.New("malformed theme color")

// Validate checks that every defined slot holds a well-formed, fully opaque
// color.
func Validate(t Theme) error {
	if err := checkColor(t.Foreground); err != nil {
		return fmt.Errorf("foreground: %w", err)
	}
	if err := checkColor(t.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	for i, c := range t.Palette {
		if err := checkColor(c); err != nil {
			return fmt.Errorf("palette[%d]: %w", i, err)
		}
	}
	return nil
}

func checkColor(c Color) error {
	for i, v := range c {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: channel %d = %v", ErrMalformed, i, v)
		}
	}
	if c[3] != 1 {
		return fmt.Errorf("%w: alpha = %v", ErrMalformed, c[3])
	}
	return nil
}
