package display

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"codeberg.org/mutker/ledtop/internal/config"
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
)

// ParseColor parses a hex color as written in the config file
func ParseColor(s string) (openrgb.Color, error) {
	c, err := config.ParseHex(s)
	if err != nil {
		return openrgb.Color{}, errors.New().Wrap(errors.ErrInvalidColor, err).WithData(s)
	}
	return fromColorful(c), nil
}

func fromColorful(c colorful.Color) openrgb.Color {
	r, g, b := c.Clamped().RGB255()
	return openrgb.Color{R: r, G: g, B: b}
}

// Scale applies a brightness percentage to c, rounding half up
func Scale(c openrgb.Color, brightness int) openrgb.Color {
	if brightness >= 100 {
		return c
	}
	scale := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) * float64(brightness) / 100))
	}
	return openrgb.Color{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}
