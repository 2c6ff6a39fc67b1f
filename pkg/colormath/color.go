// color.go - Brand color parsing and the channel math every derived color comes from.
package colormath

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var (
	// DefaultBrand is substituted whenever an event carries no usable brand color.
	DefaultBrand = color.NRGBA{R: 0x6C, G: 0x5C, B: 0xE7, A: 0xFF}

	// Light is the canonical foreground for dark backgrounds.
	Light = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	// Dark is the canonical foreground for light backgrounds.
	Dark = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
)

// ParseHex parses "#rrggbb" (the "#" is optional, case is ignored).
func ParseHex(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected 6-char hex", s)
	}

	rv, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid red channel in %q: %w", s, err)
	}
	gv, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid green channel in %q: %w", s, err)
	}
	bv, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid blue channel in %q: %w", s, err)
	}

	return color.NRGBA{R: uint8(rv), G: uint8(gv), B: uint8(bv), A: 0xFF}, nil
}

// BrandOrDefault parses s and falls back to DefaultBrand on any error.
func BrandOrDefault(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		return DefaultBrand
	}
	return c
}

// Hex formats c as "#RRGGBB". Alpha is dropped.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Luminance returns 0.299R + 0.587G + 0.114B with channels scaled to [0,1].
func Luminance(c color.NRGBA) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// Contrast picks the readable foreground for text drawn on bg.
func Contrast(bg color.NRGBA) color.NRGBA {
	if Luminance(bg) <= 0.5 {
		return Light
	}
	return Dark
}

// Darken multiplies every channel by f, truncating toward zero.
func Darken(c color.NRGBA, f float64) color.NRGBA {
	scale := func(v uint8) uint8 { return clamp(int(float64(v) * f)) }
	return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}

// Lighten adds delta to every channel.
func Lighten(c color.NRGBA, delta int) color.NRGBA {
	return color.NRGBA{
		R: clamp(int(c.R) + delta),
		G: clamp(int(c.G) + delta),
		B: clamp(int(c.B) + delta),
		A: c.A,
	}
}

// WithAlpha returns c with its alpha set to a (0..1) of full opacity.
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = clamp(int(math.Round(a * 255)))
	return c
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
