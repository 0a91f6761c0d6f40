// Package graphic defines the graphical payloads carried between graph
// nodes: colors, vector and raster tables, groups and artboards, gradients,
// fonts, brush strokes, curves, viewport footprints and the style
// enumerations. Geometry primitives come from gogpu/gg.
package graphic

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

// DVec2 is a 2D vector of float64.
type DVec2 = gg.Point

// DAffine2 is a 2x3 affine transform.
type DAffine2 = gg.Matrix

// UVec2 is a 2D vector of uint32, used for pixel resolutions.
type UVec2 struct {
	X, Y uint32
}

// IVec2 is a 2D vector of int32, used for artboard placement.
type IVec2 struct {
	X, Y int32
}

// Color is a straight-alpha linear RGBA color with channels in [0, 1].
type Color gg.RGBA

var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Yellow      = Color{1, 1, 0, 1}
	Cyan        = Color{0, 1, 1, 1}
	Magenta     = Color{1, 0, 1, 1}
	Transparent = Color{}
)

// NamedColors maps palette constant names (as written after "Color::") to
// colors.
var NamedColors = map[string]Color{
	"BLACK":       Black,
	"WHITE":       White,
	"RED":         Red,
	"GREEN":       Green,
	"BLUE":        Blue,
	"YELLOW":      Yellow,
	"CYAN":        Cyan,
	"MAGENTA":     Magenta,
	"TRANSPARENT": Transparent,
}

// ParseHex parses "rrggbb" or "rrggbbaa", with an optional leading '#'.
// Unlike gg.Hex it rejects malformed input.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("hex color %q: want 6 or 8 digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("hex color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// Hex returns the color as lower-case "rrggbbaa".
func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// ToGG returns the gg form of c.
func (c Color) ToGG() gg.RGBA { return gg.RGBA(c) }

// NRGBA quantizes c to 8 bits per channel.
func (c Color) NRGBA() color.NRGBA {
	q := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return color.NRGBA{R: q(c.R), G: q(c.G), B: q(c.B), A: q(c.A)}
}

// ColorFromNRGBA converts an 8-bit straight-alpha color.
func ColorFromNRGBA(n color.NRGBA) Color {
	return Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// String is the debug form used by primitive text rendering.
func (c Color) String() string {
	return fmt.Sprintf("Color { red: %v, green: %v, blue: %v, alpha: %v }", c.R, c.G, c.B, c.A)
}
