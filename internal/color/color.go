// Package color holds the RGB value pushed to the fixture and the clamped
// arithmetic used to interpolate between two values.
package color

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex is returned by Parse for anything that is not #RRGGBB.
var ErrInvalidHex = errors.New("invalid hex color")

// Color is an RGB triple. Components are always within [0,255].
type Color struct {
	R, G, B uint8
}

// Delta is the signed difference between two colors. It is the only place
// a component may leave the byte range, and is folded back through Add.
type Delta struct {
	R, G, B float64
}

var (
	Black = Color{}
	White = Color{R: 0xff, G: 0xff, B: 0xff}
)

// New builds a color from integer components, clamping each to [0,255].
func New(r, g, b int) Color {
	return Color{R: clamp(float64(r)), G: clamp(float64(g)), B: clamp(float64(b))}
}

// Parse reads a "#RRGGBB" string. Hex digits may be of either case.
func Parse(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	for _, ch := range s[1:] {
		if !isHexDigit(ch) {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
		}
	}

	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return Color{}, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}

	return FromColorful(c), nil
}

// MustParse is Parse for package-level literals.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return c
}

// FromColorful converts a go-colorful value, rounding to the nearest byte.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()

	return Color{R: r, G: g, B: b}
}

// Colorful returns the go-colorful representation.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
}

// Hex formats the color as upper-case "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("Color(r=%d, g=%d, b=%d)", c.R, c.G, c.B)
}

// IsBlack reports whether every component is zero.
func (c Color) IsBlack() bool {
	return c == Black
}

// Sub returns c - o as a signed delta.
func (c Color) Sub(o Color) Delta {
	return Delta{
		R: float64(c.R) - float64(o.R),
		G: float64(c.G) - float64(o.G),
		B: float64(c.B) - float64(o.B),
	}
}

// Add applies d to c. Fractional components are truncated toward zero and
// the result is clamped.
func (c Color) Add(d Delta) Color {
	return Color{
		R: clamp(float64(c.R) + d.R),
		G: clamp(float64(c.G) + d.G),
		B: clamp(float64(c.B) + d.B),
	}
}

// Plus adds two colors component-wise, saturating at 255.
func (c Color) Plus(o Color) Color {
	return c.Add(Delta{R: float64(o.R), G: float64(o.G), B: float64(o.B)})
}

// Minus subtracts o from c component-wise, saturating at 0.
func (c Color) Minus(o Color) Color {
	return Black.Add(c.Sub(o))
}

// Scale multiplies each component by f and clamps.
func (c Color) Scale(f float64) Color {
	return Black.Add(Delta{R: float64(c.R) * f, G: float64(c.G) * f, B: float64(c.B) * f})
}

// Scale multiplies the delta by f.
func (d Delta) Scale(f float64) Delta {
	return Delta{R: d.R * f, G: d.G * f, B: d.B * f}
}

// Lerp returns c + (to - c) * t.
func (c Color) Lerp(to Color, t float64) Color {
	return c.Add(to.Sub(c).Scale(t))
}

func clamp(v float64) uint8 {
	// truncates toward zero
	i := int(v)
	if i < 0 {
		return 0
	}

	if i > 255 {
		return 255
	}

	return uint8(i)
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
