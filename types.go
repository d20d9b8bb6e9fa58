package tintgrid

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorWhite is the default tint for texture-pattern cells (no color modification).
var ColorWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Vec2 is a 2D UV coordinate. Samples with a negative Y are treated as
// "no valid UV" and skipped by the mapper.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in atlas texel space. The origin is the
// bottom-left texel, matching UV space, and Width/Height are in texels.
// Rect is comparable and doubles as the identity key of a Region.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the texel (x, y) lies inside the rectangle.
// Edge texels are inside: X <= x <= X+Width-1.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x <= r.X+r.Width-1 &&
		y >= r.Y && y <= r.Y+r.Height-1
}

// Center returns the texel sampled to read a flat region's color.
func (r Rect) Center() (x, y int) {
	return int(float64(r.X) + float64(r.Width)*0.5), int(float64(r.Y) + float64(r.Height)*0.5)
}

// Empty reports whether the rectangle covers no texels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Kind tags a region (and the cells built from it) with how its pixels are
// recolored. Mutation dispatches on it in one place (Mutator.Apply).
type Kind uint8

const (
	KindFlatColor      Kind = iota // solid color; recolored by direct fill
	KindTexturePattern             // detailed pattern; recolored by tint compositing
)

func (k Kind) String() string {
	switch k {
	case KindFlatColor:
		return "flat"
	case KindTexturePattern:
		return "pattern"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind accepts the names used in grid definition files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat", "flatcolor", "flat_color":
		return KindFlatColor, nil
	case "pattern", "texture", "texturepattern", "texture_pattern":
		return KindTexturePattern, nil
	}
	return 0, fmt.Errorf("tintgrid: unknown region kind %q", s)
}

// UpdateMode determines when edited cell colors reach the atlas.
type UpdateMode uint8

const (
	UpdateAuto   UpdateMode = iota // dirty cells are applied on every interaction
	UpdateManual                   // dirty cells are applied only on an explicit flush
)

func (m UpdateMode) String() string {
	if m == UpdateManual {
		return "manual"
	}
	return "auto"
}

// ColorSpace is the active color space of the rendering pipeline. It only
// affects how a tint is handed to the compositor.
type ColorSpace uint8

const (
	ColorSpaceGamma  ColorSpace = iota // colors are passed as authored (sRGB)
	ColorSpaceLinear                   // colors are linearized before compositing
)

func (cs ColorSpace) String() string {
	if cs == ColorSpaceLinear {
		return "linear"
	}
	return "gamma"
}

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("tintgrid: invalid alpha in color %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("tintgrid: invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// HexColor formats c as "#rrggbb", or "#rrggbbaa" when c is not opaque.
func HexColor(c color.NRGBA) string {
	hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A != 255 {
		hex += fmt.Sprintf("%02x", c.A)
	}
	return hex
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// unit converts an 8-bit channel to [0, 1].
func unit(v uint8) float64 {
	return float64(v) / 255
}

// byte255 converts a [0, 1] channel to 8 bits with rounding.
func byte255(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
