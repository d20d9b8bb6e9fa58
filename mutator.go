package tintgrid

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// TintParams is a tint as handed to a Compositor. Channels are in [0, 1].
// When Linear is set, R, G and B are linear-light values and the compositor
// re-encodes them to gamma before blending, so both pipelines blend alike.
type TintParams struct {
	R, G, B, A float64
	Linear     bool
}

// gamma returns the tint's RGB in gamma space.
func (t TintParams) gamma() (r, g, b float64) {
	if !t.Linear {
		return t.R, t.G, t.B
	}
	c := colorful.LinearRgb(t.R, t.G, t.B)
	return c.R, c.G, c.B
}

// Compositor blends a tint over base, restricted to r, and writes the result
// into the same rectangle of dst. base and dst have identical bounds and r is
// in image (top-down) coordinates.
type Compositor interface {
	Composite(dst, base *image.NRGBA, r image.Rectangle, tint TintParams) error
}

// CPUCompositor is the software tint path. It is always available and matches
// the GPU shader's math.
type CPUCompositor struct{}

// Composite multiplies base RGB by the tint (blended towards white by the
// tint's alpha) and keeps base alpha. Fully transparent texels stay
// transparent black, as they do after a premultiplied GPU pass.
func (CPUCompositor) Composite(dst, base *image.NRGBA, r image.Rectangle, tint TintParams) error {
	if dst.Rect != base.Rect {
		return fmt.Errorf("tintgrid: composite target %v does not match base %v", dst.Rect, base.Rect)
	}
	r = r.Intersect(base.Rect)
	tr, tg, tb := tint.gamma()
	a := clamp01(tint.A)
	tr = 1 + (tr-1)*a
	tg = 1 + (tg-1)*a
	tb = 1 + (tb-1)*a
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := base.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			s := base.Pix[i : i+4 : i+4]
			d := dst.Pix[i : i+4 : i+4]
			if s[3] == 0 {
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0
			} else {
				d[0] = byte255(unit(s[0]) * tr)
				d[1] = byte255(unit(s[1]) * tg)
				d[2] = byte255(unit(s[2]) * tb)
				d[3] = s[3]
			}
			i += 4
		}
	}
	return nil
}

// SelectCompositor is the capability gate between the GPU and CPU paths.
// gpuAvailable must only be true while an Ebitengine game loop is running,
// since reading pixels back from the GPU requires it.
func SelectCompositor(gpuAvailable bool) Compositor {
	if gpuAvailable {
		return NewGPUCompositor()
	}
	return CPUCompositor{}
}

// Mutator writes cell colors into an atlas's live buffer.
type Mutator struct {
	// ColorSpace is the pipeline's active color space.
	ColorSpace ColorSpace

	atlas      *Atlas
	grid       *GridDefinition
	compositor Compositor
}

// NewMutator returns a mutator for atlas, compositing pattern cells against
// grid's pristine snapshot. A nil compositor selects CPUCompositor.
func NewMutator(atlas *Atlas, grid *GridDefinition, compositor Compositor) *Mutator {
	if compositor == nil {
		compositor = CPUCompositor{}
	}
	return &Mutator{atlas: atlas, grid: grid, compositor: compositor}
}

// SetCompositor swaps the compositing backend.
func (m *Mutator) SetCompositor(c Compositor) {
	if c == nil {
		c = CPUCompositor{}
	}
	m.compositor = c
}

// Apply recolors the texels of cell's rectangle with c.
//
// Flat cells are filled directly. Pattern cells are tinted from the pristine
// snapshot, never from the live buffer, so tints do not compound across
// edits. Either way the atlas is marked dirty. Apply refuses to touch pixels
// when the atlas is unreadable or in an unsupported format.
func (m *Mutator) Apply(cell *Cell, c color.NRGBA) error {
	if err := m.atlas.CheckModifiable(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return &ConfigError{Err: ce.Err, Regions: []Rect{cell.Rect}}
		}
		return err
	}
	switch cell.Kind {
	case KindFlatColor:
		m.atlas.Fill(cell.Rect, c)
	case KindTexturePattern:
		if err := m.composite(cell.Rect, c); err != nil {
			return err
		}
	default:
		return fmt.Errorf("tintgrid: cell %v has unknown kind %v", cell.Rect, cell.Kind)
	}
	m.atlas.MarkDirty()
	return nil
}

func (m *Mutator) composite(r Rect, c color.NRGBA) error {
	base := m.grid.Pristine()
	if base == nil {
		return &ConfigError{Err: ErrNoSnapshot, Regions: []Rect{r}}
	}
	live := m.atlas.Image()
	if base.Rect != live.Rect {
		return &ConfigError{Err: fmt.Errorf("%w: snapshot %v, atlas %v", ErrDimensionMismatch, base.Rect, live.Rect),
			Regions: []Rect{r}}
	}
	if err := m.compositor.Composite(live, base, m.atlas.ImageRect(r), m.tintParams(c)); err != nil {
		return fmt.Errorf("tintgrid: tint %v: %w", r, err)
	}
	return nil
}

// tintParams converts an authored tint into the pipeline's color space.
func (m *Mutator) tintParams(c color.NRGBA) TintParams {
	t := TintParams{R: unit(c.R), G: unit(c.G), B: unit(c.B), A: unit(c.A)}
	if m.ColorSpace == ColorSpaceLinear {
		t.R, t.G, t.B = colorful.Color{R: t.R, G: t.G, B: t.B}.LinearRgb()
		t.Linear = true
	}
	return t
}
