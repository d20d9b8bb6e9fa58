package tintgrid

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Highlighter renders a preview of the atlas in which one cell pulses
// towards a highlight color, so a host can show which texels a palette entry
// controls. It never touches the live buffer.
//
// There is no global animation manager; hosts call Update themselves.
type Highlighter struct {
	// Color is blended over the selected cell.
	Color color.NRGBA
	// MaxBlend is the strongest blend factor reached by the pulse, in [0, 1].
	MaxBlend float32

	period  float32
	fn      ease.TweenFunc
	tween   *gween.Tween
	rising  bool
	blend   float32
	preview *image.NRGBA
}

// NewHighlighter returns a highlighter pulsing from no blend to MaxBlend and
// back, each half taking period seconds.
func NewHighlighter(c color.NRGBA, period float32) *Highlighter {
	if period <= 0 {
		period = 0.5
	}
	h := &Highlighter{Color: c, MaxBlend: 0.75, period: period, fn: ease.InOutSine}
	h.restart(0, true)
	return h
}

func (h *Highlighter) restart(from float32, rising bool) {
	to := float32(0)
	if rising {
		to = h.MaxBlend
	}
	h.rising = rising
	h.tween = gween.New(from, to, h.period, h.fn)
}

// Update advances the pulse by dt seconds.
func (h *Highlighter) Update(dt float32) {
	v, done := h.tween.Update(dt)
	h.blend = v
	if done {
		h.restart(v, !h.rising)
	}
}

// Blend returns the current blend factor.
func (h *Highlighter) Blend() float32 { return h.blend }

// Reset restarts the pulse from no blend.
func (h *Highlighter) Reset() {
	h.blend = 0
	h.restart(0, true)
}

// Render returns a preview of atlas with cell's rectangle blended towards
// Color by the current factor. Texel alpha is kept. The returned image is
// reused by the next call; a nil cell yields a plain copy.
func (h *Highlighter) Render(atlas *Atlas, cell *Cell) *image.NRGBA {
	src := atlas.Image()
	if h.preview == nil || h.preview.Rect != src.Rect {
		h.preview = image.NewNRGBA(src.Rect)
	}
	draw.Draw(h.preview, h.preview.Rect, src, src.Rect.Min, draw.Src)
	if cell == nil || h.blend <= 0 {
		return h.preview
	}

	t := float64(h.blend)
	hr, hg, hb := unit(h.Color.R), unit(h.Color.G), unit(h.Color.B)
	r := atlas.ImageRect(cell.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := h.preview.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			p := h.preview.Pix[i : i+3 : i+3]
			p[0] = byte255(unit(p[0]) + (hr-unit(p[0]))*t)
			p[1] = byte255(unit(p[1]) + (hg-unit(p[1]))*t)
			p[2] = byte255(unit(p[2]) + (hb-unit(p[2]))*t)
			i += 4
		}
	}
	return h.preview
}
