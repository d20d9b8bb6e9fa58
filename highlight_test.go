package tintgrid

import (
	"image/color"
	"math"
	"testing"
)

func TestHighlighterPulses(t *testing.T) {
	h := NewHighlighter(color.NRGBA{255, 0, 255, 255}, 0.5)
	if h.Blend() != 0 {
		t.Fatalf("initial blend = %v, want 0", h.Blend())
	}

	h.Update(0.25)
	mid := h.Blend()
	if mid <= 0 || mid >= h.MaxBlend {
		t.Errorf("blend halfway up = %v, want in (0, %v)", mid, h.MaxBlend)
	}

	h.Update(0.25)
	if math.Abs(float64(h.Blend()-h.MaxBlend)) > 1e-4 {
		t.Errorf("blend at peak = %v, want %v", h.Blend(), h.MaxBlend)
	}

	// The pulse turns around and falls back.
	h.Update(0.5)
	if h.Blend() > 1e-4 {
		t.Errorf("blend after full cycle = %v, want 0", h.Blend())
	}
	h.Update(0.1)
	if h.Blend() <= 0 {
		t.Errorf("blend should rise again, got %v", h.Blend())
	}
}

func TestHighlighterDefaultPeriod(t *testing.T) {
	h := NewHighlighter(ColorWhite, 0)
	h.Update(0.5)
	if math.Abs(float64(h.Blend()-h.MaxBlend)) > 1e-4 {
		t.Errorf("blend = %v, want peak after the default half period", h.Blend())
	}
}

func TestHighlighterReset(t *testing.T) {
	h := NewHighlighter(ColorWhite, 1)
	h.Update(0.3)
	h.Reset()
	if h.Blend() != 0 {
		t.Errorf("blend after Reset = %v, want 0", h.Blend())
	}
}

func TestHighlighterRenderLeavesAtlas(t *testing.T) {
	base := color.NRGBA{0, 0, 0, 200}
	a := newTestAtlas(8, 8, base)
	cell := newCell(Rect{0, 0, 4, 4}, KindFlatColor, base)
	h := NewHighlighter(color.NRGBA{255, 255, 255, 255}, 1)
	h.MaxBlend = 1
	h.Reset()
	h.Update(1)

	preview := h.Render(a, cell)
	if a.At(0, 0) != base || a.Dirty() {
		t.Error("Render must not touch the live buffer")
	}
	// Texel (0, 0) is image row 7.
	if got := preview.NRGBAAt(0, 7); got != (color.NRGBA{255, 255, 255, 200}) {
		t.Errorf("highlighted texel = %v, want white with alpha kept", got)
	}
	if got := preview.NRGBAAt(7, 0); got != base {
		t.Errorf("texel outside the cell = %v, want %v", got, base)
	}

	// The preview buffer is reused.
	if h.Render(a, nil) != preview {
		t.Error("Render should reuse its preview image")
	}
	if got := preview.NRGBAAt(0, 7); got != base {
		t.Errorf("nil cell preview = %v, want a plain copy", got)
	}
}
