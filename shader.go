package tintgrid

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Kage shader source ---
// Ebitengine uses premultiplied alpha; the shader un-premultiplies before
// tinting and re-premultiplies its output.

const tintShaderSrc = `//kage:unit pixels
package main

var TintColor vec4
var Linear float

func toGamma(c vec3) vec3 {
	lo := c * 12.92
	hi := 1.055*pow(c, vec3(1.0/2.4)) - 0.055
	return mix(lo, hi, step(vec3(0.0031308), c))
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a == 0 {
		return vec4(0)
	}
	rgb := c.rgb / c.a
	t := TintColor.rgb
	if Linear > 0.5 {
		t = toGamma(t)
	}
	t = mix(vec3(1), t, TintColor.a)
	return vec4(clamp(rgb*t, vec3(0), vec3(1))*c.a, c.a)
}
`

// --- Lazy shader compilation (no sync.Once, compositing runs on one thread) ---

var tintShader *ebiten.Shader

func ensureTintShader() (*ebiten.Shader, error) {
	if tintShader == nil {
		s, err := ebiten.NewShader([]byte(tintShaderSrc))
		if err != nil {
			return nil, fmt.Errorf("tintgrid: failed to compile tint shader: %w", err)
		}
		tintShader = s
	}
	return tintShader, nil
}

// GPUCompositor tints pattern regions with a Kage shader and reads the result
// back into the live buffer. It must only be used while an Ebitengine game
// loop is running; see SelectCompositor.
type GPUCompositor struct {
	base    *ebiten.Image // pristine snapshot uploaded to the GPU
	baseSrc *image.NRGBA  // snapshot base was uploaded from
	target  *ebiten.Image

	uniforms  map[string]any
	tintF32   [4]float32 // persistent buffer
	tintSlice []float32  // persistent slice header pointing into tintF32
	shaderOp  ebiten.DrawRectShaderOptions
	pixBuf    []byte
}

// NewGPUCompositor creates a GPU compositor. Images are allocated on first use.
func NewGPUCompositor() *GPUCompositor {
	g := &GPUCompositor{uniforms: make(map[string]any, 2)}
	g.tintSlice = g.tintF32[:]
	g.uniforms["TintColor"] = g.tintSlice
	return g
}

// Composite draws the tinted rectangle of base into an offscreen target,
// blocks on the read-back, and copies only that rectangle into dst.
func (g *GPUCompositor) Composite(dst, base *image.NRGBA, r image.Rectangle, tint TintParams) error {
	if dst.Rect != base.Rect {
		return fmt.Errorf("tintgrid: composite target %v does not match base %v", dst.Rect, base.Rect)
	}
	r = r.Intersect(base.Rect)
	if r.Empty() {
		return nil
	}
	shader, err := ensureTintShader()
	if err != nil {
		return err
	}
	g.ensureImages(base)

	g.tintF32[0] = float32(tint.R)
	g.tintF32[1] = float32(tint.G)
	g.tintF32[2] = float32(tint.B)
	g.tintF32[3] = float32(tint.A)
	// Linear is a scalar uniform and gets boxed on every call.
	if tint.Linear {
		g.uniforms["Linear"] = float32(1)
	} else {
		g.uniforms["Linear"] = float32(0)
	}

	out := g.target.SubImage(r).(*ebiten.Image)
	out.Clear()
	g.shaderOp.GeoM.Reset()
	g.shaderOp.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	g.shaderOp.Images[0] = g.base.SubImage(r).(*ebiten.Image)
	g.shaderOp.Uniforms = g.uniforms
	out.DrawRectShader(r.Dx(), r.Dy(), shader, &g.shaderOp)

	needed := 4 * r.Dx() * r.Dy()
	if cap(g.pixBuf) < needed {
		g.pixBuf = make([]byte, needed)
	}
	g.pixBuf = g.pixBuf[:needed]
	out.ReadPixels(g.pixBuf)
	unpremultiplyInto(dst, r, g.pixBuf)
	return nil
}

// ensureImages (re)uploads the pristine snapshot when it changed identity or
// size. A commit installs a new snapshot, so identity is enough.
func (g *GPUCompositor) ensureImages(base *image.NRGBA) {
	w, h := base.Rect.Dx(), base.Rect.Dy()
	if g.target == nil || g.target.Bounds().Dx() != w || g.target.Bounds().Dy() != h {
		if g.target != nil {
			g.target.Deallocate()
		}
		g.target = ebiten.NewImage(w, h)
		g.baseSrc = nil
	}
	if g.baseSrc == base {
		return
	}
	if g.base == nil || g.base.Bounds().Dx() != w || g.base.Bounds().Dy() != h {
		if g.base != nil {
			g.base.Deallocate()
		}
		g.base = ebiten.NewImage(w, h)
	}
	g.base.WritePixels(premultiplied(base))
	g.baseSrc = base
}

// Dispose deallocates the GPU images. The compositor re-allocates them if
// used again.
func (g *GPUCompositor) Dispose() {
	if g.base != nil {
		g.base.Deallocate()
		g.base = nil
	}
	if g.target != nil {
		g.target.Deallocate()
		g.target = nil
	}
	g.baseSrc = nil
}

// premultiplied converts straight-alpha pixels to the premultiplied layout
// Ebitengine expects from WritePixels.
func premultiplied(src *image.NRGBA) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := make([]byte, 4*w*h)
	for y := 0; y < h; y++ {
		i := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		o := y * w * 4
		for x := 0; x < w; x++ {
			a := uint32(src.Pix[i+3])
			out[o+0] = uint8((uint32(src.Pix[i+0])*a + 127) / 255)
			out[o+1] = uint8((uint32(src.Pix[i+1])*a + 127) / 255)
			out[o+2] = uint8((uint32(src.Pix[i+2])*a + 127) / 255)
			out[o+3] = uint8(a)
			i += 4
			o += 4
		}
	}
	return out
}

// unpremultiplyInto writes premultiplied pixels read back from the GPU into
// rectangle r of dst as straight alpha.
func unpremultiplyInto(dst *image.NRGBA, r image.Rectangle, pixels []byte) {
	w := r.Dx()
	for y := 0; y < r.Dy(); y++ {
		i := dst.PixOffset(r.Min.X, r.Min.Y+y)
		o := y * w * 4
		for x := 0; x < w; x++ {
			cr, cg, cb, ca := pixels[o], pixels[o+1], pixels[o+2], pixels[o+3]
			if ca > 0 && ca < 255 {
				cr = uint8(min(int(cr)*255/int(ca), 255))
				cg = uint8(min(int(cg)*255/int(ca), 255))
				cb = uint8(min(int(cb)*255/int(ca), 255))
			}
			dst.Pix[i+0] = cr
			dst.Pix[i+1] = cg
			dst.Pix[i+2] = cb
			dst.Pix[i+3] = ca
			i += 4
			o += 4
		}
	}
}
