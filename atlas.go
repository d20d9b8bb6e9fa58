package tintgrid

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // decoded but reported as FormatCompressed
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PixelFormat describes the storage format an atlas was authored in.
// Only 8-bit-per-channel uncompressed formats support pixel edits.
type PixelFormat uint8

const (
	FormatRGBA32     PixelFormat = iota // 8-bit RGBA
	FormatRGB24                         // 8-bit RGB, fully opaque
	FormatRGBA64                        // 16-bit per channel
	FormatGray                          // single channel
	FormatIndexed                       // palette-indexed
	FormatCompressed                    // lossy or chroma-subsampled (JPEG, CMYK)
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA32:
		return "RGBA32"
	case FormatRGB24:
		return "RGB24"
	case FormatRGBA64:
		return "RGBA64"
	case FormatGray:
		return "Gray"
	case FormatIndexed:
		return "Indexed"
	case FormatCompressed:
		return "Compressed"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// Supported reports whether pixels of this format can be read and written.
func (f PixelFormat) Supported() bool {
	return f == FormatRGBA32 || f == FormatRGB24
}

// FormatOf classifies a decoded image.
func FormatOf(img image.Image) PixelFormat {
	switch im := img.(type) {
	case *image.NRGBA:
		if im.Opaque() {
			return FormatRGB24
		}
		return FormatRGBA32
	case *image.RGBA:
		if im.Opaque() {
			return FormatRGB24
		}
		return FormatRGBA32
	case *image.NRGBA64, *image.RGBA64:
		return FormatRGBA64
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return FormatGray
	case *image.Paletted:
		return FormatIndexed
	default:
		return FormatCompressed
	}
}

// Atlas is the live pixel buffer of a texture atlas.
//
// Texel coordinates have their origin at the bottom-left texel, the same
// orientation as UV space. The backing image is stored top-down; every
// accessor converts with row = height-1-y.
type Atlas struct {
	// Name identifies the atlas in logs and errors.
	Name string
	// Format is the authored storage format.
	Format PixelFormat
	// Readable mirrors the asset's import setting. Unreadable atlases are
	// never mutated.
	Readable bool

	pix   *image.NRGBA
	dirty bool
}

// NewAtlas copies img into a new live buffer. The atlas starts readable and
// clean; Format is derived from img.
func NewAtlas(name string, img image.Image) *Atlas {
	b := img.Bounds()
	pix := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(pix, pix.Bounds(), img, b.Min, draw.Src)
	return &Atlas{
		Name:     name,
		Format:   FormatOf(img),
		Readable: true,
		pix:      pix,
	}
}

// DecodeAtlas decodes a png, bmp, tiff, webp or jpeg stream into an Atlas.
func DecodeAtlas(name string, r io.Reader) (*Atlas, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: decode atlas %s: %w", name, err)
	}
	return NewAtlas(name, img), nil
}

// LoadAtlasFile decodes the atlas image stored at path.
func LoadAtlasFile(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: open atlas: %w", err)
	}
	defer f.Close()
	return DecodeAtlas(filepath.Base(path), f)
}

// Width returns the atlas width in texels.
func (a *Atlas) Width() int { return a.pix.Rect.Dx() }

// Height returns the atlas height in texels.
func (a *Atlas) Height() int { return a.pix.Rect.Dy() }

// Image returns the live buffer. Writes through it bypass dirty tracking.
func (a *Atlas) Image() *image.NRGBA { return a.pix }

// Dirty reports whether the live buffer changed since the last commit.
func (a *Atlas) Dirty() bool { return a.dirty }

// MarkDirty flags the live buffer as needing re-encode.
func (a *Atlas) MarkDirty() { a.dirty = true }

// ImageRect converts a texel-space rectangle into the top-down image
// rectangle it covers, clipped to the atlas bounds.
func (a *Atlas) ImageRect(r Rect) image.Rectangle {
	h := a.Height()
	return image.Rect(r.X, h-(r.Y+r.Height), r.X+r.Width, h-r.Y).Intersect(a.pix.Rect)
}

// At returns the color of the texel at (x, y). Out-of-range texels are
// transparent black.
func (a *Atlas) At(x, y int) color.NRGBA {
	row := a.Height() - 1 - y
	if !(image.Point{X: x, Y: row}.In(a.pix.Rect)) {
		return color.NRGBA{}
	}
	return a.pix.NRGBAAt(x, row)
}

// Fill overwrites every texel of r with c. No other texel is touched.
func (a *Atlas) Fill(r Rect, c color.NRGBA) {
	ir := a.ImageRect(r)
	for y := ir.Min.Y; y < ir.Max.Y; y++ {
		i := a.pix.PixOffset(ir.Min.X, y)
		for x := ir.Min.X; x < ir.Max.X; x++ {
			a.pix.Pix[i+0] = c.R
			a.pix.Pix[i+1] = c.G
			a.pix.Pix[i+2] = c.B
			a.pix.Pix[i+3] = c.A
			i += 4
		}
	}
}

// Snapshot returns an independently allocated copy of the live buffer.
func (a *Atlas) Snapshot() *image.NRGBA {
	return cloneNRGBA(a.pix)
}

// CheckModifiable reports every reason the atlas cannot be edited. All
// causes are combined into one *ConfigError.
func (a *Atlas) CheckModifiable() error {
	var err error
	if !a.Readable {
		err = multierr.Append(err, ErrNotReadable)
	}
	if !a.Format.Supported() {
		err = multierr.Append(err, fmt.Errorf("%w (got %s)", ErrUnsupportedFormat, a.Format))
	}
	if err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}
