package tintgrid

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Commit encodes the atlas's live buffer losslessly to path and advances the
// grid's pristine snapshot to the saved pixels. Pattern tints are cleared
// because the snapshot now contains them. This is the only operation that
// moves the snapshot.
//
// When the buffer is unchanged since the last commit to the same path,
// Commit does nothing and returns false.
func Commit(atlas *Atlas, grid *GridDefinition, path string) (bool, error) {
	if !atlas.Dirty() && grid.committedPath == path && grid.HasSnapshot() {
		return false, nil
	}
	if atlas.Width() != grid.Width || atlas.Height() != grid.Height {
		return false, &ConfigError{Err: fmt.Errorf("%w: atlas %dx%d, grid %dx%d",
			ErrDimensionMismatch, atlas.Width(), atlas.Height(), grid.Width, grid.Height), Regions: grid.Rects()}
	}
	if err := writeImage(path, atlas.Image()); err != nil {
		return false, err
	}
	grid.ClearTints()
	if err := grid.CaptureSnapshot(atlas); err != nil {
		return false, err
	}
	grid.committedPath = path
	atlas.dirty = false
	return true, nil
}

// EncodeImage writes img in the lossless format named by ext
// (".png", ".bmp", ".tif" or ".tiff").
func EncodeImage(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png", "":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("tintgrid: no lossless encoder for %q", ext)
	}
}

// writeImage encodes an image to the file at the given path.
func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tintgrid: create %s: %w", path, err)
	}
	if err := EncodeImage(f, img, filepath.Ext(path)); err != nil {
		f.Close()
		return fmt.Errorf("tintgrid: encode %s: %w", path, err)
	}
	return f.Close()
}
