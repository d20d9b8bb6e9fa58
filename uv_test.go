package tintgrid

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWrapUV(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{2, 0},
		{3, 1},
		{-1, 1},
		{-2, 0},
		{0.25, 0.25},
		{1.5, 0.5},
		{-0.25, 0.25},
		{-2.75, 0.75},
	}
	for _, tt := range tests {
		if got := wrapUV(tt.in); got != tt.want {
			t.Errorf("wrapUV(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTexelCoord(t *testing.T) {
	tests := []struct {
		n    float64
		dim  int
		want int
	}{
		{0, 4, 0}, // would be -1 without clamping
		{1, 4, 3},
		{0.1, 4, 0},
		{0.25, 4, 0}, // exactly on a texel edge: ceil(1-1)
		{0.26, 4, 1},
		{0.9, 4, 3},
		{0.5, 8, 3},
		// Dimensions that are not powers of two.
		{1.0 / 3, 3, 0}, // texel edge: 1/3*3 rounds to exactly 1
		{2.0 / 3, 3, 1},
		{0.34, 3, 1},
		{0.1, 3, 0},
		{1, 3, 2},
		{0.2, 5, 0}, // texel edge
		{0.4, 5, 1}, // texel edge
		{0.41, 5, 2},
		{0.5, 7, 3},
		{0.99, 7, 6},
		{1, 7, 6},
	}
	for _, tt := range tests {
		if got := texelCoord(tt.n, tt.dim); got != tt.want {
			t.Errorf("texelCoord(%v, %d) = %d, want %d", tt.n, tt.dim, got, tt.want)
		}
	}
}

func TestUVTexelBoundariesInBounds(t *testing.T) {
	const w, h = 16, 8
	for _, uv := range []Vec2{{0, 0}, {1, 1}, {0, 1}, {1, 0}, {2, 2}, {3, 3}, {-1, 0}} {
		x, y, ok := UVTexel(uv, w, h)
		if !ok {
			t.Errorf("UVTexel(%v) skipped", uv)
			continue
		}
		if x < 0 || x >= w || y < 0 || y >= h {
			t.Errorf("UVTexel(%v) = (%d, %d), out of %dx%d", uv, x, y, w, h)
		}
	}
	if x, y, _ := UVTexel(Vec2{0, 0}, w, h); x != 0 || y != 0 {
		t.Errorf("UVTexel(0, 0) = (%d, %d), want (0, 0)", x, y)
	}
	if x, y, _ := UVTexel(Vec2{1, 1}, w, h); x != w-1 || y != h-1 {
		t.Errorf("UVTexel(1, 1) = (%d, %d), want (%d, %d)", x, y, w-1, h-1)
	}
}

func TestUVTexelNegativeVSkipped(t *testing.T) {
	if _, _, ok := UVTexel(Vec2{0.5, -0.1}, 4, 4); ok {
		t.Error("negative V should be skipped")
	}
	// Negative U is a valid mirrored coordinate.
	if _, _, ok := UVTexel(Vec2{-0.5, 0.5}, 4, 4); !ok {
		t.Error("negative U should not be skipped")
	}
}

func TestLoadUVs(t *testing.T) {
	uvs, err := LoadUVs([]byte(`[[0.1, 0.2], [1.5, -1]]`))
	if err != nil {
		t.Fatalf("LoadUVs: %v", err)
	}
	want := []Vec2{{0.1, 0.2}, {1.5, -1}}
	if len(uvs) != len(want) {
		t.Fatalf("len = %d, want %d", len(uvs), len(want))
	}
	for i := range want {
		if uvs[i] != want[i] {
			t.Errorf("uvs[%d] = %v, want %v", i, uvs[i], want[i])
		}
	}
}

func TestLoadUVsInvalid(t *testing.T) {
	if _, err := LoadUVs([]byte(`{"u": 1}`)); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestReadUVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uvs.json")
	if err := os.WriteFile(path, []byte(`[[0.5, 0.5]]`), 0o644); err != nil {
		t.Fatal(err)
	}
	uvs, err := ReadUVFile(path)
	if err != nil {
		t.Fatalf("ReadUVFile: %v", err)
	}
	if len(uvs) != 1 || uvs[0] != (Vec2{0.5, 0.5}) {
		t.Errorf("uvs = %v", uvs)
	}
	if _, err := ReadUVFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
