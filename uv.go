package tintgrid

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// wrapUV folds one UV axis into a single [0, 1] tile. Exact integers sit on a
// tile boundary: even integers map to 0 and odd integers to 1, which keeps
// mirrored tiles sampling the same edge.
func wrapUV(v float64) float64 {
	a := math.Abs(v)
	whole := math.Trunc(a)
	if a == whole {
		if math.Mod(whole, 2) == 0 {
			return 0
		}
		return 1
	}
	return a - whole
}

// texelCoord converts a wrapped UV axis to a texel index: ceil(n*dim - 1),
// clamped to [0, dim-1] so that n == 0 lands on the first texel.
func texelCoord(n float64, dim int) int {
	t := int(math.Ceil(n*float64(dim) - 1))
	if t < 0 {
		return 0
	}
	if t > dim-1 {
		return dim - 1
	}
	return t
}

// UVTexel returns the texel a UV sample lands on in a width x height atlas.
// ok is false for samples with a negative V, the "no valid UV" sentinel.
func UVTexel(uv Vec2, width, height int) (x, y int, ok bool) {
	if uv.Y < 0 {
		return 0, 0, false
	}
	return texelCoord(wrapUV(uv.X), width), texelCoord(wrapUV(uv.Y), height), true
}

// LoadUVs parses a JSON array of [u, v] pairs.
func LoadUVs(data []byte) ([]Vec2, error) {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("tintgrid: failed to parse UVs: %w", err)
	}
	uvs := make([]Vec2, len(pairs))
	for i, p := range pairs {
		uvs[i] = Vec2{X: p[0], Y: p[1]}
	}
	return uvs, nil
}

// ReadUVFile loads a UV array written as JSON [u, v] pairs.
func ReadUVFile(path string) ([]Vec2, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: read uvs %s: %w", path, err)
	}
	return LoadUVs(data)
}
