package tintgrid

import (
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// mustGrid builds a grid definition or fails the test.
func mustGrid(t testing.TB, w, h int, regions ...Region) *GridDefinition {
	t.Helper()
	g, err := NewGridDefinition("test", w, h, regions)
	if err != nil {
		t.Fatalf("NewGridDefinition: %v", err)
	}
	return g
}

// --- Test fixtures ---

const gridJSON = `{
  "name": "crates",
  "width": 16,
  "height": 16,
  "atlas": "crates.png",
  "regions": [
    {"x": 0, "y": 0, "w": 8, "h": 8, "kind": "flat"},
    {"x": 8, "y": 0, "w": 8, "h": 8},
    {"x": 0, "y": 8, "w": 16, "h": 8, "kind": "pattern", "tint": "#ff800080"}
  ]
}`

const gridYAML = `
name: crates
width: 16
height: 16
regions:
  - {x: 0, y: 0, w: 8, h: 8, kind: flat}
  - {x: 0, y: 8, w: 16, h: 8, kind: pattern}
`

// --- NewGridDefinition ---

func TestNewGridDefinitionValidates(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		regions []Region
		msg     string
	}{
		{"zero size", 0, 4, nil, "invalid size"},
		{"empty region", 4, 4, []Region{{X: 0, Y: 0, Width: 0, Height: 2}}, "empty"},
		{"out of bounds", 4, 4, []Region{{X: 2, Y: 2, Width: 3, Height: 2}}, "exceeds"},
		{"negative origin", 4, 4, []Region{{X: -1, Y: 0, Width: 2, Height: 2}}, "exceeds"},
		{"duplicate", 4, 4, []Region{{Width: 2, Height: 2}, {Width: 2, Height: 2, Kind: KindTexturePattern}}, "twice"},
	}
	for _, tt := range tests {
		_, err := NewGridDefinition(tt.name, tt.w, tt.h, tt.regions)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%s: err = %q, want it to contain %q", tt.name, err, tt.msg)
		}
	}
}

func TestNewGridDefinitionDefaultsPatternTint(t *testing.T) {
	g := mustGrid(t, 4, 4,
		Region{Width: 2, Height: 2, Kind: KindTexturePattern},
		Region{X: 2, Width: 2, Height: 2},
	)
	if tint, ok := g.Tint(Rect{0, 0, 2, 2}); !ok || tint != ColorWhite {
		t.Errorf("pattern tint = %v, %v; want white", tint, ok)
	}
	if _, ok := g.Tint(Rect{2, 0, 2, 2}); ok {
		t.Error("flat region should carry no tint")
	}
}

func TestGridRegionsIsCopy(t *testing.T) {
	g := mustGrid(t, 4, 4, Region{Width: 2, Height: 2})
	rs := g.Regions()
	rs[0].Width = 4
	if r, _ := g.Region(Rect{0, 0, 2, 2}); r.Width != 2 {
		t.Error("Regions() should return a copy")
	}
}

// --- TintStore ---

func TestGridSetTintByRectIdentity(t *testing.T) {
	g := mustGrid(t, 8, 8,
		Region{Width: 4, Height: 4, Kind: KindTexturePattern},
		Region{X: 4, Width: 4, Height: 4},
	)
	blue := color.NRGBA{0, 0, 255, 255}
	if !g.SetTint(Rect{0, 0, 4, 4}, blue) {
		t.Fatal("SetTint on pattern region returned false")
	}
	if got, _ := g.Tint(Rect{0, 0, 4, 4}); got != blue {
		t.Errorf("Tint = %v, want %v", got, blue)
	}
	if g.SetTint(Rect{4, 0, 4, 4}, blue) {
		t.Error("SetTint on flat region should be refused")
	}
	if g.SetTint(Rect{0, 0, 3, 3}, blue) {
		t.Error("SetTint on unknown rect should be refused")
	}
}

func TestGridClearTints(t *testing.T) {
	g := mustGrid(t, 8, 8,
		Region{Width: 4, Height: 4, Kind: KindTexturePattern, Tint: color.NRGBA{1, 2, 3, 255}},
		Region{X: 4, Width: 4, Height: 4, Kind: KindTexturePattern, Tint: color.NRGBA{4, 5, 6, 255}},
	)
	g.ClearTints()
	for _, r := range g.Regions() {
		if r.Tint != ColorWhite {
			t.Errorf("region %v tint = %v, want white", r.Rect(), r.Tint)
		}
	}
}

// --- Snapshot ---

func TestCaptureSnapshot(t *testing.T) {
	a := newTestAtlas(4, 4, color.NRGBA{9, 9, 9, 255})
	g := mustGrid(t, 4, 4)
	if g.HasSnapshot() {
		t.Fatal("new grid should have no snapshot")
	}
	if err := g.CaptureSnapshot(a); err != nil {
		t.Fatalf("CaptureSnapshot: %v", err)
	}
	a.Fill(Rect{0, 0, 4, 4}, ColorWhite)
	if g.Pristine().Pix[0] != 9 {
		t.Error("snapshot should be independent of the live buffer")
	}
}

func TestCaptureSnapshotMismatch(t *testing.T) {
	a := newTestAtlas(4, 4, ColorWhite)
	g := mustGrid(t, 8, 8, Region{Width: 2, Height: 2})
	err := g.CaptureSnapshot(a)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if n := len(AffectedRegions(err)); n != 1 {
		t.Errorf("affected regions = %d, want 1", n)
	}
	if g.HasSnapshot() {
		t.Error("failed capture should not install a snapshot")
	}
}

func TestSetSnapshotMismatch(t *testing.T) {
	g := mustGrid(t, 8, 8)
	if err := g.SetSnapshot(newTestAtlas(4, 4, ColorWhite).Image()); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

// --- File formats ---

func TestLoadGridDefinitionJSON(t *testing.T) {
	g, err := LoadGridDefinition([]byte(gridJSON))
	if err != nil {
		t.Fatalf("LoadGridDefinition: %v", err)
	}
	if g.Name != "crates" || g.Width != 16 || g.Height != 16 || g.AtlasPath != "crates.png" {
		t.Errorf("header = %q %dx%d %q", g.Name, g.Width, g.Height, g.AtlasPath)
	}
	rs := g.Regions()
	if len(rs) != 3 {
		t.Fatalf("regions = %d, want 3", len(rs))
	}
	if rs[1].Kind != KindFlatColor {
		t.Errorf("kind defaults to %v, want flat", rs[1].Kind)
	}
	if want := (color.NRGBA{255, 128, 0, 128}); rs[2].Tint != want {
		t.Errorf("tint = %v, want %v", rs[2].Tint, want)
	}
}

func TestLoadGridDefinitionYAML(t *testing.T) {
	g, err := LoadGridDefinitionYAML([]byte(gridYAML))
	if err != nil {
		t.Fatalf("LoadGridDefinitionYAML: %v", err)
	}
	rs := g.Regions()
	if len(rs) != 2 || rs[1].Kind != KindTexturePattern || rs[1].Tint != ColorWhite {
		t.Errorf("regions = %+v", rs)
	}
}

func TestLoadGridDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{`},
		{"bad kind", `{"width": 4, "height": 4, "regions": [{"x":0,"y":0,"w":1,"h":1,"kind":"gradient"}]}`},
		{"bad tint", `{"width": 4, "height": 4, "regions": [{"x":0,"y":0,"w":1,"h":1,"kind":"pattern","tint":"#xyz"}]}`},
		{"out of bounds", `{"width": 4, "height": 4, "regions": [{"x":3,"y":0,"w":2,"h":1}]}`},
	}
	for _, tt := range tests {
		if _, err := LoadGridDefinition([]byte(tt.data)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestGridMarshalRoundTrip(t *testing.T) {
	g, err := LoadGridDefinition([]byte(gridJSON))
	if err != nil {
		t.Fatal(err)
	}

	js, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	fromJSON, err := LoadGridDefinition(js)
	if err != nil {
		t.Fatalf("reload JSON: %v", err)
	}

	ys, err := yaml.Marshal(g)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	fromYAML, err := LoadGridDefinitionYAML(ys)
	if err != nil {
		t.Fatalf("reload YAML: %v", err)
	}

	want := g.Regions()
	for _, got := range [][]Region{fromJSON.Regions(), fromYAML.Regions()} {
		if len(got) != len(want) {
			t.Fatalf("regions = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("region %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	}
}

func TestReadGridFileResolvesAtlas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crates.grid.yaml")
	if err := os.WriteFile(path, []byte("width: 4\nheight: 4\natlas: crates.png\nregions: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := ReadGridFile(path)
	if err != nil {
		t.Fatalf("ReadGridFile: %v", err)
	}
	if g.Name != "crates.grid" {
		t.Errorf("Name = %q, want %q", g.Name, "crates.grid")
	}
	if want := filepath.Join(dir, "crates.png"); g.AtlasPath != want {
		t.Errorf("AtlasPath = %q, want %q", g.AtlasPath, want)
	}
}
