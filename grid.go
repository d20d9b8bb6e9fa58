package tintgrid

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Region is one authored rectangle of a grid definition.
// Value type; identity is its Rect.
type Region struct {
	X, Y          int // bottom-left texel of the rectangle
	Width, Height int
	Kind          Kind
	// Tint is the last tint applied to a texture-pattern region. Ignored for
	// flat regions.
	Tint color.NRGBA
}

// Rect returns the region's identity key.
func (r Region) Rect() Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// TintStore is the state shared by every surface mapped onto one atlas:
// pattern tints keyed by region rectangle. Writes are last-writer-wins.
type TintStore interface {
	// Tint returns the stored tint of the pattern region with rect r.
	Tint(r Rect) (color.NRGBA, bool)
	// SetTint stores c for the pattern region with rect r and reports
	// whether such a region exists.
	SetTint(r Rect, c color.NRGBA) bool
}

// GridDefinition owns the authored regions over one atlas and the pristine
// snapshot of that atlas, taken before any edits and refreshed on commit.
type GridDefinition struct {
	// Name identifies the definition in stores and logs.
	Name string
	// Width and Height are the atlas dimensions the regions were authored
	// against.
	Width, Height int
	// AtlasPath is the backing image of the atlas, if known.
	AtlasPath string

	regions []Region
	index   map[Rect]int

	pristine      *image.NRGBA
	generation    uint64 // bumped whenever pristine is replaced
	committedPath string
}

// NewGridDefinition validates regions against the declared atlas size.
// Pattern regions without a tint start at ColorWhite.
func NewGridDefinition(name string, width, height int, regions []Region) (*GridDefinition, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tintgrid: grid %q has invalid size %dx%d", name, width, height)
	}
	g := &GridDefinition{
		Name:    name,
		Width:   width,
		Height:  height,
		regions: make([]Region, 0, len(regions)),
		index:   make(map[Rect]int, len(regions)),
	}
	bounds := image.Rect(0, 0, width, height)
	for i, r := range regions {
		rect := r.Rect()
		if rect.Empty() {
			return nil, fmt.Errorf("tintgrid: grid %q region %d %v is empty", name, i, rect)
		}
		if !image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).In(bounds) {
			return nil, fmt.Errorf("tintgrid: grid %q region %d %v exceeds %dx%d", name, i, rect, width, height)
		}
		if _, dup := g.index[rect]; dup {
			return nil, fmt.Errorf("tintgrid: grid %q declares region %v twice", name, rect)
		}
		if r.Kind == KindTexturePattern && r.Tint == (color.NRGBA{}) {
			r.Tint = ColorWhite
		}
		g.index[rect] = len(g.regions)
		g.regions = append(g.regions, r)
	}
	return g, nil
}

// Regions returns a copy of the authored regions in declaration order.
func (g *GridDefinition) Regions() []Region {
	out := make([]Region, len(g.regions))
	copy(out, g.regions)
	return out
}

// Region looks up a region by identity.
func (g *GridDefinition) Region(r Rect) (Region, bool) {
	i, ok := g.index[r]
	if !ok {
		return Region{}, false
	}
	return g.regions[i], true
}

// Rects returns the identity of every region in declaration order.
func (g *GridDefinition) Rects() []Rect {
	out := make([]Rect, len(g.regions))
	for i, r := range g.regions {
		out[i] = r.Rect()
	}
	return out
}

// Tint implements TintStore.
func (g *GridDefinition) Tint(r Rect) (color.NRGBA, bool) {
	i, ok := g.index[r]
	if !ok || g.regions[i].Kind != KindTexturePattern {
		return color.NRGBA{}, false
	}
	return g.regions[i].Tint, true
}

// SetTint implements TintStore. Flat regions carry no tint and are refused.
func (g *GridDefinition) SetTint(r Rect, c color.NRGBA) bool {
	i, ok := g.index[r]
	if !ok || g.regions[i].Kind != KindTexturePattern {
		return false
	}
	g.regions[i].Tint = c
	return true
}

// ClearTints resets every pattern tint to ColorWhite. Called once the tints
// are baked into a new pristine snapshot so they do not apply twice.
func (g *GridDefinition) ClearTints() {
	for i := range g.regions {
		if g.regions[i].Kind == KindTexturePattern {
			g.regions[i].Tint = ColorWhite
		}
	}
}

// CaptureSnapshot replaces the pristine snapshot with an independent copy of
// the atlas's live buffer.
func (g *GridDefinition) CaptureSnapshot(a *Atlas) error {
	if a.Width() != g.Width || a.Height() != g.Height {
		return &ConfigError{Err: fmt.Errorf("%w: atlas %dx%d, grid %dx%d",
			ErrDimensionMismatch, a.Width(), a.Height(), g.Width, g.Height), Regions: g.Rects()}
	}
	g.pristine = a.Snapshot()
	g.generation++
	return nil
}

// SetSnapshot installs a pristine snapshot loaded from storage.
func (g *GridDefinition) SetSnapshot(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != g.Width || b.Dy() != g.Height {
		return fmt.Errorf("%w: snapshot %dx%d, grid %dx%d", ErrDimensionMismatch, b.Dx(), b.Dy(), g.Width, g.Height)
	}
	g.pristine = NewAtlas(g.Name, img).pix
	g.generation++
	return nil
}

// Pristine returns the pristine snapshot, or nil before the first capture.
func (g *GridDefinition) Pristine() *image.NRGBA { return g.pristine }

// Generation counts snapshot replacements. Colors recorded against an older
// generation may already be baked into the current snapshot.
func (g *GridDefinition) Generation() uint64 { return g.generation }

// HasSnapshot reports whether a pristine snapshot has been captured.
func (g *GridDefinition) HasSnapshot() bool { return g.pristine != nil }

// --- File formats ---

// gridFile is the on-disk layout shared by the JSON and YAML encodings.
type gridFile struct {
	Name    string       `json:"name" yaml:"name"`
	Width   int          `json:"width" yaml:"width"`
	Height  int          `json:"height" yaml:"height"`
	Atlas   string       `json:"atlas,omitempty" yaml:"atlas,omitempty"`
	Regions []regionFile `json:"regions" yaml:"regions"`
}

type regionFile struct {
	X    int    `json:"x" yaml:"x"`
	Y    int    `json:"y" yaml:"y"`
	W    int    `json:"w" yaml:"w"`
	H    int    `json:"h" yaml:"h"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Tint string `json:"tint,omitempty" yaml:"tint,omitempty"`
}

// LoadGridDefinition parses a JSON grid definition.
func LoadGridDefinition(data []byte) (*GridDefinition, error) {
	var f gridFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("tintgrid: failed to parse grid JSON: %w", err)
	}
	return f.definition()
}

// LoadGridDefinitionYAML parses a YAML grid definition.
func LoadGridDefinitionYAML(data []byte) (*GridDefinition, error) {
	var f gridFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("tintgrid: failed to parse grid YAML: %w", err)
	}
	return f.definition()
}

// ReadGridFile loads a grid definition, choosing the decoder by extension.
// A relative atlas path is resolved against the file's directory.
func ReadGridFile(path string) (*GridDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: read grid %s: %w", path, err)
	}
	var g *GridDefinition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		g, err = LoadGridDefinitionYAML(data)
	default:
		g, err = LoadGridDefinition(data)
	}
	if err != nil {
		return nil, err
	}
	if g.Name == "" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if g.AtlasPath != "" && !filepath.IsAbs(g.AtlasPath) {
		g.AtlasPath = filepath.Join(filepath.Dir(path), g.AtlasPath)
	}
	return g, nil
}

// MarshalJSON encodes the definition in the LoadGridDefinition layout.
func (g *GridDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.file())
}

// MarshalYAML encodes the definition in the LoadGridDefinitionYAML layout.
func (g *GridDefinition) MarshalYAML() (any, error) {
	return g.file(), nil
}

func (g *GridDefinition) file() gridFile {
	f := gridFile{Name: g.Name, Width: g.Width, Height: g.Height, Atlas: g.AtlasPath}
	f.Regions = make([]regionFile, len(g.regions))
	for i, r := range g.regions {
		rf := regionFile{X: r.X, Y: r.Y, W: r.Width, H: r.Height, Kind: r.Kind.String()}
		if r.Kind == KindTexturePattern {
			rf.Tint = HexColor(r.Tint)
		}
		f.Regions[i] = rf
	}
	return f
}

func (f gridFile) definition() (*GridDefinition, error) {
	regions := make([]Region, len(f.Regions))
	for i, rf := range f.Regions {
		kind, err := ParseKind(rf.Kind)
		if err != nil {
			return nil, fmt.Errorf("tintgrid: region %d: %w", i, err)
		}
		r := Region{X: rf.X, Y: rf.Y, Width: rf.W, Height: rf.H, Kind: kind}
		if rf.Tint != "" {
			if r.Tint, err = ParseHexColor(rf.Tint); err != nil {
				return nil, fmt.Errorf("tintgrid: region %d: %w", i, err)
			}
		}
		regions[i] = r
	}
	g, err := NewGridDefinition(f.Name, f.Width, f.Height, regions)
	if err != nil {
		return nil, err
	}
	g.AtlasPath = f.Atlas
	return g, nil
}
