package tintgrid

import (
	"fmt"
	"image/color"
	"slices"
)

// Cell binds one region to the UV samples that land inside it and carries the
// color state edited by the host.
type Cell struct {
	// Indices are the member UV indices in ascending order.
	Indices []int
	// Rect is the identity of the region the cell was built from.
	Rect Rect
	// Kind selects how Mutator.Apply recolors the cell.
	Kind Kind
	// Current is the color the host wants; Previous is the color last
	// written to the atlas.
	Current, Previous color.NRGBA

	gen uint64 // snapshot generation Previous was recorded against
}

// Dirty reports whether the cell has an edit that has not reached the atlas.
func (c *Cell) Dirty() bool {
	return c.Current != c.Previous
}

func newCell(rect Rect, kind Kind, c color.NRGBA) *Cell {
	return &Cell{Rect: rect, Kind: kind, Current: c, Previous: c}
}

// PaletteGroup is a named, ordered list of cells as presented to the host.
type PaletteGroup struct {
	Name  string
	Cells []*Cell
}

// Coverage counts how many UV samples found a region.
type Coverage struct {
	Total    int // samples in the UV source
	Skipped  int // samples with a negative V
	Mapped   int // samples assigned to a cell
	Unmapped int // valid samples outside every region
}

// Ratio returns the mapped fraction of valid samples, 1 when there are none.
func (c Coverage) Ratio() float64 {
	valid := c.Mapped + c.Unmapped
	if valid == 0 {
		return 1
	}
	return float64(c.Mapped) / float64(valid)
}

// Complete reports whether every valid sample was mapped.
func (c Coverage) Complete() bool { return c.Unmapped == 0 }

// Mapping is the result of partitioning one surface's UVs over a grid.
// A UV index belongs to at most one cell across all groups and Removed.
type Mapping struct {
	Groups []*PaletteGroup
	// Removed holds cells dropped from the host's lists whose pixels must
	// stay restorable.
	Removed  []*Cell
	coverage Coverage
}

const defaultGroupName = "Palette"

func newMapping() *Mapping {
	return &Mapping{Groups: []*PaletteGroup{{Name: defaultGroupName}}}
}

// Build partitions uvs over the regions of grid.
//
// atlas supplies the live dimensions and the pixels flat cells are seeded
// from. When they differ from the grid's declared size, Build returns an
// empty mapping and a *ConfigError wrapping ErrDimensionMismatch; no partial
// mapping is ever produced. Unmapped samples are not an error; see
// Mapping.Coverage.
func Build(uvs []Vec2, atlas *Atlas, grid *GridDefinition) (*Mapping, error) {
	m := newMapping()
	m.coverage.Total = len(uvs)
	if atlas.Width() != grid.Width || atlas.Height() != grid.Height {
		return m, &ConfigError{
			Err: fmt.Errorf("%w: atlas %s is %dx%d, grid %q expects %dx%d", ErrDimensionMismatch,
				atlas.Name, atlas.Width(), atlas.Height(), grid.Name, grid.Width, grid.Height),
			Regions: grid.Rects(),
		}
	}

	w, h := atlas.Width(), atlas.Height()
	palette := m.Groups[0]
	materialized := make(map[Rect]bool, len(grid.regions))

	for i, uv := range uvs {
		tx, ty, ok := UVTexel(uv, w, h)
		if !ok {
			m.coverage.Skipped++
			continue
		}
		if c := findCell(palette.Cells, tx, ty); c != nil {
			c.Indices = append(c.Indices, i)
			m.coverage.Mapped++
			continue
		}
		region, ok := findRegion(grid.regions, materialized, tx, ty)
		if !ok {
			m.coverage.Unmapped++
			continue
		}
		materialized[region.Rect()] = true
		c := newCell(region.Rect(), region.Kind, seedColor(region, atlas))
		c.gen = grid.Generation()
		c.Indices = append(c.Indices, i)
		palette.Cells = append(palette.Cells, c)
		m.coverage.Mapped++
	}
	return m, nil
}

// findCell returns the first cell, in creation order, containing the texel.
func findCell(cells []*Cell, tx, ty int) *Cell {
	for _, c := range cells {
		if c.Rect.Contains(tx, ty) {
			return c
		}
	}
	return nil
}

// findRegion returns the first authored region not yet materialized that
// contains the texel.
func findRegion(regions []Region, materialized map[Rect]bool, tx, ty int) (Region, bool) {
	for _, r := range regions {
		rect := r.Rect()
		if materialized[rect] {
			continue
		}
		if rect.Contains(tx, ty) {
			return r, true
		}
	}
	return Region{}, false
}

// seedColor is a new cell's initial color: the center texel for flat
// regions, no tint for patterns.
func seedColor(r Region, atlas *Atlas) color.NRGBA {
	if r.Kind == KindTexturePattern {
		return ColorWhite
	}
	x, y := r.Rect().Center()
	return atlas.At(x, y)
}

// Coverage reports how many samples were mapped.
func (m *Mapping) Coverage() Coverage { return m.coverage }

// Cells returns the visible cells, group by group.
func (m *Mapping) Cells() []*Cell {
	var out []*Cell
	for _, g := range m.Groups {
		out = append(out, g.Cells...)
	}
	return out
}

// AllCells returns the visible cells followed by the removed ones.
func (m *Mapping) AllCells() []*Cell {
	return append(m.Cells(), m.Removed...)
}

// Len returns the number of cells, including removed ones.
func (m *Mapping) Len() int {
	n := len(m.Removed)
	for _, g := range m.Groups {
		n += len(g.Cells)
	}
	return n
}

// CellAt returns the cell owning the UV index, or nil.
func (m *Mapping) CellAt(uvIndex int) *Cell {
	for _, c := range m.AllCells() {
		if _, ok := slices.BinarySearch(c.Indices, uvIndex); ok {
			return c
		}
	}
	return nil
}

// NewGroup appends an empty palette group.
func (m *Mapping) NewGroup(name string) *PaletteGroup {
	g := &PaletteGroup{Name: name}
	m.Groups = append(m.Groups, g)
	return g
}

// MoveCell moves a visible cell to the end of group g.
func (m *Mapping) MoveCell(c *Cell, g *PaletteGroup) error {
	if !slices.Contains(m.Groups, g) {
		return fmt.Errorf("tintgrid: group %q is not part of this mapping", g.Name)
	}
	if !m.detach(c) {
		return fmt.Errorf("tintgrid: cell %v is not visible in this mapping", c.Rect)
	}
	g.Cells = append(g.Cells, c)
	return nil
}

// RemoveCell hides a visible cell from the groups and keeps it in Removed.
func (m *Mapping) RemoveCell(c *Cell) error {
	if !m.detach(c) {
		return fmt.Errorf("tintgrid: cell %v is not visible in this mapping", c.Rect)
	}
	m.Removed = append(m.Removed, c)
	return nil
}

// RestoreCell moves a removed cell back to the end of the first group.
func (m *Mapping) RestoreCell(c *Cell) error {
	i := slices.Index(m.Removed, c)
	if i < 0 {
		return fmt.Errorf("tintgrid: cell %v was not removed", c.Rect)
	}
	m.Removed = slices.Delete(m.Removed, i, i+1)
	m.Groups[0].Cells = append(m.Groups[0].Cells, c)
	return nil
}

func (m *Mapping) detach(c *Cell) bool {
	for _, g := range m.Groups {
		if i := slices.Index(g.Cells, c); i >= 0 {
			g.Cells = slices.Delete(g.Cells, i, i+1)
			return true
		}
	}
	return false
}

// FlatColors counts flat cells, including removed ones.
func (m *Mapping) FlatColors() int {
	n := 0
	for _, c := range m.AllCells() {
		if c.Kind == KindFlatColor {
			n++
		}
	}
	return n
}

// TexturePatterns counts pattern cells, including removed ones.
func (m *Mapping) TexturePatterns() int {
	return m.Len() - m.FlatColors()
}

// DeletedCount is the number of cells hidden from the groups.
func (m *Mapping) DeletedCount() int { return len(m.Removed) }

// HasTexturePattern reports whether any cell needs tint compositing.
func (m *Mapping) HasTexturePattern() bool {
	for _, c := range m.AllCells() {
		if c.Kind == KindTexturePattern {
			return true
		}
	}
	return false
}

// Label names a visible cell the way a palette list shows it: "Color N" or
// "Tex N", numbered per kind within its group.
func (m *Mapping) Label(c *Cell) string {
	for _, g := range m.Groups {
		flat, tex := 0, 0
		for _, gc := range g.Cells {
			if gc.Kind == KindTexturePattern {
				tex++
			} else {
				flat++
			}
			if gc != c {
				continue
			}
			if gc.Kind == KindTexturePattern {
				return fmt.Sprintf("Tex %d", tex)
			}
			return fmt.Sprintf("Color %d", flat)
		}
	}
	return ""
}
