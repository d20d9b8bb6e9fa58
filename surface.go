package tintgrid

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SurfaceConfig holds optional parameters for NewSurface. The zero value is
// Auto updates, gamma color space, the CPU compositor and no logging.
type SurfaceConfig struct {
	Mode       UpdateMode
	ColorSpace ColorSpace
	// Compositor tints pattern cells. Nil selects CPUCompositor.
	Compositor Compositor
	Logger     *zap.Logger
}

// Surface is one mapped object: its UVs, the atlas its material samples, the
// grid definition over that atlas, and the cells built from them.
//
// Several surfaces may share one atlas and grid. Pattern tints stored on the
// grid are the only state they share.
type Surface struct {
	// ID is a unique identifier assigned at creation.
	ID string
	// Name identifies the surface in logs.
	Name string

	uvs     []Vec2
	atlas   *Atlas
	grid    *GridDefinition
	mapping *Mapping
	mutator *Mutator
	sync    *Synchronizer
	log     *zap.Logger

	buildErr error
}

// NewSurface maps uvs over grid and restores cell colors from the atlas and
// the grid's tints.
//
// The grid's pristine snapshot is captured here when it has none yet and the
// atlas can be edited. Configuration problems do not fail NewSurface; they
// leave the mapping empty and are reported by Check.
func NewSurface(name string, uvs []Vec2, atlas *Atlas, grid *GridDefinition, cfg SurfaceConfig) (*Surface, error) {
	if atlas == nil {
		return nil, errors.New("tintgrid: surface needs an atlas")
	}
	if grid == nil {
		return nil, errors.New("tintgrid: surface needs a grid definition")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("atlas", atlas.Name), zap.String("grid", grid.Name))

	if !grid.HasSnapshot() && atlas.CheckModifiable() == nil {
		if err := grid.CaptureSnapshot(atlas); err != nil {
			log.Debug("pristine snapshot not captured", zap.Error(err))
		}
	}

	m := NewMutator(atlas, grid, cfg.Compositor)
	m.ColorSpace = cfg.ColorSpace
	s := &Surface{
		ID:      uuid.NewString(),
		Name:    name,
		uvs:     uvs,
		atlas:   atlas,
		grid:    grid,
		mutator: m,
		sync:    NewSynchronizer(atlas, grid, m, cfg.Mode, log),
		log:     log,
	}
	s.Rebuild()
	return s, nil
}

// Rebuild discards the cells and maps the UVs again. Unapplied edits are
// lost; every cell is restored from the atlas and the grid.
func (s *Surface) Rebuild() {
	start := time.Now()
	s.mapping, s.buildErr = Build(s.uvs, s.atlas, s.grid)
	built := time.Now()
	s.sync.Resync(s.mapping.AllCells())
	logBuild(s.log, s.Name, newBuildStats(s.mapping, built.Sub(start), time.Since(built)), s.buildErr)
}

// SetUVs replaces the UV source and rebuilds.
func (s *Surface) SetUVs(uvs []Vec2) {
	s.uvs = uvs
	s.Rebuild()
}

// Mapping returns the current cells.
func (s *Surface) Mapping() *Mapping { return s.mapping }

// Atlas returns the atlas the surface edits.
func (s *Surface) Atlas() *Atlas { return s.atlas }

// Grid returns the grid definition the surface is mapped over.
func (s *Surface) Grid() *GridDefinition { return s.grid }

// Mode returns the update mode.
func (s *Surface) Mode() UpdateMode { return s.sync.Mode }

// SetMode switches between Auto and Manual updates. Switching to Auto
// applies outstanding edits.
func (s *Surface) SetMode(mode UpdateMode) error {
	s.sync.Mode = mode
	_, err := s.Update()
	return err
}

// SetCompositor swaps the tint backend, for example to a GPUCompositor once
// a game loop is running.
func (s *Surface) SetCompositor(c Compositor) {
	s.mutator.SetCompositor(c)
}

// SetColor edits a cell's color. In Auto mode the edit is applied at once.
func (s *Surface) SetColor(c *Cell, col color.NRGBA) error {
	c.Current = col
	_, err := s.Update()
	return err
}

// Update applies dirty cells when the surface is in Auto mode.
func (s *Surface) Update() (int, error) {
	return s.sync.Update(s.mapping.AllCells())
}

// Flush applies every dirty cell regardless of mode.
func (s *Surface) Flush() (int, error) {
	n, err := s.sync.Flush(s.mapping.AllCells())
	if err != nil {
		s.log.Warn("some cells were not applied", zap.String("surface", s.Name), zap.Error(err))
	}
	return n, err
}

// Resync restores every cell's color from the atlas and the grid. Hosts call
// it after an undo or redo that restored pixels or tints.
func (s *Surface) Resync() {
	s.sync.Resync(s.mapping.AllCells())
}

// Repaint writes every cell's color to the atlas. Hosts call it after an
// undo or redo that restored cell colors but not pixels.
func (s *Surface) Repaint() error {
	return s.sync.Repaint(s.mapping.AllCells())
}

// Save commits the atlas to path and restores cell colors from the new
// snapshot. It reports whether anything was written.
func (s *Surface) Save(path string) (bool, error) {
	written, err := Commit(s.atlas, s.grid, path)
	if err != nil {
		return false, err
	}
	if written {
		s.Resync()
		s.log.Info("atlas committed", zap.String("surface", s.Name), zap.String("path", path))
	}
	return written, nil
}

// Check reports every configuration problem that keeps the surface from
// editing the atlas, with the regions each one affects. It returns nil when
// the surface is fully editable.
func (s *Surface) Check() error {
	err := s.buildErr
	if merr := s.atlas.CheckModifiable(); merr != nil {
		var ce *ConfigError
		if errors.As(merr, &ce) {
			merr = &ConfigError{Err: ce.Err, Regions: s.mappedRects()}
		}
		err = multierr.Append(err, merr)
	}
	if s.mapping.HasTexturePattern() && !s.grid.HasSnapshot() {
		err = multierr.Append(err, &ConfigError{Err: ErrNoSnapshot, Regions: s.patternRects()})
	}
	return err
}

// DeletedMessage describes the cells removed from the palette lists, or
// returns "" when there are none.
func (s *Surface) DeletedMessage() string {
	return deletedMessage(s.mapping.DeletedCount())
}

// Close publishes the applied tint of every pattern cell to the grid and
// releases the compositor's GPU resources, if any. Cells recorded before
// another surface committed the atlas are resynced first, so a tint already
// baked into the snapshot is not published again.
func (s *Surface) Close() {
	cells := s.mapping.AllCells()
	s.sync.Resync(s.sync.Stale(cells))
	for _, c := range cells {
		if c.Kind == KindTexturePattern {
			s.grid.SetTint(c.Rect, c.Previous)
		}
	}
	if d, ok := s.mutator.compositor.(interface{ Dispose() }); ok {
		d.Dispose()
	}
}

func (s *Surface) String() string {
	return fmt.Sprintf("Surface(%s, %d cells)", s.Name, s.mapping.Len())
}

func (s *Surface) mappedRects() []Rect {
	cells := s.mapping.AllCells()
	rects := make([]Rect, len(cells))
	for i, c := range cells {
		rects[i] = c.Rect
	}
	return rects
}

func (s *Surface) patternRects() []Rect {
	var rects []Rect
	for _, c := range s.mapping.AllCells() {
		if c.Kind == KindTexturePattern {
			rects = append(rects, c.Rect)
		}
	}
	return rects
}
