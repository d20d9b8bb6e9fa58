package tintgrid

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DetectDirty returns the cells whose current color differs from the color
// last written to the atlas, in input order.
func DetectDirty(cells []*Cell) []*Cell {
	var dirty []*Cell
	for _, c := range cells {
		if c.Dirty() {
			dirty = append(dirty, c)
		}
	}
	return dirty
}

// Synchronizer moves cell color edits into the atlas and restores cell
// colors from their authoritative sources.
type Synchronizer struct {
	// Mode decides whether Update applies edits or leaves them for Flush.
	Mode UpdateMode

	atlas   *Atlas
	tints   TintStore
	mutator *Mutator
	log     *zap.Logger
}

// NewSynchronizer wires a synchronizer to the atlas it samples, the shared
// tint store and the mutator that writes pixels.
func NewSynchronizer(atlas *Atlas, tints TintStore, mutator *Mutator, mode UpdateMode, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{Mode: mode, atlas: atlas, tints: tints, mutator: mutator, log: log}
}

// Update is called on every host interaction. In UpdateAuto mode it applies
// all dirty cells; in UpdateManual mode it does nothing.
func (s *Synchronizer) Update(cells []*Cell) (int, error) {
	if s.Mode != UpdateAuto {
		return 0, nil
	}
	return s.Flush(cells)
}

// Flush applies every dirty cell regardless of mode and returns how many
// were written. A cell that fails stays dirty; the other cells are still
// applied and all failures are returned together.
func (s *Synchronizer) Flush(cells []*Cell) (int, error) {
	var (
		n   int
		err error
	)
	for _, c := range DetectDirty(cells) {
		if cerr := s.commit(c); cerr != nil {
			err = multierr.Append(err, cerr)
			continue
		}
		n++
	}
	if n > 0 {
		s.log.Debug("applied cell colors", zap.Int("cells", n), zap.String("atlas", s.atlas.Name))
	}
	return n, err
}

// commit writes one cell's current color and re-arms dirty detection.
// Pattern tints are published to the shared store, last writer wins.
func (s *Synchronizer) commit(c *Cell) error {
	if err := s.mutator.Apply(c, c.Current); err != nil {
		return err
	}
	c.Previous = c.Current
	c.gen = s.generation()
	if c.Kind == KindTexturePattern {
		s.tints.SetTint(c.Rect, c.Current)
	}
	return nil
}

// Resync recomputes Current and Previous of every cell from the atlas (flat
// cells, sampled at the center texel) and from the tint store (pattern
// cells, joined by rectangle; ColorWhite when absent). It must follow any
// out-of-band restore such as undo, since per-cell baselines cannot be
// trusted afterwards. Calling it twice in a row changes nothing.
func (s *Synchronizer) Resync(cells []*Cell) {
	for _, c := range cells {
		col := ColorWhite
		switch c.Kind {
		case KindFlatColor:
			x, y := c.Rect.Center()
			col = s.atlas.At(x, y)
		case KindTexturePattern:
			if t, ok := s.tints.Tint(c.Rect); ok {
				col = t
			}
		}
		c.Current = col
		c.Previous = col
		c.gen = s.generation()
	}
}

// Stale returns the cells whose colors were recorded before the pristine
// snapshot last advanced, in input order. Their tints may already be baked
// into the snapshot, so they must be resynced rather than applied.
func (s *Synchronizer) Stale(cells []*Cell) []*Cell {
	gen := s.generation()
	var stale []*Cell
	for _, c := range cells {
		if c.gen != gen {
			stale = append(stale, c)
		}
	}
	return stale
}

func (s *Synchronizer) generation() uint64 {
	return s.mutator.grid.Generation()
}

// Repaint writes every cell's current color into the atlas without diffing,
// for restores that brought back cell colors but not pixels. Stale cells are
// resynced instead.
func (s *Synchronizer) Repaint(cells []*Cell) error {
	gen := s.generation()
	var err error
	for _, c := range cells {
		if c.gen != gen {
			s.Resync([]*Cell{c})
			continue
		}
		err = multierr.Append(err, s.commit(c))
	}
	return err
}
