// Package tintgrid recolors texture atlases shared by many surfaces.
//
// A [GridDefinition] declares rectangular regions over an atlas, each either
// a flat color or a texture pattern. [Build] partitions a surface's UV
// samples over those regions into [Cell] values; editing a cell's color and
// applying it rewrites exactly that region of the atlas. Flat regions are
// filled; pattern regions are tinted from a pristine snapshot, on the CPU or
// with a Kage shader in [Ebitengine] ([GPUCompositor]).
//
// # Quick start
//
//	atlas, _ := tintgrid.LoadAtlasFile("palette.png")
//	grid, _ := tintgrid.ReadGridFile("palette.grid.yaml")
//	uvs, _ := tintgrid.ReadUVFile("crate.uvs.json")
//
//	surf, _ := tintgrid.NewSurface("crate", uvs, atlas, grid, tintgrid.SurfaceConfig{})
//	cell := surf.Mapping().Cells()[0]
//	_ = surf.SetColor(cell, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
//	_, _ = surf.Save("palette.png")
//
// # Update modes
//
// In [UpdateAuto] every [Surface.SetColor] or [Surface.Update] writes dirty
// cells at once. In [UpdateManual] edits accumulate until [Surface.Flush].
// After an undo or redo the host calls [Surface.Resync] (pixels or tints
// were restored) or [Surface.Repaint] (cell colors were restored).
//
// # Sharing an atlas
//
// Surfaces built over the same GridDefinition share its pattern tints, keyed
// by region rectangle. The last surface to apply a tint wins; the others see
// it after [Surface.Resync].
//
// # Configuration errors
//
// Unreadable atlases, unsupported pixel formats and size mismatches are
// reported as [*ConfigError] values naming the affected regions
// ([AffectedRegions]). They disable editing without discarding the mapping.
//
// [Ebitengine]: https://ebitengine.org
package tintgrid
