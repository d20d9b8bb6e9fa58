package tintgrid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// scriptStep represents a single action in an edit script.
type scriptStep struct {
	Action string `json:"action"`
	// Cell selects the cell: its label ("Color 2", "Tex 1") or, when UV is
	// set, the cell owning that UV index.
	Cell  string `json:"cell,omitempty"`
	UV    *int   `json:"uv,omitempty"`
	Color string `json:"color,omitempty"`
	Path  string `json:"path,omitempty"`
}

// editScript is the top-level JSON structure for an edit script.
type editScript struct {
	Steps []scriptStep `json:"steps"`
}

// Script is a sequence of palette edits run against a Surface without a host
// UI. Actions:
//
//	set      set a cell's color ("cell" or "uv", and "color")
//	update   apply dirty cells if the surface is in Auto mode
//	flush    apply all dirty cells
//	resync   restore cell colors from the atlas and the grid
//	repaint  write every cell's color to the atlas
//	save     commit the atlas to "path"
//	remove   hide a cell from the palette lists
//	restore  bring a removed cell back
type Script struct {
	steps []scriptStep
}

// ScriptResult summarizes a finished run.
type ScriptResult struct {
	Steps   int // steps executed
	Applied int // cells written by update, flush and auto-applied sets
	Saved   int // saves that wrote a file
}

// LoadScript parses a JSON edit script.
func LoadScript(jsonData []byte) (*Script, error) {
	var script editScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("tintgrid: parse edit script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("tintgrid: parse edit script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "set":
			if st.Color == "" {
				return nil, fmt.Errorf("tintgrid: parse edit script: step %d: set needs a color", i)
			}
			if _, err := ParseHexColor(st.Color); err != nil {
				return nil, fmt.Errorf("tintgrid: parse edit script: step %d: %w", i, err)
			}
		case "save":
			if st.Path == "" {
				return nil, fmt.Errorf("tintgrid: parse edit script: step %d: save needs a path", i)
			}
		case "update", "flush", "resync", "repaint", "remove", "restore":
		default:
			return nil, fmt.Errorf("tintgrid: parse edit script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: script.Steps}, nil
}

// Len returns the number of steps.
func (s *Script) Len() int { return len(s.steps) }

// Run executes every step in order and stops at the first failing step.
func (s *Script) Run(surf *Surface) (ScriptResult, error) {
	var res ScriptResult
	for i, st := range s.steps {
		if err := s.step(surf, st, &res); err != nil {
			return res, fmt.Errorf("tintgrid: step %d (%s): %w", i, st.Action, err)
		}
		res.Steps++
	}
	return res, nil
}

func (s *Script) step(surf *Surface, st scriptStep, res *ScriptResult) error {
	switch st.Action {
	case "set":
		c, err := findScriptCell(surf.Mapping(), st, false)
		if err != nil {
			return err
		}
		col, _ := ParseHexColor(st.Color)
		c.Current = col
		n, err := surf.Update()
		res.Applied += n
		return err
	case "update":
		n, err := surf.Update()
		res.Applied += n
		return err
	case "flush":
		n, err := surf.Flush()
		res.Applied += n
		return err
	case "resync":
		surf.Resync()
	case "repaint":
		return surf.Repaint()
	case "save":
		written, err := surf.Save(st.Path)
		if written {
			res.Saved++
		}
		return err
	case "remove":
		c, err := findScriptCell(surf.Mapping(), st, false)
		if err != nil {
			return err
		}
		return surf.Mapping().RemoveCell(c)
	case "restore":
		c, err := findScriptCell(surf.Mapping(), st, true)
		if err != nil {
			return err
		}
		return surf.Mapping().RestoreCell(c)
	}
	return nil
}

// findScriptCell resolves a step's cell selector. Labels only name visible
// cells; removed cells are found by UV index or by rectangle.
func findScriptCell(m *Mapping, st scriptStep, removed bool) (*Cell, error) {
	if st.UV != nil {
		if c := m.CellAt(*st.UV); c != nil {
			return c, nil
		}
		return nil, fmt.Errorf("no cell owns uv %d", *st.UV)
	}
	cells := m.Cells()
	if removed {
		cells = m.Removed
	}
	for _, c := range cells {
		if c.Rect.String() == st.Cell || (!removed && m.Label(c) == st.Cell) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no cell %q", st.Cell)
}
