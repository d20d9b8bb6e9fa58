package tintgrid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tintgrid.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Mode != "auto" || c.ColorSpace != "gamma" || c.GPU {
		t.Errorf("defaults = %+v", c)
	}
	// Atlas and grid have no defaults.
	if err := c.Validate(); err == nil {
		t.Error("default config should need an atlas and a grid")
	}
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, "atlas: a.png\ngrid: a.grid.yaml\ncolor_space: linear\ngpu: true\n")
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Mode != "auto" {
		t.Errorf("Mode = %q, want default %q", c.Mode, "auto")
	}
	if c.ColorSpace != "linear" || !c.GPU {
		t.Errorf("config = %+v", c)
	}
	if c.OutputPath() != "a.png" {
		t.Errorf("OutputPath = %q, want the atlas path", c.OutputPath())
	}
	sc := c.SurfaceConfig(nil)
	if sc.Mode != UpdateAuto || sc.ColorSpace != ColorSpaceLinear || sc.Compositor != nil {
		t.Errorf("SurfaceConfig = %+v", sc)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		msg    string
	}{
		{"missing atlas", func(c *Config) { c.Atlas = "" }, "atlas is required"},
		{"missing grid", func(c *Config) { c.Grid = "" }, "grid is required"},
		{"bad mode", func(c *Config) { c.Mode = "sometimes" }, "unsupported mode"},
		{"bad color space", func(c *Config) { c.ColorSpace = "cmyk" }, "unsupported color_space"},
		{"bad highlight", func(c *Config) { c.Highlight = "#nope" }, "highlight"},
	}
	for _, tt := range tests {
		c := DefaultConfig()
		c.Atlas, c.Grid = "a.png", "a.yaml"
		tt.mutate(c)
		err := c.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%s: err = %q, want it to contain %q", tt.name, err, tt.msg)
		}
	}
}

func TestConfigManualMode(t *testing.T) {
	c := DefaultConfig()
	c.Atlas, c.Grid, c.Mode, c.Output = "a.png", "a.yaml", "Manual", "out.png"
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.SurfaceConfig(nil).Mode != UpdateManual {
		t.Error("mode names are case-insensitive")
	}
	if c.OutputPath() != "out.png" {
		t.Errorf("OutputPath = %q", c.OutputPath())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "atlas: [unclosed\n")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
