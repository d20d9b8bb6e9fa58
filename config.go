package tintgrid

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a host program: where the atlas, grid, UVs
// and edit script live, and how surfaces update.
type Config struct {
	Atlas  string `yaml:"atlas"`
	Grid   string `yaml:"grid"`
	UVs    string `yaml:"uvs"`
	Script string `yaml:"script"`
	// Output is where the atlas is committed. Empty means overwrite Atlas.
	Output string `yaml:"output"`
	// Store is an optional SQLite database the grid definition is saved to.
	Store      string `yaml:"store"`
	Mode       string `yaml:"mode"`        // auto | manual
	ColorSpace string `yaml:"color_space"` // gamma | linear
	GPU        bool   `yaml:"gpu"`
	Debug      bool   `yaml:"debug"`
	Highlight  string `yaml:"highlight"` // hex color of the selection pulse
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:       "auto",
		ColorSpace: "gamma",
		Highlight:  "#ff00ff",
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("tintgrid: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Atlas == "" {
		return errors.New("tintgrid: config: atlas is required")
	}
	if c.Grid == "" {
		return errors.New("tintgrid: config: grid is required")
	}
	if _, err := parseUpdateMode(c.Mode); err != nil {
		return fmt.Errorf("tintgrid: config: %w", err)
	}
	if _, err := parseColorSpace(c.ColorSpace); err != nil {
		return fmt.Errorf("tintgrid: config: %w", err)
	}
	if c.Highlight != "" {
		if _, err := ParseHexColor(c.Highlight); err != nil {
			return fmt.Errorf("tintgrid: config: highlight: %w", err)
		}
	}
	return nil
}

// OutputPath returns where the atlas is committed.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return c.Atlas
}

// SurfaceConfig converts the settings into options for NewSurface. The
// compositor is left nil; hosts that run a game loop install one with
// Surface.SetCompositor.
func (c *Config) SurfaceConfig(log *zap.Logger) SurfaceConfig {
	mode, _ := parseUpdateMode(c.Mode)
	cs, _ := parseColorSpace(c.ColorSpace)
	return SurfaceConfig{Mode: mode, ColorSpace: cs, Logger: log}
}

func parseUpdateMode(s string) (UpdateMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return UpdateAuto, nil
	case "manual":
		return UpdateManual, nil
	}
	return UpdateAuto, fmt.Errorf("unsupported mode %q (use auto or manual)", s)
}

func parseColorSpace(s string) (ColorSpace, error) {
	switch strings.ToLower(s) {
	case "", "gamma", "srgb":
		return ColorSpaceGamma, nil
	case "linear":
		return ColorSpaceLinear, nil
	}
	return ColorSpaceGamma, fmt.Errorf("unsupported color_space %q (use gamma or linear)", s)
}
