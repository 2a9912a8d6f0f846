// Package config provides configuration loading and management for slicegrid.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"slicegrid/pkg/colormap"
	"slicegrid/pkg/visualization"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Render parameters for the slice grid figure
	Render struct {
		// Rows and Cols set the subplot grid shape
		Rows int `yaml:"rows"`
		Cols int `yaml:"cols"`

		// ColorMap names the color map, see colormap.Names
		ColorMap string `yaml:"colorMap"`

		// SizeInches is the side length of the square figure
		SizeInches float64 `yaml:"sizeInches"`

		// DPI is the raster resolution for png/jpg/tif output
		DPI int `yaml:"dpi"`

		// TMin and TMax fix the color range; unset means the volume extent
		TMin *float64 `yaml:"tmin,omitempty"`
		TMax *float64 `yaml:"tmax,omitempty"`
	} `yaml:"render"`

	// Input parameters
	Input struct {
		// Width, Height, Depth and DType describe headerless raw volumes
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Depth  int    `yaml:"depth"`
		DType  string `yaml:"dtype"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Directory receives rendered figures and slice sequences
		Directory string `yaml:"directory"`

		// Format is the figure file format when no extension is given
		Format string `yaml:"format"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Render.Rows = visualization.DefaultRows
	cfg.Render.Cols = visualization.DefaultCols
	cfg.Render.ColorMap = colormap.Default
	cfg.Render.SizeInches = float64(visualization.DefaultSize / vg.Inch)
	cfg.Render.DPI = 96

	cfg.Input.DType = "float32"

	cfg.Output.Directory = "."
	cfg.Output.Format = "png"
	cfg.Output.Verbose = true

	return cfg
}

// RenderOptions converts the render section into DrawSlices options.
func (c *Config) RenderOptions() []visualization.Option {
	opts := []visualization.Option{
		visualization.WithGrid(c.Render.Rows, c.Render.Cols),
		visualization.WithColorMap(c.Render.ColorMap),
		visualization.WithSize(vg.Length(c.Render.SizeInches) * vg.Inch),
	}
	if c.Render.TMin != nil {
		opts = append(opts, visualization.WithMin(*c.Render.TMin))
	}
	if c.Render.TMax != nil {
		opts = append(opts, visualization.WithMax(*c.Render.TMax))
	}
	return opts
}

// Validate reports settings that cannot produce a figure.
func (c *Config) Validate() error {
	if c.Render.SizeInches <= 0 {
		return fmt.Errorf("render.sizeInches must be positive, got %g", c.Render.SizeInches)
	}
	if c.Render.DPI <= 0 {
		return fmt.Errorf("render.dpi must be positive, got %d", c.Render.DPI)
	}
	if c.Render.TMin != nil && c.Render.TMax != nil && *c.Render.TMin > *c.Render.TMax {
		return fmt.Errorf("render.tmin (%g) exceeds render.tmax (%g)", *c.Render.TMin, *c.Render.TMax)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
