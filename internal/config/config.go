// Package config loads inkwell's configuration from TOML or YAML files,
// applies environment overrides, and watches the file for live reload.
package config

import (
	"fmt"
	"image/color"
	"strings"
)

// Config is the full application configuration.
type Config struct {
	Canvas  Canvas  `toml:"canvas" yaml:"canvas"`
	History History `toml:"history" yaml:"history"`
	Logging Logging `toml:"logging" yaml:"logging"`
	Script  Script  `toml:"script" yaml:"script"`
	Keys    []Key   `toml:"keys" yaml:"keys"`
}

// Canvas configures the drawing surface.
type Canvas struct {
	// Width and Height are the surface size in pixels. Zero means size
	// to the terminal.
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// Background is the surface background color, e.g. "#1e1e2e".
	Background string `toml:"background" yaml:"background"`

	// Brush is the default stroke color.
	Brush string `toml:"brush" yaml:"brush"`

	// BrushWidth is the default stroke width in pixels.
	BrushWidth float64 `toml:"brush_width" yaml:"brush_width"`
}

// History configures the snapshot stack.
type History struct {
	// MaxSnapshots bounds the undo depth. Zero selects the default.
	MaxSnapshots int `toml:"max_snapshots" yaml:"max_snapshots"`
}

// Logging configures the logger.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// Script configures the Lua hook engine.
type Script struct {
	// Path is a Lua file defining history hooks. Empty disables scripting.
	Path string `toml:"path" yaml:"path"`
}

// Key is a user key binding added on top of the defaults.
type Key struct {
	Keys   string `toml:"keys" yaml:"keys"`
	Action string `toml:"action" yaml:"action"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Canvas: Canvas{
			Background: "#ffffff",
			Brush:      "#000000",
			BrushWidth: 1,
		},
		History: History{},
		Logging: Logging{Level: "info"},
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 {
		return fmt.Errorf("config: negative canvas size %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.History.MaxSnapshots < 0 {
		return fmt.Errorf("config: negative max_snapshots %d", c.History.MaxSnapshots)
	}
	if _, err := ParseColor(c.Canvas.Background); err != nil {
		return fmt.Errorf("config: background: %w", err)
	}
	if _, err := ParseColor(c.Canvas.Brush); err != nil {
		return fmt.Errorf("config: brush: %w", err)
	}
	if c.Canvas.BrushWidth < 0 {
		return fmt.Errorf("config: negative brush_width %v", c.Canvas.BrushWidth)
	}
	for _, k := range c.Keys {
		if k.Keys == "" || k.Action == "" {
			return fmt.Errorf("config: key binding needs both keys and action (got %q -> %q)", k.Keys, k.Action)
		}
	}
	return nil
}

// ParseColor parses "#rgb" or "#rrggbb" hex colors. Empty parses to
// opaque white.
func ParseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	hexStr := strings.TrimPrefix(s, "#")

	var r, g, b uint8
	switch len(hexStr) {
	case 3:
		if _, err := fmt.Sscanf(hexStr, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(hexStr, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
