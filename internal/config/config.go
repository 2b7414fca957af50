// Package config loads the optional visualizer profile from disk.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Profile is the on-disk configuration. Flags override anything set
// here.
type Profile struct {
	Marker MarkerConfig `yaml:"marker"`
	Render RenderConfig `yaml:"render"`
}

// MarkerConfig controls marker appearance.
type MarkerConfig struct {
	Size   int    `yaml:"size"`   // marker edge length in pixels
	Color  string `yaml:"color"`  // "#rrggbb" or "#rrggbbaa"
	Labels bool   `yaml:"labels"` // draw element indices next to markers
}

// RenderConfig controls the per-frame work budget.
type RenderConfig struct {
	MaxInflight     int `yaml:"max_inflight"`
	FrameDeadlineMs int `yaml:"frame_deadline_ms"`
}

// Default returns the built-in profile.
func Default() Profile {
	return Profile{
		Marker: MarkerConfig{Size: 10, Color: "#ff0000"},
		Render: RenderConfig{MaxInflight: 16, FrameDeadlineMs: 50},
	}
}

// DefaultPath is the conventional profile location under the user's
// config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "atspi-tree-visualizer", "config.yaml")
}

// Load reads a profile, layering the file's values over the defaults. A
// missing file is not an error; it yields the defaults unchanged.
func Load(path string) (Profile, error) {
	profile := Default()
	if path == "" {
		return profile, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return profile, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Default(), fmt.Errorf("parse profile %s: %w", path, err)
	}
	return profile, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa" into an RGBA color. A
// missing alpha means fully opaque.
func ParseColor(s string) (color.RGBA, error) {
	if len(s) == 0 || s[0] != '#' || (len(s) != 7 && len(s) != 9) {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(s) == 7 {
		v = v<<8 | 0xff
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
