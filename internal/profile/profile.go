package profile

import (
	"regexp"
	"slices"
)

// MaxGrayscaleLevels is the upper clamp for Profile.GrayscaleLevels.
const MaxGrayscaleLevels = 256

// TextRule replaces the first match of Pattern in the entry at TargetPath.
// Replacement may reference capture groups as $1 or ${name}.
type TextRule struct {
	TargetPath  string `toml:"target_path"`
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`

	re *regexp.Regexp
}

// Regexp returns the compiled pattern. It is nil for rules that did not come
// from a Table.
func (r TextRule) Regexp() *regexp.Regexp {
	return r.re
}

// Profile is a named set of transformation parameters for one reading
// device. Profiles handed out by a Table are copies and may be used
// concurrently.
type Profile struct {
	ID          string     `toml:"id"`
	Name        string     `toml:"name"`
	Description string     `toml:"description"`
	TextRules   []TextRule `toml:"text_rules"`
	RemovePaths []string   `toml:"remove_paths"`

	// MaxWidth and MaxHeight cap image dimensions; 0 disables resizing.
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`

	// GrayscaleLevels of 0 or 1 disables quantization.
	GrayscaleLevels int `toml:"grayscale_levels"`
}

// ResizeEnabled reports whether both dimension caps are set.
func (p Profile) ResizeEnabled() bool {
	return p.MaxWidth > 0 && p.MaxHeight > 0
}

// Levels returns the effective grayscale level count: 0 when quantization is
// disabled, otherwise a value in [2,256].
func (p Profile) Levels() int {
	return clampLevels(p.GrayscaleLevels)
}

func (p Profile) clone() Profile {
	p.TextRules = slices.Clone(p.TextRules)
	p.RemovePaths = slices.Clone(p.RemovePaths)
	return p
}

func clampLevels(levels int) int {
	switch {
	case levels <= 1:
		return 0
	case levels > MaxGrayscaleLevels:
		return MaxGrayscaleLevels
	default:
		return levels
	}
}
