package rain

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/K2/matrix.svg/pkg/errors"
)

// Canvas geometry. The height is fixed; the width is the 500px base plus
// the configured offset, never below the minimum.
const (
	BaseCanvasWidth = 500.0
	CanvasHeight    = 500.0
	MinCanvasWidth  = 120.0
)

// Seed drives every pseudo-random draw during generation. It is a fixed
// constant so that identical configurations produce byte-identical
// documents; golden tests depend on it.
const Seed = 0xC0FFEE

// Config holds all generation parameters. The zero value is not useful;
// start from DefaultConfig or a preset.
type Config struct {
	IncludeLightning bool `toml:"lightning"`
	NiceLevel        int  `toml:"nice"`
	GlyphsMin        int  `toml:"gps_min"`
	GlyphsMax        int  `toml:"gps_max"`
	RegularColumns   int  `toml:"columns_regular"`
	IrregularColumns int  `toml:"columns_irregular"`
	WidthOffset      int  `toml:"width_offset"`
	IncludeMetadata  bool `toml:"metadata"`
}

// DefaultConfig returns the full-scene defaults.
func DefaultConfig() Config {
	return Config{
		IncludeLightning: true,
		NiceLevel:        0,
		GlyphsMin:        22,
		GlyphsMax:        22,
		RegularColumns:   len(strandTemplates),
		IrregularColumns: len(strandTemplates),
		WidthOffset:      0,
		IncludeMetadata:  true,
	}
}

// Validate checks numeric bounds. A nice level above MaxNiceLevel is not an
// error; it is clamped during generation.
func (c Config) Validate() error {
	if c.GlyphsMin < 1 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "gps-min must be >= 1, got %d", c.GlyphsMin)
	}
	if c.GlyphsMax < c.GlyphsMin {
		return errors.New(errors.ErrCodeInvalidConfiguration, "gps-max %d must be >= gps-min %d", c.GlyphsMax, c.GlyphsMin)
	}
	if c.RegularColumns < 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "columns-regular must be >= 0, got %d", c.RegularColumns)
	}
	if c.IrregularColumns < 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "columns-irregular must be >= 0, got %d", c.IrregularColumns)
	}
	if c.NiceLevel < 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "nice must be >= 0, got %d", c.NiceLevel)
	}
	return nil
}

// CanvasWidth returns the output canvas width: base plus offset, clamped
// to the minimum. Negative offsets simply shrink the canvas.
func (c Config) CanvasWidth() float64 {
	w := BaseCanvasWidth + float64(c.WidthOffset)
	if w < MinCanvasWidth {
		return MinCanvasWidth
	}
	return w
}

// Canonical returns a stable single-line representation of the config,
// used for cache keys and the embedded document identifier.
func (c Config) Canonical() string {
	return fmt.Sprintf("lightning=%t nice=%d gps=%d-%d reg=%d irr=%d woff=%d meta=%t",
		c.IncludeLightning, c.NiceLevel, c.GlyphsMin, c.GlyphsMax,
		c.RegularColumns, c.IrregularColumns, c.WidthOffset, c.IncludeMetadata)
}

// TotalColumns returns the number of strand groups the document will contain.
func (c Config) TotalColumns() int {
	return c.RegularColumns + c.IrregularColumns
}

// LoadConfig reads a TOML config file and merges it over the defaults.
// Keys absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "read config file %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "parse config file %s", path)
	}
	return cfg, nil
}

// Presets are named ready-made configurations. "preview" is the small-scene
// shorthand exposed by the CLI's --preview flag.
var presets = map[string]Config{
	"default": DefaultConfig(),
	"preview": {
		IncludeLightning: true,
		GlyphsMin:        10,
		GlyphsMax:        14,
		RegularColumns:   5,
		IrregularColumns: 2,
		WidthOffset:      -200,
		IncludeMetadata:  true,
	},
	"dense": {
		IncludeLightning: true,
		GlyphsMin:        26,
		GlyphsMax:        30,
		RegularColumns:   16,
		IrregularColumns: 8,
		WidthOffset:      220,
		IncludeMetadata:  true,
	},
	"calm": {
		IncludeLightning: false,
		NiceLevel:        3,
		GlyphsMin:        14,
		GlyphsMax:        18,
		RegularColumns:   8,
		IrregularColumns: 4,
		IncludeMetadata:  true,
	},
}

// Preset returns a named preset configuration.
func Preset(name string) (Config, error) {
	cfg, ok := presets[name]
	if !ok {
		return Config{}, errors.New(errors.ErrCodeInvalidPreset, "unknown preset %q (available: %v)", name, PresetNames())
	}
	return cfg, nil
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
