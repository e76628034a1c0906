package rain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/K2/matrix.svg/pkg/errors"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"equal bounds", func(c *Config) { c.GlyphsMin = 5; c.GlyphsMax = 5 }, false},
		{"zero columns", func(c *Config) { c.RegularColumns = 0; c.IrregularColumns = 0 }, false},
		{"nice above max", func(c *Config) { c.NiceLevel = 99 }, false}, // clamped, not rejected
		{"min above max", func(c *Config) { c.GlyphsMin = 10; c.GlyphsMax = 9 }, true},
		{"gps min zero", func(c *Config) { c.GlyphsMin = 0 }, true},
		{"negative regular", func(c *Config) { c.RegularColumns = -1 }, true},
		{"negative irregular", func(c *Config) { c.IrregularColumns = -1 }, true},
		{"negative nice", func(c *Config) { c.NiceLevel = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfiguration) {
				t.Errorf("wrong error code: %v", errors.GetCode(err))
			}
		})
	}
}

func TestCanvasWidthClamp(t *testing.T) {
	tests := []struct {
		offset int
		want   float64
	}{
		{0, 500},
		{300, 800},
		{-380, 120},
		{-380 - 1, 120},
		{-1000, 120},
	}

	for _, tt := range tests {
		cfg := Config{WidthOffset: tt.offset}
		if got := cfg.CanvasWidth(); got != tt.want {
			t.Errorf("CanvasWidth(offset=%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestCanonicalStable(t *testing.T) {
	a := DefaultConfig().Canonical()
	b := DefaultConfig().Canonical()
	if a != b {
		t.Error("Canonical() not stable")
	}

	other := DefaultConfig()
	other.GlyphsMax = 30
	if other.Canonical() == a {
		t.Error("distinct configs share a canonical form")
	}
}

func TestPreset(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, err := Preset(name)
		if err != nil {
			t.Errorf("Preset(%q) error: %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q is invalid: %v", name, err)
		}
	}

	_, err := Preset("nope")
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if !errors.Is(err, errors.ErrCodeInvalidPreset) {
		t.Errorf("wrong error code: %v", errors.GetCode(err))
	}
}

func TestPreviewPresetIsSmallScene(t *testing.T) {
	cfg, err := Preset("preview")
	if err != nil {
		t.Fatalf("Preset(preview) error: %v", err)
	}
	if cfg.TotalColumns() >= DefaultConfig().TotalColumns() {
		t.Error("preview preset should be smaller than the default scene")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rain.toml")
	content := `
lightning = false
nice = 2
gps_min = 8
gps_max = 12
columns_regular = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.IncludeLightning {
		t.Error("lightning should be disabled")
	}
	if cfg.NiceLevel != 2 || cfg.GlyphsMin != 8 || cfg.GlyphsMax != 12 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.RegularColumns != 4 {
		t.Errorf("RegularColumns = %d, want 4", cfg.RegularColumns)
	}
	// Keys absent from the file keep defaults.
	if cfg.IrregularColumns != DefaultConfig().IrregularColumns {
		t.Errorf("IrregularColumns = %d, want default %d", cfg.IrregularColumns, DefaultConfig().IrregularColumns)
	}
	if !cfg.IncludeMetadata {
		t.Error("metadata should default to enabled")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("nice = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, errors.ErrCodeInvalidConfiguration) {
		t.Errorf("expected INVALID_CONFIGURATION, got %v", err)
	}
}
