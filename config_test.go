package charpic

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "charpic.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Glyphs != DefaultGlyphs || cfg.FontSize != DefaultFontSize || !cfg.TLSLegacy {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
glyphs: "#. "
static_width: 120
font_path: builtin
fallback_duration: 100ms
fetch_timeout: 5s
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Glyphs != "#. " || cfg.StaticWidth != 120 || cfg.FontPath != BuiltinFontName {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.FallbackDuration != 100*time.Millisecond || cfg.FetchTimeout != 5*time.Second {
		t.Errorf("durations = %v, %v", cfg.FallbackDuration, cfg.FetchTimeout)
	}
	// Keys not in the file keep their defaults.
	if cfg.AnimatedWidth != DefaultAnimatedWidth || cfg.AspectRatio != DefaultAspectRatio {
		t.Errorf("defaults lost: %+v", cfg)
	}

	opts, err := cfg.ConverterOptions()
	if err != nil {
		t.Fatal(err)
	}
	c := NewConverter(opts...)
	if c.StaticWidth != 120 || c.Glyphs().String() != "#. " || c.FallbackDuration != 100*time.Millisecond {
		t.Errorf("converter = %+v", c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "static_widht: 10\n"},
		{"empty palette", "glyphs: \"\"\n"},
		{"bad aspect", "aspect_ratio: 0\n"},
		{"negative width", "animated_width: -1\n"},
		{"not yaml", "glyphs: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("LoadConfig accepted an invalid file")
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
