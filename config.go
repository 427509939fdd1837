package charpic

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the file-backed configuration of a conversion host.
type Config struct {
	Glyphs           string        `yaml:"glyphs"`
	StaticWidth      int           `yaml:"static_width"`
	AnimatedWidth    int           `yaml:"animated_width"`
	FontPath         string        `yaml:"font_path"`
	FontSize         float64       `yaml:"font_size"`
	AspectRatio      float64       `yaml:"aspect_ratio"`
	FallbackDuration time.Duration `yaml:"fallback_duration"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`

	// TLSLegacy restricts downloads to TLS 1.2 with a fixed set of
	// ECDHE AEAD cipher suites.
	TLSLegacy bool `yaml:"tls_legacy"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Glyphs:           DefaultGlyphs,
		StaticWidth:      DefaultStaticWidth,
		AnimatedWidth:    DefaultAnimatedWidth,
		FontSize:         DefaultFontSize,
		AspectRatio:      DefaultAspectRatio,
		FallbackDuration: DefaultFrameDuration,
		FetchTimeout:     30 * time.Second,
		TLSLegacy:        true,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys missing from
// the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if _, err := NewGlyphMap(c.Glyphs); err != nil {
		return err
	}
	switch {
	case c.StaticWidth < 0:
		return fmt.Errorf("static_width must not be negative, got %d", c.StaticWidth)
	case c.AnimatedWidth < 0:
		return fmt.Errorf("animated_width must not be negative, got %d", c.AnimatedWidth)
	case c.FontSize <= 0:
		return fmt.Errorf("font_size must be positive, got %v", c.FontSize)
	case c.AspectRatio <= 0:
		return fmt.Errorf("aspect_ratio must be positive, got %v", c.AspectRatio)
	case c.FallbackDuration <= 0:
		return fmt.Errorf("fallback_duration must be positive, got %v", c.FallbackDuration)
	case c.FetchTimeout < 0:
		return fmt.Errorf("fetch_timeout must not be negative, got %v", c.FetchTimeout)
	}
	return nil
}

// ConverterOptions translates the configuration into converter options.
// The font is loaded separately, see LoadFont.
func (c Config) ConverterOptions() ([]ConverterOption, error) {
	glyphs, err := NewGlyphMap(c.Glyphs)
	if err != nil {
		return nil, err
	}
	return []ConverterOption{
		WithGlyphs(glyphs),
		WithStaticWidth(c.StaticWidth),
		WithAnimatedWidth(c.AnimatedWidth),
		WithAspectRatio(c.AspectRatio),
		WithFallbackDuration(c.FallbackDuration),
	}, nil
}
