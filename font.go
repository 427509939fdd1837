package charpic

import (
	"fmt"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	// DefaultFontSize is the point size text is rendered at (72 DPI, so
	// points equal pixels).
	DefaultFontSize = 14

	// BuiltinFontName selects the embedded Go Mono face instead of a file.
	BuiltinFontName = "builtin"

	fontDPI = 72
)

// Font is a parsed TrueType font at a fixed size. It is loaded once and
// shared read-only; every render creates its own face.
type Font struct {
	ttf  *truetype.Font
	size float64
	name string
}

// LoadFont loads a TrueType font from file. The name BuiltinFontName loads
// the embedded Go Mono font.
func LoadFont(path string, size float64) (*Font, error) {
	if path == BuiltinFontName {
		return BuiltinFont(size)
	}
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := ParseFont(fontBytes, size)
	if err != nil {
		return nil, err
	}
	f.name = path
	return f, nil
}

// BuiltinFont returns the embedded Go Mono font at the given size.
func BuiltinFont(size float64) (*Font, error) {
	f, err := ParseFont(gomono.TTF, size)
	if err != nil {
		return nil, err
	}
	f.name = BuiltinFontName
	return f, nil
}

// ParseFont parses TrueType font data.
func ParseFont(data []byte, size float64) (*Font, error) {
	if size <= 0 {
		return nil, fmt.Errorf("charpic: invalid font size %v", size)
	}
	ttf, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Font{ttf: ttf, size: size}, nil
}

// Name returns the path or name the font was loaded from.
func (f *Font) Name() string {
	return f.name
}

// Size returns the point size.
func (f *Font) Size() float64 {
	return f.size
}

func (f *Font) newFace() font.Face {
	return truetype.NewFace(f.ttf, &truetype.Options{
		Size:    f.size,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
}
