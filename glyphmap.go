package charpic

import (
	"fmt"
	"unicode/utf8"
)

// DefaultGlyphs is the palette ranked from darkest (densest ink) to
// lightest. Existing renditions depend on it character for character.
const DefaultGlyphs = "@@$$&B88QMMGW##EE93SPPDOOU**==()+^,\"--''.  "

// GlyphMap is an ordered palette used as a lookup table from a luminance
// bucket to a display character. Index 0 is the darkest glyph.
type GlyphMap []rune

// NewGlyphMap builds a GlyphMap from a palette string.
func NewGlyphMap(palette string) (GlyphMap, error) {
	if palette == "" {
		return nil, fmt.Errorf("charpic: empty glyph palette")
	}
	if !utf8.ValidString(palette) {
		return nil, fmt.Errorf("charpic: glyph palette is not valid UTF-8")
	}
	return GlyphMap([]rune(palette)), nil
}

// DefaultGlyphMap returns a fresh copy of the default palette.
func DefaultGlyphMap() GlyphMap {
	return GlyphMap([]rune(DefaultGlyphs))
}

// Len returns the number of glyphs.
func (g GlyphMap) Len() int {
	return len(g)
}

// Glyph maps a luminance value to a glyph: floor(N*lum/256), clamped to
// the palette.
func (g GlyphMap) Glyph(lum uint8) rune {
	n := len(g)
	bucket := n * int(lum) / 256
	if bucket >= n {
		bucket = n - 1
	}
	if bucket < 0 {
		bucket = 0
	}
	return g[bucket]
}

// Contains reports whether r is part of the palette.
func (g GlyphMap) Contains(r rune) bool {
	for _, c := range g {
		if c == r {
			return true
		}
	}
	return false
}

// String returns the palette as a string.
func (g GlyphMap) String() string {
	return string(g)
}
