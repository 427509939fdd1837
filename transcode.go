package charpic

import (
	"strings"
	"unicode/utf8"

	"github.com/wbrown/charpic/imageutil"
)

// Transcode walks the frame row-major and maps every pixel to a glyph,
// ending each row with a line break. The result has exactly Height() lines
// of Width() glyphs.
func (g GlyphMap) Transcode(src *imageutil.GrayImage) string {
	if src == nil || len(g) == 0 {
		return ""
	}
	width, height := src.Width(), src.Height()
	if width < 1 || height < 1 {
		return ""
	}

	maxRuneLen := 1
	for _, r := range g {
		if n := utf8.RuneLen(r); n > maxRuneLen {
			maxRuneLen = n
		}
	}

	var sb strings.Builder
	sb.Grow(height * (width*maxRuneLen + 1))
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width]
		for _, lum := range row {
			sb.WriteRune(g.Glyph(lum))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
