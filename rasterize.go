package charpic

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// FallbackCellWidth and FallbackLineHeight size the canvas when no
	// TrueType font is available. They are estimates, not measurements.
	FallbackCellWidth  = 10
	FallbackLineHeight = 12

	// PlaceholderWidth and PlaceholderHeight size the blank image returned
	// when rendering fails.
	PlaceholderWidth  = 100
	PlaceholderHeight = 50

	// maxCanvasPixels bounds the canvas a text block may allocate.
	maxCanvasPixels = 1 << 26
)

// TextRasterizer renders text blocks onto grayscale canvases sized to fit
// the text exactly. It is safe for concurrent use.
type TextRasterizer struct {
	font *Font
}

// NewTextRasterizer creates a rasterizer. A nil font selects the built-in
// bitmap face with heuristic sizing.
func NewTextRasterizer(f *Font) *TextRasterizer {
	return &TextRasterizer{font: f}
}

// Font returns the TrueType font in use, or nil in fallback mode.
func (r *TextRasterizer) Font() *Font {
	return r.font
}

// Fallback reports whether the rasterizer uses the built-in face.
func (r *TextRasterizer) Fallback() bool {
	return r.font == nil
}

// textLines splits a newline-terminated text block into its rows. A single
// trailing newline does not start another row.
func textLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func maxLineLength(lines []string) int {
	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return longest
}

// layout holds the measured geometry of a text block.
type layout struct {
	width, height int
	lineHeight    int
	ascent        int
}

func (r *TextRasterizer) measure(face font.Face, lines []string) layout {
	m := face.Metrics()
	if r.font == nil {
		return layout{
			width:      maxLineLength(lines) * FallbackCellWidth,
			height:     len(lines) * FallbackLineHeight,
			lineHeight: FallbackLineHeight,
			ascent:     m.Ascent.Ceil(),
		}
	}
	l := layout{
		ascent:     m.Ascent.Ceil(),
		lineHeight: m.Ascent.Ceil() + m.Descent.Ceil(),
	}
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > l.width {
			l.width = w
		}
	}
	l.height = len(lines) * l.lineHeight
	return l
}

func (r *TextRasterizer) face() font.Face {
	if r.font == nil {
		return basicfont.Face7x13
	}
	return r.font.newFace()
}

// Measure returns the canvas size Render would allocate for text.
func (r *TextRasterizer) Measure(text string) (int, int) {
	if text == "" {
		return 1, 1
	}
	face := r.face()
	defer face.Close()
	l := r.measure(face, textLines(text))
	return max(l.width, 1), max(l.height, 1)
}

// Render draws text black on white, anchored at the top-left corner,
// without wrapping. Empty text yields a 1x1 white canvas. Any fault while
// rendering yields a PlaceholderWidth x PlaceholderHeight white canvas.
func (r *TextRasterizer) Render(text string) (img *image.Gray) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Warn("text rendering failed, using placeholder",
				"error", fmt.Sprint(rec))
			img = blankCanvas(PlaceholderWidth, PlaceholderHeight)
		}
	}()

	if text == "" {
		return blankCanvas(1, 1)
	}

	face := r.face()
	defer face.Close()

	lines := textLines(text)
	l := r.measure(face, lines)
	width, height := max(l.width, 1), max(l.height, 1)
	if width*height > maxCanvasPixels {
		Logger().Warn("text block too large to render, using placeholder",
			"width", width, "height", height)
		return blankCanvas(PlaceholderWidth, PlaceholderHeight)
	}

	img = blankCanvas(width, height)
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for i, line := range lines {
		d.Dot = fixed.P(0, i*l.lineHeight+l.ascent)
		d.DrawString(line)
	}
	return img
}

// blankCanvas returns a white grayscale canvas.
func blankCanvas(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}
