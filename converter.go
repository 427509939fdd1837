package charpic

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/wbrown/charpic/imageutil"
)

const (
	// DefaultStaticWidth is the glyph grid width for still images.
	DefaultStaticWidth = 150

	// DefaultAnimatedWidth is the glyph grid width for animation frames.
	DefaultAnimatedWidth = 80

	// DefaultFrameDuration is used for frames without timing metadata.
	DefaultFrameDuration = 80 * time.Millisecond
)

// Converter turns images into glyph-art images. A Converter holds no
// mutable state after construction and is safe for concurrent use.
type Converter struct {
	// Configuration options
	StaticWidth      int
	AnimatedWidth    int
	AspectRatio      float64
	FallbackDuration time.Duration

	glyphs     GlyphMap
	rasterizer *TextRasterizer
}

// ConverterOption is a functional option for configuring a Converter.
type ConverterOption func(*Converter)

// NewConverter creates a new Converter with the given options.
// Default values: StaticWidth=150, AnimatedWidth=80, AspectRatio=0.55,
// FallbackDuration=80ms, the default glyph palette and a rasterizer
// without a TrueType font.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		StaticWidth:      DefaultStaticWidth,
		AnimatedWidth:    DefaultAnimatedWidth,
		AspectRatio:      DefaultAspectRatio,
		FallbackDuration: DefaultFrameDuration,
		glyphs:           DefaultGlyphMap(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rasterizer == nil {
		c.rasterizer = NewTextRasterizer(nil)
	}
	return c
}

// WithGlyphs sets the glyph palette.
func WithGlyphs(g GlyphMap) ConverterOption {
	return func(c *Converter) {
		if len(g) > 0 {
			c.glyphs = append(GlyphMap(nil), g...)
		}
	}
}

// WithStaticWidth sets the glyph grid width for still images.
func WithStaticWidth(width int) ConverterOption {
	return func(c *Converter) {
		c.StaticWidth = width
	}
}

// WithAnimatedWidth sets the glyph grid width for animation frames.
func WithAnimatedWidth(width int) ConverterOption {
	return func(c *Converter) {
		c.AnimatedWidth = width
	}
}

// WithAspectRatio sets the glyph cell aspect correction.
func WithAspectRatio(aspect float64) ConverterOption {
	return func(c *Converter) {
		c.AspectRatio = aspect
	}
}

// WithFallbackDuration sets the duration of frames without timing metadata.
func WithFallbackDuration(d time.Duration) ConverterOption {
	return func(c *Converter) {
		c.FallbackDuration = d
	}
}

// WithFont renders text with a TrueType font. A nil font selects the
// built-in face.
func WithFont(f *Font) ConverterOption {
	return func(c *Converter) {
		c.rasterizer = NewTextRasterizer(f)
	}
}

// WithRasterizer sets the text rasterizer.
func WithRasterizer(r *TextRasterizer) ConverterOption {
	return func(c *Converter) {
		c.rasterizer = r
	}
}

// Glyphs returns the palette in use.
func (c *Converter) Glyphs() GlyphMap {
	return c.glyphs
}

// Rasterizer returns the text rasterizer in use.
func (c *Converter) Rasterizer() *TextRasterizer {
	return c.rasterizer
}

// FrameText renders one image as glyph text: grayscale, downsample to a
// grid width columns wide, then transcode. Failures are logged and yield
// an empty string.
func (c *Converter) FrameText(img image.Image, width int, enforce bool) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Warn("frame transcoding failed", "error", fmt.Sprint(rec))
			text = ""
		}
	}()
	if img == nil {
		Logger().Warn("frame transcoding failed", "error", ErrEmptyInput)
		return ""
	}
	gray := imageutil.ToGrayscale(img)
	small, err := Downsample(gray, width, enforce, c.AspectRatio)
	if err != nil {
		Logger().Warn("frame transcoding failed", "error", err)
		return ""
	}
	return c.glyphs.Transcode(small)
}

// ConvertStatic renders a still image as a PNG of its glyph text.
func (c *Converter) ConvertStatic(img image.Image) ([]byte, error) {
	text := c.FrameText(img, c.StaticWidth, false)
	if text == "" {
		return nil, ErrEmptyText
	}
	rendered := c.rasterizer.Render(text)

	var buf bytes.Buffer
	if err := EncodeStill(&buf, rendered); err != nil {
		return nil, err
	}
	Logger().Debug("static conversion done",
		"width", rendered.Rect.Dx(), "height", rendered.Rect.Dy())
	return buf.Bytes(), nil
}

// ConvertAnimated renders every frame of src and encodes the result as a
// looping GIF.
func (c *Converter) ConvertAnimated(src AnimatedSource) ([]byte, error) {
	anim, err := c.NormalizeFrames(src)
	if err != nil {
		return nil, err
	}
	durations, err := SelectDurations(anim.Durations, len(anim.Frames), c.FallbackDuration.Seconds())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := EncodeAnimation(&buf, anim.Frames, durations); err != nil {
		return nil, err
	}
	Logger().Debug("animated conversion done", "frames", len(anim.Frames))
	return buf.Bytes(), nil
}

// Result is a finished conversion.
type Result struct {
	Data     []byte
	Animated bool
	Frames   int
	Format   Format
}

// Extension returns the file extension matching Data.
func (r *Result) Extension() string {
	if r.Animated {
		return ".gif"
	}
	return ".png"
}

// ContentType returns the MIME type of Data.
func (r *Result) ContentType() string {
	if r.Animated {
		return "image/gif"
	}
	return "image/png"
}

// Convert decodes data, decides between the still and the animated
// pipeline, and returns the encoded result.
func (c *Converter) Convert(data []byte) (*Result, error) {
	src, err := OpenSource(data)
	if err != nil {
		return nil, err
	}

	if IsAnimated(src) {
		out, err := c.ConvertAnimated(src)
		if err != nil {
			return nil, fmt.Errorf("converting %s animation: %w", src.Format(), err)
		}
		Logger().Info("converted animation", "format", src.Format(), "frames", src.FrameCount())
		return &Result{Data: out, Animated: true, Frames: src.FrameCount(), Format: src.Format()}, nil
	}

	img, err := src.Seek(0)
	if err != nil {
		if errors.Is(err, ErrFrameOutOfRange) {
			err = ErrNoValidFrames
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	out, err := c.ConvertStatic(img)
	if err != nil {
		return nil, fmt.Errorf("converting %s image: %w", src.Format(), err)
	}
	Logger().Info("converted still image", "format", src.Format())
	return &Result{Data: out, Frames: 1, Format: src.Format()}, nil
}
