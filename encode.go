package charpic

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"math"
)

// grayPalette maps palette index i to gray level i, so gray pixels copy
// straight into paletted frames.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// SelectDurations expands recorded frame durations to one per frame. No
// recorded durations means fallback for every frame, a single duration
// applies to every frame, and a full list is passed through unchanged.
func SelectDurations(recorded []float64, frameCount int, fallback float64) ([]float64, error) {
	switch len(recorded) {
	case 0:
		return uniformDurations(fallback, frameCount), nil
	case 1:
		return uniformDurations(recorded[0], frameCount), nil
	}
	if len(recorded) != frameCount {
		return nil, fmt.Errorf("%w: %d durations for %d frames",
			ErrDurationMismatch, len(recorded), frameCount)
	}
	return recorded, nil
}

func uniformDurations(d float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// EncodeAnimation writes frames as a GIF that loops forever. Durations are
// in seconds, one per frame, and are stored as hundredths of a second.
func EncodeAnimation(w io.Writer, frames []*image.Gray, durations []float64) error {
	if len(frames) == 0 {
		return ErrNoFramesProcessed
	}
	if len(durations) != len(frames) {
		return fmt.Errorf("%w: %d durations for %d frames",
			ErrDurationMismatch, len(durations), len(frames))
	}

	size := frames[0].Rect.Size()
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
		Config: image.Config{
			ColorModel: grayPalette,
			Width:      size.X,
			Height:     size.Y,
		},
	}
	for i, f := range frames {
		if f.Rect.Size() != size {
			return fmt.Errorf("%w: frame %d is %v, want %v",
				ErrSizeInconsistent, i, f.Rect.Size(), size)
		}
		anim.Image[i] = toPaletted(f)
		anim.Delay[i] = int(math.Round(durations[i] * 100))
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("failed to encode animation: %w", err)
	}
	return nil
}

func toPaletted(g *image.Gray) *image.Paletted {
	width, height := g.Rect.Dx(), g.Rect.Dy()
	p := image.NewPaletted(image.Rect(0, 0, width, height), grayPalette)
	for y := 0; y < height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+width]
		copy(p.Pix[y*p.Stride:], row)
	}
	return p
}

// EncodeStill writes a single frame as PNG.
func EncodeStill(w io.Writer, frame *image.Gray) error {
	if frame == nil || frame.Rect.Empty() {
		return ErrEmptyCanvas
	}
	if err := png.Encode(w, frame); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
