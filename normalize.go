package charpic

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Animation is a sequence of rendered frames of equal size, with the
// display time of each frame in seconds.
type Animation struct {
	Frames    []*image.Gray
	Durations []float64
}

// Size returns the common frame size.
func (a *Animation) Size() image.Point {
	if len(a.Frames) == 0 {
		return image.Point{}
	}
	return a.Frames[0].Rect.Size()
}

// NormalizeFrames renders every frame of src as glyph art and pads the
// results to one common size. Iteration stops at ErrFrameOutOfRange; any
// other seek error aborts the conversion.
func (c *Converter) NormalizeFrames(src AnimatedSource) (*Animation, error) {
	if _, err := src.Seek(0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoValidFrames, err)
	}

	anim := &Animation{}
	for i := 0; ; i++ {
		img, err := src.Seek(i)
		if errors.Is(err, ErrFrameOutOfRange) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		text := c.FrameText(img, c.AnimatedWidth, true)
		frame := c.rasterizer.Render(text)
		anim.Frames = append(anim.Frames, frame)
		anim.Durations = append(anim.Durations, c.frameDuration(src, i))

		Logger().Debug("frame rendered", "index", i,
			"width", frame.Rect.Dx(), "height", frame.Rect.Dy())
	}

	if len(anim.Frames) == 0 {
		return nil, ErrNoFramesProcessed
	}
	if _, err := PadFrames(anim.Frames); err != nil {
		return nil, err
	}
	return anim, nil
}

// frameDuration resolves the display time of frame i in seconds: the
// frame's own metadata first, then the container default, then the
// converter fallback. Non-positive values fall back as well.
func (c *Converter) frameDuration(src AnimatedSource, i int) float64 {
	fallback := c.FallbackDuration.Seconds()
	ms, ok := src.FrameDuration(i)
	if !ok {
		if g, isGlobal := src.(GlobalDurationSource); isGlobal {
			ms, ok = g.GlobalDuration()
		}
	}
	if !ok || ms <= 0 {
		return fallback
	}
	return float64(ms) / 1000
}

// PadFrames brings every frame to the largest width and height among
// them. Smaller frames are drawn at the top-left corner of a white canvas.
// Frames are replaced in place; the common size is returned.
func PadFrames(frames []*image.Gray) (image.Point, error) {
	var size image.Point
	for _, f := range frames {
		size.X = max(size.X, f.Rect.Dx())
		size.Y = max(size.Y, f.Rect.Dy())
	}
	if size.X == 0 || size.Y == 0 {
		return image.Point{}, ErrEmptyCanvas
	}

	for i, f := range frames {
		if f.Rect.Size() == size {
			continue
		}
		padded := blankCanvas(size.X, size.Y)
		draw.Draw(padded, f.Rect.Sub(f.Rect.Min), f, f.Rect.Min, draw.Src)
		frames[i] = padded
	}

	for i, f := range frames {
		if f.Rect.Size() != size {
			return image.Point{}, fmt.Errorf("%w: frame %d is %v, want %v",
				ErrSizeInconsistent, i, f.Rect.Size(), size)
		}
	}
	return size, nil
}
