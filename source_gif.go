package charpic

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
)

// gifSource composites GIF frames onto the logical screen, honoring each
// frame's disposal method.
type gifSource struct {
	g    *gif.GIF
	comp *compositor
}

func newGIFSource(data []byte) (*gifSource, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	width, height := g.Config.Width, g.Config.Height
	frames := make([]canvasFrame, len(g.Image))
	for i, img := range g.Image {
		// Some encoders leave the logical screen unset or too small.
		width = max(width, img.Bounds().Max.X)
		height = max(height, img.Bounds().Max.Y)
		frames[i] = canvasFrame{bounds: img.Bounds(), dispose: disposeNone, blend: true}
		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				frames[i].dispose = disposeBackground
			case gif.DisposalPrevious:
				frames[i].dispose = disposePrevious
			}
		}
	}

	s := &gifSource{g: g}
	s.comp = newCompositor(width, height, frames, func(i int) (image.Image, error) {
		return g.Image[i], nil
	})
	return s, nil
}

func (s *gifSource) Format() Format  { return FormatGIF }
func (s *gifSource) FrameCount() int { return len(s.g.Image) }

func (s *gifSource) Seek(index int) (image.Image, error) {
	return s.comp.frame(index)
}

// FrameDuration converts the frame delay from hundredths of a second.
func (s *gifSource) FrameDuration(index int) (int, bool) {
	if index < 0 || index >= len(s.g.Delay) {
		return 0, false
	}
	return s.g.Delay[index] * 10, true
}
