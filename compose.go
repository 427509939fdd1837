package charpic

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// disposal is what happens to a frame's region once it has been shown.
type disposal int

const (
	disposeNone disposal = iota
	disposeBackground
	disposePrevious
)

// canvasFrame places one decoded frame on the animation canvas.
type canvasFrame struct {
	bounds  image.Rectangle
	dispose disposal
	blend   bool
}

// compositor replays frames onto a canvas so every frame can be returned
// fully composited, the way a viewer would show it. Sequential seeks
// reuse the canvas; seeking backwards replays from frame 0.
type compositor struct {
	width, height int
	frames        []canvasFrame
	decode        func(index int) (image.Image, error)

	canvas *image.NRGBA
	saved  *image.NRGBA
	drawn  int
}

func newCompositor(width, height int, frames []canvasFrame, decode func(int) (image.Image, error)) *compositor {
	c := &compositor{width: width, height: height, frames: frames, decode: decode}
	c.reset()
	return c
}

func (c *compositor) reset() {
	c.canvas = image.NewNRGBA(image.Rect(0, 0, c.width, c.height))
	c.saved = nil
	c.drawn = -1
}

func (c *compositor) frame(index int) (image.Image, error) {
	if index < 0 || index >= len(c.frames) {
		return nil, ErrFrameOutOfRange
	}
	if index < c.drawn {
		c.reset()
	}
	for c.drawn < index {
		if err := c.advance(); err != nil {
			c.reset()
			return nil, err
		}
	}
	return imaging.Clone(c.canvas), nil
}

func (c *compositor) advance() error {
	next := c.drawn + 1
	img, err := c.decode(next)
	if err != nil {
		return err
	}
	if c.drawn >= 0 {
		c.dispose(c.drawn)
	}
	f := c.frames[next]
	if f.dispose == disposePrevious {
		c.saved = imaging.Clone(c.canvas)
	}
	op := draw.Src
	if f.blend {
		op = draw.Over
	}
	draw.Draw(c.canvas, f.bounds, img, img.Bounds().Min, op)
	c.drawn = next
	return nil
}

func (c *compositor) dispose(index int) {
	switch c.frames[index].dispose {
	case disposeBackground:
		draw.Draw(c.canvas, c.frames[index].bounds, image.Transparent, image.Point{}, draw.Src)
	case disposePrevious:
		if c.saved != nil {
			c.canvas = c.saved
			c.saved = nil
		}
	}
}
