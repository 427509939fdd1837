package charpic

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/wbrown/charpic/imageutil"
)

// noDuration marks a frame without timing metadata.
const noDuration = math.MinInt

// fakeSource serves prepared frames.
type fakeSource struct {
	frames    []image.Image
	durations []int
	failAt    int
	failErr   error
}

func (s *fakeSource) Format() Format  { return FormatUnknown }
func (s *fakeSource) FrameCount() int { return len(s.frames) }

func (s *fakeSource) Seek(i int) (image.Image, error) {
	if s.failErr != nil && i == s.failAt {
		return nil, s.failErr
	}
	if i < 0 || i >= len(s.frames) {
		return nil, ErrFrameOutOfRange
	}
	return s.frames[i], nil
}

func (s *fakeSource) FrameDuration(i int) (int, bool) {
	if i >= len(s.durations) || s.durations[i] == noDuration {
		return 0, false
	}
	return s.durations[i], true
}

type globalSource struct {
	*fakeSource
	global int
}

func (s globalSource) GlobalDuration() (int, bool) { return s.global, true }

func gradientFrames(sizes ...image.Point) []image.Image {
	frames := make([]image.Image, len(sizes))
	for i, sz := range sizes {
		frames[i] = imageutil.CreateGradientImage(sz.X, sz.Y)
	}
	return frames
}

func TestNormalizeFramesMixedSizes(t *testing.T) {
	c := NewConverter()
	src := &fakeSource{
		frames:    gradientFrames(image.Pt(100, 60), image.Pt(120, 60), image.Pt(100, 80)),
		durations: []int{50, 100, 150},
	}
	anim, err := c.NormalizeFrames(src)
	if err != nil {
		t.Fatalf("NormalizeFrames: %v", err)
	}
	if len(anim.Frames) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(anim.Frames))
	}

	want := []float64{0.05, 0.10, 0.15}
	for i, d := range anim.Durations {
		if d != want[i] {
			t.Errorf("duration[%d] = %v, want %v", i, d, want[i])
		}
	}

	var maxW, maxH int
	for _, f := range src.frames {
		w, h := c.Rasterizer().Measure(c.FrameText(f, c.AnimatedWidth, true))
		maxW, maxH = max(maxW, w), max(maxH, h)
	}
	size := anim.Size()
	if size != image.Pt(maxW, maxH) {
		t.Errorf("common size = %v, want %dx%d", size, maxW, maxH)
	}
	for i, f := range anim.Frames {
		if f.Rect.Size() != size {
			t.Errorf("frame %d is %v, want %v", i, f.Rect.Size(), size)
		}
	}
}

func TestNormalizeFramesDurations(t *testing.T) {
	frames := gradientFrames(image.Pt(20, 10), image.Pt(20, 10), image.Pt(20, 10))
	tests := []struct {
		name string
		src  AnimatedSource
		want []float64
	}{
		{
			name: "zero and negative fall back",
			src:  &fakeSource{frames: frames, durations: []int{0, 40, -5}},
			want: []float64{0.08, 0.04, 0.08},
		},
		{
			name: "missing metadata falls back",
			src:  &fakeSource{frames: frames},
			want: []float64{0.08, 0.08, 0.08},
		},
		{
			name: "container default",
			src:  globalSource{&fakeSource{frames: frames, durations: []int{noDuration, 30, noDuration}}, 120},
			want: []float64{0.12, 0.03, 0.12},
		},
		{
			name: "non-positive container default falls back",
			src:  globalSource{&fakeSource{frames: frames, durations: []int{noDuration, noDuration, noDuration}}, 0},
			want: []float64{0.08, 0.08, 0.08},
		},
	}
	c := NewConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anim, err := c.NormalizeFrames(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			for i, d := range anim.Durations {
				if d != tt.want[i] {
					t.Errorf("duration[%d] = %v, want %v", i, d, tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeFramesErrors(t *testing.T) {
	c := NewConverter()
	boom := errors.New("corrupt frame")
	frames := gradientFrames(image.Pt(20, 10), image.Pt(20, 10), image.Pt(20, 10))

	if _, err := c.NormalizeFrames(&fakeSource{}); !errors.Is(err, ErrNoValidFrames) {
		t.Errorf("empty source error = %v, want ErrNoValidFrames", err)
	}
	if _, err := c.NormalizeFrames(&fakeSource{frames: frames, failAt: 0, failErr: boom}); !errors.Is(err, ErrNoValidFrames) {
		t.Errorf("first frame error = %v, want ErrNoValidFrames", err)
	}
	_, err := c.NormalizeFrames(&fakeSource{frames: frames, failAt: 2, failErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("mid-sequence error = %v, want %v", err, boom)
	}
}

func TestPadFrames(t *testing.T) {
	frames := []*image.Gray{
		filledGray(100, 60, 0),
		filledGray(120, 60, 0),
		filledGray(100, 80, 0),
	}
	first := frames[1]
	size, err := PadFrames(frames)
	if err != nil {
		t.Fatal(err)
	}
	if size != image.Pt(120, 80) {
		t.Fatalf("size = %v, want 120x80", size)
	}
	for i, f := range frames {
		if f.Rect != image.Rect(0, 0, 120, 80) {
			t.Errorf("frame %d bounds = %v", i, f.Rect)
		}
	}

	// Content stays at the top-left, padding is white.
	f0 := frames[0]
	if f0.GrayAt(99, 59).Y != 0 {
		t.Error("original content moved")
	}
	if f0.GrayAt(110, 30).Y != 0xff || f0.GrayAt(50, 70).Y != 0xff {
		t.Error("padding is not white")
	}
	if frames[1] == first {
		t.Error("frame with the common width but short height was not padded")
	}
}

func TestPadFramesKeepsMatchingFrames(t *testing.T) {
	a, b := filledGray(10, 10, 3), filledGray(10, 10, 4)
	frames := []*image.Gray{a, b}
	if _, err := PadFrames(frames); err != nil {
		t.Fatal(err)
	}
	if frames[0] != a || frames[1] != b {
		t.Error("frames of the common size should be kept as is")
	}
}

func TestPadFramesEmptyCanvas(t *testing.T) {
	frames := []*image.Gray{image.NewGray(image.Rect(0, 0, 0, 5))}
	if _, err := PadFrames(frames); !errors.Is(err, ErrEmptyCanvas) {
		t.Errorf("error = %v, want ErrEmptyCanvas", err)
	}
	if _, err := PadFrames(nil); !errors.Is(err, ErrEmptyCanvas) {
		t.Errorf("error = %v, want ErrEmptyCanvas", err)
	}
}
