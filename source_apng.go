package charpic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
)

// APNG frame control operations.
const (
	apngDisposeNone       = 0
	apngDisposeBackground = 1
	apngDisposePrevious   = 2

	apngBlendSource = 0
	apngBlendOver   = 1
)

// apngFrame is one fcTL chunk plus the image data that follows it.
type apngFrame struct {
	width, height int
	x, y          int
	delayNum      uint16
	delayDen      uint16
	disposeOp     byte
	blendOp       byte
	data          [][]byte
}

// apngSource reads PNG and APNG files. Plain PNGs, and APNGs whose
// animation control is unusable, become single-frame sources.
type apngSource struct {
	data   []byte
	ihdr   []byte
	shared []pngChunk
	frames []apngFrame
	comp   *compositor
}

// pngSharedChunks are the chunks every rebuilt frame stream needs to
// decode the same way as the original image.
var pngSharedChunks = map[string]bool{
	"PLTE": true, "tRNS": true, "gAMA": true, "cHRM": true,
	"sRGB": true, "iCCP": true, "sBIT": true,
}

func newAPNGSource(data []byte) (*apngSource, error) {
	chunks, err := readChunks(data, pngSignature, "IEND")
	if err != nil {
		return nil, err
	}

	s := &apngSource{data: data}
	var animated, seenIDAT bool
	var width, height int
	current := -1
	for _, c := range chunks {
		switch c.typ {
		case "IHDR":
			if len(c.data) != 13 {
				return nil, fmt.Errorf("invalid IHDR length %d", len(c.data))
			}
			s.ihdr = c.data
			width = int(binary.BigEndian.Uint32(c.data[0:4]))
			height = int(binary.BigEndian.Uint32(c.data[4:8]))
		case "acTL":
			animated = !seenIDAT
		case "fcTL":
			f, err := parseFrameControl(c.data)
			if err != nil {
				return nil, err
			}
			if f.x+f.width > width || f.y+f.height > height {
				return nil, fmt.Errorf("frame %d outside the %dx%d canvas", len(s.frames), width, height)
			}
			s.frames = append(s.frames, f)
			current = len(s.frames) - 1
		case "IDAT":
			seenIDAT = true
			// IDAT belongs to the animation only when an fcTL precedes it.
			if current == 0 {
				s.frames[0].data = append(s.frames[0].data, c.data)
			}
		case "fdAT":
			if len(c.data) < 4 || current < 0 {
				return nil, fmt.Errorf("misplaced fdAT chunk")
			}
			s.frames[current].data = append(s.frames[current].data, c.data[4:])
		default:
			if !seenIDAT && pngSharedChunks[c.typ] {
				s.shared = append(s.shared, c)
			}
		}
	}
	if s.ihdr == nil {
		return nil, fmt.Errorf("missing IHDR chunk")
	}

	if !animated || len(s.frames) == 0 {
		s.frames = nil
		return s, nil
	}
	// Frames without image data are dropped, as a decoder would skip them.
	usable := s.frames[:0]
	for _, f := range s.frames {
		if len(f.data) > 0 {
			usable = append(usable, f)
		}
	}
	s.frames = usable
	if len(s.frames) == 0 {
		return s, nil
	}

	placement := make([]canvasFrame, len(s.frames))
	for i, f := range s.frames {
		placement[i] = canvasFrame{
			bounds: image.Rect(f.x, f.y, f.x+f.width, f.y+f.height),
			blend:  f.blendOp == apngBlendOver,
		}
		switch f.disposeOp {
		case apngDisposeBackground:
			placement[i].dispose = disposeBackground
		case apngDisposePrevious:
			placement[i].dispose = disposePrevious
		}
	}
	// A first frame cannot restore a previous state; it clears instead.
	if placement[0].dispose == disposePrevious {
		placement[0].dispose = disposeBackground
	}
	s.comp = newCompositor(width, height, placement, s.decodeFrame)
	return s, nil
}

func parseFrameControl(b []byte) (apngFrame, error) {
	if len(b) != 26 {
		return apngFrame{}, fmt.Errorf("invalid fcTL length %d", len(b))
	}
	f := apngFrame{
		width:     int(binary.BigEndian.Uint32(b[4:8])),
		height:    int(binary.BigEndian.Uint32(b[8:12])),
		x:         int(binary.BigEndian.Uint32(b[12:16])),
		y:         int(binary.BigEndian.Uint32(b[16:20])),
		delayNum:  binary.BigEndian.Uint16(b[20:22]),
		delayDen:  binary.BigEndian.Uint16(b[22:24]),
		disposeOp: b[24],
		blendOp:   b[25],
	}
	if f.width <= 0 || f.height <= 0 || f.x < 0 || f.y < 0 {
		return apngFrame{}, fmt.Errorf("invalid fcTL geometry %dx%d+%d+%d", f.width, f.height, f.x, f.y)
	}
	return f, nil
}

func (s *apngSource) decodeFrame(index int) (image.Image, error) {
	f := s.frames[index]
	img, err := png.Decode(bytes.NewReader(buildPNG(s.ihdr, f.width, f.height, s.shared, f.data)))
	if err != nil {
		return nil, fmt.Errorf("apng frame %d: %w", index, err)
	}
	return img, nil
}

func (s *apngSource) Format() Format {
	if s.comp != nil {
		return FormatAPNG
	}
	return FormatPNG
}

func (s *apngSource) FrameCount() int {
	if s.comp == nil {
		return 1
	}
	return len(s.frames)
}

func (s *apngSource) Seek(index int) (image.Image, error) {
	if s.comp != nil {
		return s.comp.frame(index)
	}
	if index != 0 {
		return nil, ErrFrameOutOfRange
	}
	// The default image; the png decoder skips the animation chunks.
	return png.Decode(bytes.NewReader(s.data))
}

// FrameDuration converts the delay fraction (in seconds) to milliseconds.
// A zero denominator means hundredths of a second.
func (s *apngSource) FrameDuration(index int) (int, bool) {
	if s.comp == nil || index < 0 || index >= len(s.frames) {
		return 0, false
	}
	f := s.frames[index]
	den := int(f.delayDen)
	if den == 0 {
		den = 100
	}
	return int(f.delayNum) * 1000 / den, true
}
