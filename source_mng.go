package charpic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

func init() {
	image.RegisterFormat("mng", mngSignature, decodeMNG, decodeMNGConfig)
}

// mngFrame is one embedded PNG datastream.
type mngFrame struct {
	png      []byte
	delay    int // ticks
	hasDelay bool
}

// mngSource reads the MNG-VLC subset: a MHDR header, embedded PNG
// datastreams shown one after another at their own size, and FRAM chunks
// changing the interframe delay. JNG and delta images are skipped.
type mngSource struct {
	width, height int
	ticks         int
	frames        []mngFrame
}

// FRAM change-delay modes.
const (
	framDelayKeep     = 0
	framDelayNextOnly = 1
)

func newMNGSource(data []byte) (*mngSource, error) {
	chunks, err := readChunks(data, mngSignature, "MEND")
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != "MHDR" || len(chunks[0].data) < 12 {
		return nil, fmt.Errorf("missing MHDR chunk")
	}
	hdr := chunks[0].data
	s := &mngSource{
		width:  int(binary.BigEndian.Uint32(hdr[0:4])),
		height: int(binary.BigEndian.Uint32(hdr[4:8])),
		ticks:  int(binary.BigEndian.Uint32(hdr[8:12])),
	}

	var (
		stream       *bytes.Buffer
		defaultDelay = -1
		nextDelay    = -1
	)
	for _, c := range chunks[1:] {
		switch {
		case c.typ == "FRAM":
			mode, delay, ok := parseFRAM(c.data)
			if !ok {
				continue
			}
			if mode == framDelayNextOnly {
				nextDelay = delay
			} else {
				defaultDelay = delay
			}
		case c.typ == "IHDR":
			stream = new(bytes.Buffer)
			stream.WriteString(pngSignature)
			writeChunk(stream, c.typ, c.data)
		case stream != nil:
			writeChunk(stream, c.typ, c.data)
			if c.typ != "IEND" {
				continue
			}
			f := mngFrame{png: stream.Bytes()}
			switch {
			case nextDelay >= 0:
				f.delay, f.hasDelay = nextDelay, true
				nextDelay = -1
			case defaultDelay >= 0:
				f.delay, f.hasDelay = defaultDelay, true
			}
			s.frames = append(s.frames, f)
			stream = nil
		}
	}
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("mng has no embedded PNG frames")
	}
	return s, nil
}

// parseFRAM extracts the interframe delay change from a FRAM chunk:
// framing mode, a NUL-terminated name, four change flags, then the delay
// when the first flag is set.
func parseFRAM(b []byte) (mode int, delay int, ok bool) {
	if len(b) < 2 {
		return 0, 0, false
	}
	nul := bytes.IndexByte(b[1:], 0)
	if nul < 0 {
		return 0, 0, false
	}
	fields := b[1+nul+1:]
	if len(fields) < 8 || fields[0] == framDelayKeep {
		return 0, 0, false
	}
	return int(fields[0]), int(binary.BigEndian.Uint32(fields[4:8])), true
}

func (s *mngSource) Format() Format  { return FormatMNG }
func (s *mngSource) FrameCount() int { return len(s.frames) }

func (s *mngSource) Seek(index int) (image.Image, error) {
	if index < 0 || index >= len(s.frames) {
		return nil, ErrFrameOutOfRange
	}
	img, err := png.Decode(bytes.NewReader(s.frames[index].png))
	if err != nil {
		return nil, fmt.Errorf("mng frame %d: %w", index, err)
	}
	return img, nil
}

func (s *mngSource) ticksToMillis(ticks int) (int, bool) {
	if s.ticks <= 0 {
		return 0, false
	}
	return ticks * 1000 / s.ticks, true
}

func (s *mngSource) FrameDuration(index int) (int, bool) {
	if index < 0 || index >= len(s.frames) || !s.frames[index].hasDelay {
		return 0, false
	}
	return s.ticksToMillis(s.frames[index].delay)
}

// GlobalDuration is one tick, the MNG default interframe delay.
func (s *mngSource) GlobalDuration() (int, bool) {
	return s.ticksToMillis(1)
}

func decodeMNG(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s, err := newMNGSource(data)
	if err != nil {
		return nil, err
	}
	return s.Seek(0)
}

func decodeMNGConfig(r io.Reader) (image.Config, error) {
	var hdr [8 + 8 + 12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return image.Config{}, err
	}
	if string(hdr[:8]) != mngSignature || string(hdr[12:16]) != "MHDR" {
		return image.Config{}, fmt.Errorf("mng: missing MHDR chunk")
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(binary.BigEndian.Uint32(hdr[16:20])),
		Height:     int(binary.BigEndian.Uint32(hdr[20:24])),
	}, nil
}
