package charpic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"golang.org/x/image/webp"
)

const (
	webpFlagAnimation = 0x02
	webpFlagAlpha     = 0x10

	anmfFlagNoBlend = 0x02
	anmfFlagDispose = 0x01
)

// riffChunk is one chunk of a RIFF container.
type riffChunk struct {
	fourCC string
	data   []byte
}

// webpFrame is one ANMF chunk.
type webpFrame struct {
	x, y, width, height int
	duration            int
	blend               bool
	dispose             bool
	chunks              []riffChunk
}

// webpSource reads still and animated WebP files. Each animation frame is
// repackaged as a still WebP and handed to the x/image decoder.
type webpSource struct {
	data   []byte
	frames []webpFrame
	comp   *compositor
}

func readRIFFChunks(b []byte) ([]riffChunk, error) {
	var chunks []riffChunk
	for len(b) > 0 {
		if len(b) < 8 {
			return nil, fmt.Errorf("truncated RIFF chunk header")
		}
		size := binary.LittleEndian.Uint32(b[4:8])
		if uint64(size) > uint64(len(b)-8) {
			return nil, fmt.Errorf("truncated %s chunk", b[:4])
		}
		n := int(size)
		chunks = append(chunks, riffChunk{fourCC: string(b[:4]), data: b[8 : 8+n]})
		// Chunks are padded to an even length.
		next := 8 + n + n&1
		if next > len(b) {
			next = len(b)
		}
		b = b[next:]
	}
	return chunks, nil
}

func uint24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

func putUint24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func newWebPSource(data []byte) (*webpSource, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, fmt.Errorf("invalid RIFF header")
	}
	body := data[12:]
	if size := int(binary.LittleEndian.Uint32(data[4:8])); size >= 4 && size-4 < len(body) {
		body = body[:size-4]
	}
	chunks, err := readRIFFChunks(body)
	if err != nil {
		return nil, err
	}
	s := &webpSource{data: data}
	if len(chunks) == 0 || chunks[0].fourCC != "VP8X" || len(chunks[0].data) < 10 ||
		chunks[0].data[0]&webpFlagAnimation == 0 {
		return s, nil
	}

	vp8x := chunks[0].data
	width, height := 1+uint24(vp8x[4:7]), 1+uint24(vp8x[7:10])
	for _, c := range chunks[1:] {
		if c.fourCC != "ANMF" {
			continue
		}
		if len(c.data) < 16 {
			return nil, fmt.Errorf("invalid ANMF length %d", len(c.data))
		}
		sub, err := readRIFFChunks(c.data[16:])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(s.frames), err)
		}
		f := webpFrame{
			x:        2 * uint24(c.data[0:3]),
			y:        2 * uint24(c.data[3:6]),
			width:    1 + uint24(c.data[6:9]),
			height:   1 + uint24(c.data[9:12]),
			duration: uint24(c.data[12:15]),
			blend:    c.data[15]&anmfFlagNoBlend == 0,
			dispose:  c.data[15]&anmfFlagDispose != 0,
			chunks:   sub,
		}
		if f.x+f.width > width || f.y+f.height > height {
			return nil, fmt.Errorf("frame %d outside the %dx%d canvas", len(s.frames), width, height)
		}
		s.frames = append(s.frames, f)
	}
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("animated webp has no frames")
	}

	placement := make([]canvasFrame, len(s.frames))
	for i, f := range s.frames {
		placement[i] = canvasFrame{
			bounds: image.Rect(f.x, f.y, f.x+f.width, f.y+f.height),
			blend:  f.blend,
		}
		if f.dispose {
			placement[i].dispose = disposeBackground
		}
	}
	s.comp = newCompositor(width, height, placement, s.decodeFrame)
	return s, nil
}

// stillWebP wraps a frame's bitstream chunks in a standalone RIFF file.
// Lossy frames with an ALPH chunk need a VP8X header to carry it.
func (f webpFrame) stillWebP() ([]byte, error) {
	var alph, bitstream *riffChunk
	for i := range f.chunks {
		switch f.chunks[i].fourCC {
		case "ALPH":
			alph = &f.chunks[i]
		case "VP8 ", "VP8L":
			bitstream = &f.chunks[i]
		}
	}
	if bitstream == nil {
		return nil, fmt.Errorf("frame has no bitstream")
	}

	var body bytes.Buffer
	body.WriteString("WEBP")
	writeRIFF := func(fourCC string, data []byte) {
		var hdr [8]byte
		copy(hdr[:4], fourCC)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(data)))
		body.Write(hdr[:])
		body.Write(data)
		if len(data)&1 == 1 {
			body.WriteByte(0)
		}
	}
	if alph != nil && bitstream.fourCC == "VP8 " {
		vp8x := make([]byte, 10)
		vp8x[0] = webpFlagAlpha
		putUint24(vp8x[4:7], f.width-1)
		putUint24(vp8x[7:10], f.height-1)
		writeRIFF("VP8X", vp8x)
		writeRIFF("ALPH", alph.data)
	}
	writeRIFF(bitstream.fourCC, bitstream.data)

	out := make([]byte, 8, 8+body.Len())
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(body.Len()))
	return append(out, body.Bytes()...), nil
}

func (s *webpSource) decodeFrame(index int) (image.Image, error) {
	still, err := s.frames[index].stillWebP()
	if err != nil {
		return nil, fmt.Errorf("webp frame %d: %w", index, err)
	}
	img, err := webp.Decode(bytes.NewReader(still))
	if err != nil {
		return nil, fmt.Errorf("webp frame %d: %w", index, err)
	}
	return img, nil
}

func (s *webpSource) Format() Format { return FormatWEBP }

func (s *webpSource) FrameCount() int {
	if s.comp == nil {
		return 1
	}
	return len(s.frames)
}

func (s *webpSource) Seek(index int) (image.Image, error) {
	if s.comp != nil {
		return s.comp.frame(index)
	}
	if index != 0 {
		return nil, ErrFrameOutOfRange
	}
	return webp.Decode(bytes.NewReader(s.data))
}

func (s *webpSource) FrameDuration(index int) (int, bool) {
	if s.comp == nil || index < 0 || index >= len(s.frames) {
		return 0, false
	}
	return s.frames[index].duration, true
}
