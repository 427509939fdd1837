package charpic

import (
	"fmt"
	"image"

	"github.com/wbrown/charpic/imageutil"
)

// AnimatedSource is a decoded image viewed as a sequence of frames. Still
// images are sources with exactly one frame. Implementations isolate the
// quirks of each container format.
type AnimatedSource interface {
	// Format reports the container format.
	Format() Format

	// FrameCount returns the number of frames.
	FrameCount() int

	// Seek returns the fully composited frame at index. Indexes past the
	// last frame return ErrFrameOutOfRange. The returned image belongs to
	// the caller.
	Seek(index int) (image.Image, error)

	// FrameDuration returns the frame-local display time in milliseconds.
	// ok is false when the container stores no duration for the frame.
	FrameDuration(index int) (ms int, ok bool)
}

// GlobalDurationSource is implemented by sources whose container carries a
// default frame duration.
type GlobalDurationSource interface {
	GlobalDuration() (ms int, ok bool)
}

// OpenSource decodes data into an AnimatedSource. The format comes from the
// registered image decoders; signature sniffing is only consulted when no
// decoder recognizes the data.
func OpenSource(data []byte) (AnimatedSource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrSourceUnavailable)
	}
	format := FormatUnknown
	if _, name, err := imageutil.DecodeConfig(data); err == nil {
		format = formatFromName(name)
	}
	if format == FormatUnknown {
		format = Sniff(data)
		Logger().Debug("format sniffed from signature", "format", format)
	}

	var (
		src AnimatedSource
		err error
	)
	switch format {
	case FormatGIF:
		src, err = newGIFSource(data)
	case FormatPNG, FormatAPNG:
		src, err = newAPNGSource(data)
	case FormatWEBP:
		src, err = newWebPSource(data)
	case FormatMNG:
		src, err = newMNGSource(data)
	case FormatUnknown:
		return nil, fmt.Errorf("%w: unrecognized image format", ErrSourceUnavailable)
	default:
		src, err = newStillSource(data, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, format, err)
	}
	return src, nil
}

// IsAnimated probes for a second frame. A source is animated only when
// frame 1 can be reached without error.
func IsAnimated(src AnimatedSource) bool {
	_, err := src.Seek(1)
	return err == nil
}

// stillSource is a single decoded frame.
type stillSource struct {
	img    image.Image
	format Format
}

func newStillSource(data []byte, format Format) (*stillSource, error) {
	img, _, err := imageutil.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return &stillSource{img: img, format: format}, nil
}

// NewStillSource wraps an already decoded image as a one-frame source.
func NewStillSource(img image.Image) AnimatedSource {
	return &stillSource{img: img, format: FormatUnknown}
}

func (s *stillSource) Format() Format  { return s.format }
func (s *stillSource) FrameCount() int { return 1 }

func (s *stillSource) Seek(index int) (image.Image, error) {
	if index != 0 {
		return nil, ErrFrameOutOfRange
	}
	return s.img, nil
}

func (s *stillSource) FrameDuration(int) (int, bool) { return 0, false }
