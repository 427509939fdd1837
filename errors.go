package charpic

import "errors"

var (
	// ErrSourceUnavailable is returned when the source bytes cannot be
	// decoded as any supported image format.
	ErrSourceUnavailable = errors.New("charpic: source image unavailable")

	// ErrEmptyInput is returned for images with a zero dimension.
	ErrEmptyInput = errors.New("charpic: image has a zero dimension")

	// ErrEmptyText is returned when a still image produced no text.
	ErrEmptyText = errors.New("charpic: no text produced")

	// ErrNoValidFrames is returned when an animated source has no first frame.
	ErrNoValidFrames = errors.New("charpic: no valid frames")

	// ErrNoFramesProcessed is returned when frame iteration produced nothing.
	ErrNoFramesProcessed = errors.New("charpic: no frames processed")

	// ErrEmptyCanvas is returned when the common frame canvas has a zero
	// dimension.
	ErrEmptyCanvas = errors.New("charpic: empty animation canvas")

	// ErrSizeInconsistent is returned when frames still differ in size after
	// padding. It indicates a broken invariant, not a bad input.
	ErrSizeInconsistent = errors.New("charpic: size normalization inconsistent")

	// ErrFrameOutOfRange is returned by AnimatedSource.Seek past the last
	// frame. It is the normal end of frame iteration.
	ErrFrameOutOfRange = errors.New("charpic: frame index out of range")

	// ErrDurationMismatch is returned when a per-frame duration list does not
	// match the number of frames.
	ErrDurationMismatch = errors.New("charpic: duration count does not match frame count")
)
