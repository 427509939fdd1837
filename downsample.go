package charpic

import (
	"fmt"
	"math"

	"github.com/wbrown/charpic/imageutil"
)

// DefaultAspectRatio compensates for glyphs being taller than they are
// wide. It is the width:height ratio of the default monospace cell.
const DefaultAspectRatio = 0.55

// GridSize returns the character grid a srcW x srcH image maps to.
// A zero targetWidth keeps the source size. Unless enforceWidth is set,
// images narrower than targetWidth keep their width. The height is always
// derived: max(1, floor(srcH * targetWidth/srcW * aspect)).
func GridSize(srcW, srcH, targetWidth int, enforceWidth bool, aspect float64) (int, int) {
	if targetWidth <= 0 {
		return srcW, srcH
	}
	if !enforceWidth && srcW <= targetWidth {
		targetWidth = srcW
	}
	scale := float64(targetWidth) / float64(srcW)
	targetHeight := int(math.Floor(float64(srcH) * scale * aspect))
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight
}

// Downsample resizes a grayscale frame to its character grid. See GridSize
// for how the target dimensions are chosen. The source is returned
// unchanged when no resize is needed.
func Downsample(src *imageutil.GrayImage, targetWidth int, enforceWidth bool, aspect float64) (*imageutil.GrayImage, error) {
	if src == nil || src.Width() < 1 || src.Height() < 1 {
		return nil, ErrEmptyInput
	}
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return nil, fmt.Errorf("charpic: invalid aspect ratio %v", aspect)
	}
	w, h := GridSize(src.Width(), src.Height(), targetWidth, enforceWidth, aspect)
	if w == src.Width() && h == src.Height() {
		return src, nil
	}
	return imageutil.ResizeGray(src, w, h, imageutil.InterpolationBicubic), nil
}
