package imageutil

import (
	"image"

	"github.com/nfnt/resize"
)

// Interpolation specifies the interpolation method for resizing.
type Interpolation int

const (
	// InterpolationBicubic uses a bicubic kernel. It is the default for
	// grid downsampling.
	InterpolationBicubic Interpolation = iota

	// InterpolationLinear uses bilinear interpolation.
	InterpolationLinear

	// InterpolationNearest uses nearest-neighbor interpolation.
	// Fastest but lowest quality.
	InterpolationNearest

	// InterpolationLanczos uses a Lanczos3 kernel.
	InterpolationLanczos
)

func (i Interpolation) function() resize.InterpolationFunction {
	switch i {
	case InterpolationLinear:
		return resize.Bilinear
	case InterpolationNearest:
		return resize.NearestNeighbor
	case InterpolationLanczos:
		return resize.Lanczos3
	default:
		return resize.Bicubic
	}
}

// ResizeGray resizes a grayscale image to the specified dimensions.
func ResizeGray(img *GrayImage, width, height int, interp Interpolation) *GrayImage {
	out := resize.Resize(uint(width), uint(height), img.Gray, interp.function())
	if g, ok := out.(*image.Gray); ok {
		return WrapGray(g)
	}
	// resize only returns other types for non-gray input, but keep the
	// buffer single channel either way.
	return ToGrayscale(out)
}
