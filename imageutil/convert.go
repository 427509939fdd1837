package imageutil

import (
	"image"

	"github.com/disintegration/imaging"
)

// FullColor copies any image into a non-premultiplied RGBA buffer whose
// bounds start at (0, 0). Alpha is preserved.
func FullColor(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ToGrayscale converts an image to grayscale using the standard
// luminance formula: Y = 0.299*R + 0.587*G + 0.114*B
// The color channels are taken unpremultiplied and alpha is ignored, the
// same way an "L" conversion of an RGBA buffer behaves.
func ToGrayscale(img image.Image) *GrayImage {
	if g, ok := img.(*image.Gray); ok {
		return WrapGray(g)
	}
	src := FullColor(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	gray := NewGrayImage(width, height)

	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		out := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x := range out {
			r, g, b := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
			// BT.601 with integer math, rounded
			lum := (299*r + 587*g + 114*b + 500) / 1000
			if lum > 255 {
				lum = 255
			}
			out[x] = uint8(lum)
		}
	}

	return gray
}

// AsGray returns img as a single-channel image. Gray images are returned
// as is, anything else goes through ToGrayscale.
func AsGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return ToGrayscale(img).Gray
}
