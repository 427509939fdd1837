package charpic

import (
	"bytes"
	"encoding/binary"
)

// Format identifies a source container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatAPNG
	FormatGIF
	FormatWEBP
	FormatMNG
	FormatJPEG
	FormatBMP
	FormatTIFF
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatPNG:     "png",
	FormatAPNG:    "apng",
	FormatGIF:     "gif",
	FormatWEBP:    "webp",
	FormatMNG:     "mng",
	FormatJPEG:    "jpeg",
	FormatBMP:     "bmp",
	FormatTIFF:    "tiff",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}
	return formatNames[f]
}

// MayAnimate reports whether the container can carry more than one frame.
func (f Format) MayAnimate() bool {
	switch f {
	case FormatPNG, FormatAPNG, FormatGIF, FormatWEBP, FormatMNG:
		return true
	}
	return false
}

// formatFromName maps an image package format name to a Format.
func formatFromName(name string) Format {
	for i, n := range formatNames {
		if n == name && i != int(FormatUnknown) {
			return Format(i)
		}
	}
	return FormatUnknown
}

const (
	pngSignature = "\x89PNG\r\n\x1a\n"
	mngSignature = "\x8aMNG\r\n\x1a\n"
)

// Sniff guesses the container format from its leading signature bytes.
// It is advisory: a decoder's view of the data always wins.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte(pngSignature)):
		if pngHasAnimationControl(data) {
			return FormatAPNG
		}
		return FormatPNG
	case bytes.HasPrefix(data, []byte(mngSignature)):
		return FormatMNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWEBP
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte("BM")) && len(data) >= 14:
		return FormatBMP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return FormatTIFF
	}
	return FormatUnknown
}

// pngHasAnimationControl scans the chunk list for an acTL chunk ahead of
// the first IDAT.
func pngHasAnimationControl(data []byte) bool {
	p := len(pngSignature)
	for p+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[p:]))
		typ := string(data[p+4 : p+8])
		switch typ {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}
		if length < 0 || p+12+length > len(data) {
			return false
		}
		p += 12 + length
	}
	return false
}
