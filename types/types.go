package types

import (
	"fmt"
)

var _ = fmt.Print

// Format is an image file format.
type Format int

// Image file formats.
const (
	UNKNOWN Format = iota
	JPEG
	PNG
	GIF
	TIFF
	WEBP
	BMP
	AVIF
)

var FormatExts = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"apng": PNG,
	"gif":  GIF,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
	"bmp":  BMP,
	"avif": AVIF,
}

var formatNames = map[Format]string{
	JPEG: "JPEG",
	PNG:  "PNG",
	GIF:  "GIF",
	TIFF: "TIFF",
	WEBP: "WEBP",
	BMP:  "BMP",
	AVIF: "AVIF",
}

func (f Format) String() string {
	return formatNames[f]
}

// FormatFromDecoderName maps the format name reported by image.Decode to a Format.
func FormatFromDecoderName(x string) Format {
	switch x {
	case "jpeg":
		return JPEG
	case "png", "apng":
		// github.com/kettek/apng registers itself for the PNG signature
		return PNG
	case "gif":
		return GIF
	case "tiff", "tif":
		return TIFF
	case "webp":
		return WEBP
	case "bmp":
		return BMP
	case "avif":
		return AVIF
	}
	return UNKNOWN
}
