package recolor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/avif"
	"github.com/kettek/apng"
	"github.com/kovidgoyal/recolor/types"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type fileSystem interface {
	Create(string) (io.WriteCloser, error)
	Open(string) (io.ReadCloser, error)
}

type localFS struct{}

func (localFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (localFS) Open(name string) (io.ReadCloser, error)    { return os.Open(name) }

var fs fileSystem = localFS{}

type decodeConfig struct {
	autoOrientation bool
}

var defaultDecodeConfig = decodeConfig{
	autoOrientation: true,
}

// DecodeOption sets an optional parameter for the Decode and Open functions.
type DecodeOption func(*decodeConfig)

// AutoOrientation returns a DecodeOption that sets the auto-orientation mode.
// If auto-orientation is enabled, the image will be transformed after decoding
// according to the EXIF orientation tag (if present). By default it's enabled.
func AutoOrientation(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.autoOrientation = enabled
	}
}

func fix_orientation(ans *Image, cfg *decodeConfig) {
	if !cfg.autoOrientation || ans.Metadata == nil {
		return
	}
	if o := ans.Metadata.Orientation(); o != orientationUnspecified {
		for _, f := range ans.Frames {
			f.Image = fixOrientation(f.Image, ans.Metadata, o)
		}
	}
}

var png_signature = []byte("\x89PNG\r\n\x1a\n")

// is_animated_png reports whether an acTL chunk precedes the first IDAT chunk.
func is_animated_png(data []byte) bool {
	if !bytes.HasPrefix(data, png_signature) {
		return false
	}
	data = data[len(png_signature):]
	for len(data) >= 8 {
		size := int(binary.BigEndian.Uint32(data))
		switch string(data[4:8]) {
		case "acTL":
			return true
		case "IDAT":
			return false
		}
		if size < 0 || len(data) < size+12 {
			return false
		}
		data = data[size+12:]
	}
	return false
}

func decode_all(data []byte, cfg *decodeConfig) (ans *Image, err error) {
	c, format_name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	md := &Metadata{Format: types.FormatFromDecoderName(format_name), PixelWidth: uint32(c.Width), PixelHeight: uint32(c.Height)}
	ans = &Image{Metadata: md}
	switch {
	case md.Format == GIF:
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		ans.populate_from_gif(g)
	case md.Format == PNG && is_animated_png(data):
		p, err := apng.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		ans.populate_from_apng(&p)
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		ans.Frames = append(ans.Frames, &Frame{Number: 1, Image: img})
	}
	if len(ans.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s image", types.ErrEmptyImage, md.Format)
	}
	md.NumFrames = len(ans.Frames)
	md.HasFrames = md.NumFrames > 1
	switch md.Format {
	case JPEG, TIFF:
		md.SetExifData(data)
	}
	fix_orientation(ans, cfg)
	return ans, nil
}

// DecodeAll reads an image from r including all animation frames if it is an
// animated GIF or PNG.
func DecodeAll(r io.Reader, opts ...DecodeOption) (*Image, error) {
	cfg := defaultDecodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode_all(data, &cfg)
}

// Decode reads an image from r. For animations the default image or the first
// frame is returned.
func Decode(r io.Reader, opts ...DecodeOption) (image.Image, error) {
	ans, err := DecodeAll(r, opts...)
	if err != nil {
		return nil, err
	}
	return ans.Representative(), nil
}

// Open loads an image from file.
//
// Examples:
//
//	// Load an image from file.
//	img, err := recolor.Open("test.jpg")
func Open(filename string, opts ...DecodeOption) (image.Image, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file, opts...)
}

func OpenAll(filename string, opts ...DecodeOption) (*Image, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeAll(file, opts...)
}

type Format = types.Format

const (
	UNKNOWN = types.UNKNOWN
	JPEG    = types.JPEG
	PNG     = types.PNG
	GIF     = types.GIF
	TIFF    = types.TIFF
	WEBP    = types.WEBP
	BMP     = types.BMP
	AVIF    = types.AVIF
)

// ErrUnsupportedFormat means the given image format is not supported.
var ErrUnsupportedFormat = errors.New("recolor: unsupported image format")

// FormatFromExtension parses image format from filename extension:
// "jpg" (or "jpeg"), "png", "gif", "tif" (or "tiff"), "bmp", "webp" and
// "avif" are supported.
func FormatFromExtension(ext string) (Format, error) {
	if f, ok := types.FormatExts[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}
	return -1, ErrUnsupportedFormat
}

// FormatFromFilename parses image format from filename, see FormatFromExtension.
func FormatFromFilename(filename string) (Format, error) {
	ext := filepath.Ext(filename)
	return FormatFromExtension(ext)
}

type encodeConfig struct {
	jpegQuality         int
	gifNumColors        int
	gifQuantizer        draw.Quantizer
	gifDrawer           draw.Drawer
	pngCompressionLevel png.CompressionLevel
	avifQuality         int
	avifSpeed           int
}

var defaultEncodeConfig = encodeConfig{
	jpegQuality:         95,
	gifNumColors:        256,
	pngCompressionLevel: png.DefaultCompression,
	avifQuality:         80,
	avifSpeed:           8,
}

// EncodeOption sets an optional parameter for the Encode and Save functions.
type EncodeOption func(*encodeConfig)

// JPEGQuality returns an EncodeOption that sets the output JPEG quality.
// Quality ranges from 1 to 100 inclusive, higher is better. Default is 95.
func JPEGQuality(quality int) EncodeOption {
	return func(c *encodeConfig) {
		c.jpegQuality = quality
	}
}

// GIFNumColors returns an EncodeOption that sets the maximum number of colors
// used in the GIF-encoded image. It ranges from 1 to 256.  Default is 256.
func GIFNumColors(numColors int) EncodeOption {
	return func(c *encodeConfig) {
		c.gifNumColors = numColors
	}
}

// GIFQuantizer returns an EncodeOption that sets the quantizer that is used to produce
// a palette of the GIF-encoded image.
func GIFQuantizer(quantizer draw.Quantizer) EncodeOption {
	return func(c *encodeConfig) {
		c.gifQuantizer = quantizer
	}
}

// GIFDrawer returns an EncodeOption that sets the drawer that is used to convert
// the source image to the desired palette of the GIF-encoded image.
func GIFDrawer(drawer draw.Drawer) EncodeOption {
	return func(c *encodeConfig) {
		c.gifDrawer = drawer
	}
}

// PNGCompressionLevel returns an EncodeOption that sets the compression level
// of the PNG-encoded image. Default is png.DefaultCompression.
func PNGCompressionLevel(level png.CompressionLevel) EncodeOption {
	return func(c *encodeConfig) {
		c.pngCompressionLevel = level
	}
}

// AVIFQuality sets the quality, 0 to 100, of AVIF output. Default is 80.
func AVIFQuality(quality int) EncodeOption {
	return func(c *encodeConfig) {
		c.avifQuality = quality
	}
}

// AVIFSpeed sets the encoder speed, 0 (slowest) to 10, of AVIF output.
func AVIFSpeed(speed int) EncodeOption {
	return func(c *encodeConfig) {
		c.avifSpeed = speed
	}
}

// Encode writes the image img to w in the specified format (JPEG, PNG, GIF,
// TIFF, BMP or AVIF).
func Encode(w io.Writer, img image.Image, format Format, opts ...EncodeOption) error {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}

	switch format {
	case JPEG:
		if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Opaque() {
			rgba := &image.RGBA{
				Pix:    nrgba.Pix,
				Stride: nrgba.Stride,
				Rect:   nrgba.Rect,
			}
			return jpeg.Encode(w, rgba, &jpeg.Options{Quality: cfg.jpegQuality})
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: cfg.jpegQuality})

	case PNG:
		encoder := png.Encoder{CompressionLevel: cfg.pngCompressionLevel}
		return encoder.Encode(w, img)

	case GIF:
		return gif.Encode(w, img, &gif.Options{
			NumColors: cfg.gifNumColors,
			Quantizer: cfg.gifQuantizer,
			Drawer:    cfg.gifDrawer,
		})

	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})

	case BMP:
		return bmp.Encode(w, img)

	case AVIF:
		return avif.Encode(w, img, avif.Options{Quality: cfg.avifQuality, QualityAlpha: cfg.avifQuality, Speed: cfg.avifSpeed})
	}

	return ErrUnsupportedFormat
}

// Save saves the image to file with the specified filename.
// The format is determined from the filename extension, see FormatFromExtension.
//
// Examples:
//
//	// Save the image as PNG.
//	err := recolor.Save(img, "out.png")
//
//	// Save the image as JPEG with optional quality parameter set to 80.
//	err := recolor.Save(img, "out.jpg", recolor.JPEGQuality(80))
func Save(img image.Image, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	err = Encode(file, img, f, opts...)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}

// SaveAll saves every frame of img. Animations can only be saved as PNG or
// GIF, other formats get the representative image.
func SaveAll(img *Image, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	if len(img.Frames) < 2 || (f != PNG && f != GIF) {
		return Save(img.Representative(), filename, opts...)
	}
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	if f == PNG {
		err = img.EncodeAsPNG(file)
	} else {
		err = img.EncodeAsGIF(file)
	}
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}

// orientation is an EXIF flag that specifies the transformation
// that should be applied to image to display it correctly.
type orientation int

const (
	orientationUnspecified = 0
	orientationNormal      = 1
	orientationFlipH       = 2
	orientationRotate180   = 3
	orientationFlipV       = 4
	orientationTranspose   = 5
	orientationRotate270   = 6
	orientationTransverse  = 7
	orientationRotate90    = 8
)

// fixOrientation applies a transform to img corresponding to the given orientation flag.
func fixOrientation(img image.Image, md *Metadata, o orientation) image.Image {
	swap := func() {
		if md != nil {
			md.PixelWidth, md.PixelHeight = md.PixelHeight, md.PixelWidth
		}
	}
	switch o {
	case orientationNormal:
	case orientationFlipH:
		img = FlipH(img)
	case orientationFlipV:
		img = FlipV(img)
	case orientationRotate90:
		img = Rotate90(img)
		swap()
	case orientationRotate180:
		img = Rotate180(img)
	case orientationRotate270:
		img = Rotate270(img)
		swap()
	case orientationTranspose:
		img = Transpose(img)
		swap()
	case orientationTransverse:
		img = Transverse(img)
		swap()
	}
	return img
}
