// Package nrgb provides an opaque image type with three 8-bit channels per
// pixel, the representation palette extraction and color transfer work on.
package nrgb

import (
	"fmt"
	"image"
	"image/color"

	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

type Color struct {
	R, G, B uint8
}

// Hex returns the color in #RRGGBB notation.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("nrgb.Color{%02X %02X %02X}", c.R, c.G, c.B)
}

func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = 65535
	return
}

// Image is an in-memory image whose At method returns Color values.
type Image struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

func model(c color.Color) color.Color {
	if _, ok := c.(Color); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	return from_premultiplied(r, g, b, a)
}

func from_premultiplied(r, g, b, a uint32) Color {
	switch a {
	case 0xffff:
		return Color{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
	case 0:
		return Color{}
	}
	r = (r * 0xffff) / a
	g = (g * 0xffff) / a
	b = (b * 0xffff) / a
	return Color{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

var Model color.Model = color.ModelFunc(model)

func (p *Image) ColorModel() color.Model { return Model }

func (p *Image) Bounds() image.Rectangle { return p.Rect }

func (p *Image) At(x, y int) color.Color {
	return p.NRGBAt(x, y)
}

func (p *Image) NRGBAt(x, y int) Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return Color{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return Color{s[0], s[1], s[2]}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	c1 := Model.Convert(c).(Color)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = c1.R, c1.G, c1.B
}

func (p *Image) SetNRGB(x, y int, c Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = c.R, c.G, c.B
}

// SubImage returns an image representing the portion of the image p visible
// through r. The returned value shares pixels with the original image.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

func (p *Image) Opaque() bool { return true }

// Pixels calls f for every pixel of the rows [start, limit), relative to
// the top of the image.
func (p *Image) Pixels(start, limit int, f func(px []uint8)) {
	width := p.Rect.Dx()
	for y := start; y < limit; y++ {
		row := p.Pix[p.Stride*y:]
		_ = row[3*(width-1)]
		for range width {
			f(row[0:3:3])
			row = row[3:]
		}
	}
}

func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]uint8, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

func NewWithContiguousRGBPixels(p []byte, left, top, width, height int) (*Image, error) {
	const bpp = 3
	if expected := bpp * width * height; expected != len(p) {
		return nil, fmt.Errorf("the image width and height dont match the size of the specified pixel data: width=%d height=%d sz=%d != %d", width, height, len(p), expected)
	}
	return &Image{
		Pix:    p,
		Stride: bpp * width,
		Rect:   image.Rectangle{image.Point{left, top}, image.Point{left + width, top + height}},
	}, nil
}

// FromImage returns img as an *Image, converting when needed. Alpha is
// discarded after un-premultiplying, so fully transparent pixels become
// black. An *Image is returned as is, without copying.
func FromImage(img image.Image, workers int) (*Image, error) {
	if p, ok := img.(*Image); ok {
		return p, nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 1 || height < 1 {
		return nil, types.ErrEmptyImage
	}
	d := New(b)
	var f func(start, limit int)
	switch src := img.(type) {
	case *image.NRGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := src.Pix[src.Stride*y:]
				_ = row[4*(width-1)]
				drow := d.Pix[d.Stride*y:]
				_ = drow[3*(width-1)]
				for range width {
					copy(drow[0:3:3], row[0:3:3])
					row, drow = row[4:], drow[3:]
				}
			}
		}
	case *image.RGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := src.Pix[src.Stride*y:]
				_ = row[4*(width-1)]
				drow := d.Pix[d.Stride*y:]
				_ = drow[3*(width-1)]
				for range width {
					s := row[0:4:4]
					switch a := uint16(s[3]); a {
					case 0xff:
						drow[0], drow[1], drow[2] = s[0], s[1], s[2]
					case 0:
						drow[0], drow[1], drow[2] = 0, 0, 0
					default:
						drow[0] = uint8(uint16(s[0]) * 0xff / a)
						drow[1] = uint8(uint16(s[1]) * 0xff / a)
						drow[2] = uint8(uint16(s[2]) * 0xff / a)
					}
					row, drow = row[4:], drow[3:]
				}
			}
		}
	case *image.Gray:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := src.Pix[src.Stride*y:]
				_ = row[width-1]
				drow := d.Pix[d.Stride*y:]
				_ = drow[3*(width-1)]
				for _, gray := range row[:width] {
					drow[0], drow[1], drow[2] = gray, gray, gray
					drow = drow[3:]
				}
			}
		}
	default:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				drow := d.Pix[d.Stride*y:]
				for x := range width {
					c := from_premultiplied(src.At(x+b.Min.X, y+b.Min.Y).RGBA())
					s := drow[3*x : 3*x+3 : 3*x+3]
					s[0], s[1], s[2] = c.R, c.G, c.B
				}
			}
		}
	}
	if err := types.RunInParallel(workers, 0, height, f); err != nil {
		return nil, err
	}
	return d, nil
}
