package transfer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

func premultiply8(r, a uint8) uint8 {
	return uint8((uint16(r) * uint16(a)) / uint16(0xff))
}

func unpremultiply8(r, a uint8) uint8 {
	return uint8((uint16(r) * 0xff) / uint16(a))
}

func unpremultiply(r, a uint32) uint16 {
	return uint16((r * 0xffff) / a)
}

func premultiply(r, a uint32) uint16 {
	return uint16((r * a) / 0xffff)
}

func get16(s []uint8) uint16 { return uint16(s[0])<<8 | uint16(s[1]) }

func put16(s []uint8, v uint16) { s[0], s[1] = uint8(v>>8), uint8(v) }

// Apply recolors img through the table. Images in the common in-memory
// formats are modified in place and returned, others are converted to a new
// image that is returned. Alpha is carried through untouched.
func (l *LUT) Apply(image_any image.Image, workers int) (ans image.Image, err error) {
	b := image_any.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 1 || height < 1 {
		return image_any, nil
	}
	ans = image_any
	lookup8 := func(s []uint8) { s[0], s[1], s[2] = l.Lookup(s[0], s[1], s[2]) }
	var f func(start, limit int)
	switch img := image_any.(type) {
	case *nrgb.Image:
		f = func(start, limit int) { img.Pixels(start, limit, lookup8) }
	case *image.NRGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[4*(width-1)]
				for range width {
					lookup8(row[0:3:3])
					row = row[4:]
				}
			}
		}
	case *image.RGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[4*(width-1)]
				for range width {
					r := row[0:4:4]
					switch a := r[3]; a {
					case 0:
					case 0xff:
						lookup8(r)
					default:
						r[0], r[1], r[2] = unpremultiply8(r[0], a), unpremultiply8(r[1], a), unpremultiply8(r[2], a)
						lookup8(r)
						r[0], r[1], r[2] = premultiply8(r[0], a), premultiply8(r[1], a), premultiply8(r[2], a)
					}
					row = row[4:]
				}
			}
		}
	case *image.NRGBA64:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[8*(width-1)]
				for range width {
					s := row[0:8:8]
					r, g, bl := l.Lookup16(get16(s[0:]), get16(s[2:]), get16(s[4:]))
					put16(s[0:], r)
					put16(s[2:], g)
					put16(s[4:], bl)
					row = row[8:]
				}
			}
		}
	case *image.RGBA64:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[8*(width-1)]
				for range width {
					s := row[0:8:8]
					if a := uint32(get16(s[6:])); a != 0 {
						r, g, bl := l.Lookup16(
							unpremultiply(uint32(get16(s[0:])), a), unpremultiply(uint32(get16(s[2:])), a), unpremultiply(uint32(get16(s[4:])), a))
						put16(s[0:], premultiply(uint32(r), a))
						put16(s[2:], premultiply(uint32(g), a))
						put16(s[4:], premultiply(uint32(bl), a))
					}
					row = row[8:]
				}
			}
		}
	case *image.Paletted:
		// decoded GIF frames share their global color table
		pal := make(color.Palette, len(img.Palette))
		for i, c := range img.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			n.R, n.G, n.B = l.Lookup(n.R, n.G, n.B)
			pal[i] = n
		}
		img.Palette = pal
		return
	case *image.Gray:
		d := nrgb.New(b)
		ans = d
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[width-1]
				drow := d.Pix[d.Stride*y:]
				_ = drow[3*(width-1)]
				for _, gray := range row[:width] {
					drow[0], drow[1], drow[2] = l.Lookup(gray, gray, gray)
					drow = drow[3:]
				}
			}
		}
	case *image.Gray16:
		d := image.NewNRGBA64(b)
		ans = d
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[2*(width-1)]
				drow := d.Pix[d.Stride*y:]
				_ = drow[8*(width-1)]
				for range width {
					gray := get16(row)
					s := drow[0:8:8]
					r, g, bl := l.Lookup16(gray, gray, gray)
					put16(s[0:], r)
					put16(s[2:], g)
					put16(s[4:], bl)
					s[6], s[7] = 0xff, 0xff
					row = row[2:]
					drow = drow[8:]
				}
			}
		}
	case *image.YCbCr, *image.CMYK:
		d, cerr := nrgb.FromImage(img, workers)
		if cerr != nil {
			return nil, cerr
		}
		return l.Apply(d, workers)
	case draw.Image:
		f = func(start, limit int) {
			for y := b.Min.Y + start; y < b.Min.Y+limit; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					r16, g16, b16, a16 := img.At(x, y).RGBA()
					if a16 != 0 {
						r, g, bl := l.Lookup16(unpremultiply(r16, a16), unpremultiply(g16, a16), unpremultiply(b16, a16))
						img.Set(x, y, color.NRGBA64{R: r, G: g, B: bl, A: uint16(a16)})
					}
				}
			}
		}
	default:
		d := image.NewNRGBA64(b)
		ans = d
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := d.Pix[d.Stride*y:]
				for x := range width {
					r16, g16, b16, a16 := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
					if a16 != 0 {
						r, g, bl := l.Lookup16(unpremultiply(r16, a16), unpremultiply(g16, a16), unpremultiply(b16, a16))
						s := row[8*x : 8*x+8 : 8*x+8]
						put16(s[0:], r)
						put16(s[2:], g)
						put16(s[4:], bl)
						put16(s[6:], uint16(a16))
					}
				}
			}
		}
	}
	err = types.RunInParallel(workers, 0, height, f)
	return
}

// Image recolors img with a lookup table built from ctx, see LUT.Apply.
func Image(ctx *Context, img image.Image) (image.Image, error) {
	l, err := BuildLUT(ctx)
	if err != nil {
		return nil, err
	}
	return l.Apply(img, ctx.cfg.Workers)
}
