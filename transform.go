package recolor

import (
	"image"
	"image/draw"

	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/types"
)

func to_nrgba(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	ans := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(ans, ans.Rect, img, b.Min, draw.Src)
	return ans
}

// transform builds a dst_w x dst_h image whose pixel (x, y) is the pixel
// src_point(x, y) of img, coordinates relative to the top left corner.
func transform(img image.Image, dst_w, dst_h int, src_point func(x, y int) (int, int)) *image.NRGBA {
	src := to_nrgba(img)
	sb := src.Rect.Min
	dst := image.NewNRGBA(image.Rect(0, 0, dst_w, dst_h))
	_ = types.RunInParallel(0, 0, dst_h, func(start, limit int) {
		for y := start; y < limit; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+4*dst_w]
			for x := range dst_w {
				sx, sy := src_point(x, y)
				o := src.PixOffset(sx+sb.X, sy+sb.Y)
				copy(row[4*x:4*x+4], src.Pix[o:o+4])
			}
		}
	})
	return dst
}

// FlipH flips the image horizontally (from left to right).
func FlipH(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
}

// FlipV flips the image vertically (from top to bottom).
func FlipV(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, w, h, func(x, y int) (int, int) { return x, h - 1 - y })
}

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, h, w, func(x, y int) (int, int) { return w - 1 - y, x })
}

// Rotate180 rotates the image 180 degrees.
func Rotate180(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
}

// Rotate270 rotates the image 270 degrees counter-clockwise.
func Rotate270(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, h, w, func(x, y int) (int, int) { return y, h - 1 - x })
}

// Transpose flips the image horizontally and rotates 90 degrees counter-clockwise.
func Transpose(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, h, w, func(x, y int) (int, int) { return y, x })
}

// Transverse flips the image vertically and rotates 90 degrees counter-clockwise.
func Transverse(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return transform(img, h, w, func(x, y int) (int, int) { return w - 1 - y, h - 1 - x })
}

// NormalizeOrigin returns img with its bounds moved to start at (0, 0),
// sharing pixels with img when it is one of the common in-memory types.
func NormalizeOrigin(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	r := image.Rect(0, 0, b.Dx(), b.Dy())
	switch v := img.(type) {
	case *image.Paletted:
		return &image.Paletted{Pix: v.Pix, Stride: v.Stride, Rect: r, Palette: v.Palette}
	case *image.NRGBA:
		return &image.NRGBA{Pix: v.Pix, Stride: v.Stride, Rect: r}
	case *image.RGBA:
		return &image.RGBA{Pix: v.Pix, Stride: v.Stride, Rect: r}
	case *nrgb.Image:
		return &nrgb.Image{Pix: v.Pix, Stride: v.Stride, Rect: r}
	}
	return to_nrgba(img)
}

// ClonePreservingType returns a deep copy of img, of the same type when it is
// one of the common in-memory types and *image.NRGBA otherwise.
func ClonePreservingType(img image.Image) image.Image {
	switch v := img.(type) {
	case *image.Paletted:
		return &image.Paletted{Pix: append([]uint8(nil), v.Pix...), Stride: v.Stride, Rect: v.Rect, Palette: append(v.Palette[:0:0], v.Palette...)}
	case *image.NRGBA:
		return &image.NRGBA{Pix: append([]uint8(nil), v.Pix...), Stride: v.Stride, Rect: v.Rect}
	case *image.RGBA:
		return &image.RGBA{Pix: append([]uint8(nil), v.Pix...), Stride: v.Stride, Rect: v.Rect}
	case *image.NRGBA64:
		return &image.NRGBA64{Pix: append([]uint8(nil), v.Pix...), Stride: v.Stride, Rect: v.Rect}
	case *nrgb.Image:
		return &nrgb.Image{Pix: append([]uint8(nil), v.Pix...), Stride: v.Stride, Rect: v.Rect}
	}
	b := img.Bounds()
	ans := image.NewNRGBA(b)
	draw.Draw(ans, b, img, b.Min, draw.Src)
	return ans
}
