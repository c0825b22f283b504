package recolor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/palette"
)

var _ = fmt.Print

var (
	anim_white = color.NRGBA{240, 240, 240, 255}
	anim_red   = color.NRGBA{200, 30, 30, 255}
	anim_blue  = color.NRGBA{30, 40, 200, 255}
	anim_pal   = color.Palette{anim_white, anim_red, anim_blue}
)

func filled(r image.Rectangle, idx uint8) *image.Paletted {
	p := image.NewPaletted(r, anim_pal)
	for i := range p.Pix {
		p.Pix[i] = idx
	}
	return p
}

// animated_gif is an 8x8 white frame, a red 4x4 square at (2, 2) drawn over
// it and a blue 2x2 square at the origin drawn over the first frame again.
func animated_gif(t *testing.T) []byte {
	g := gif.GIF{
		Image: []*image.Paletted{
			filled(image.Rect(0, 0, 8, 8), 0),
			filled(image.Rect(2, 2, 6, 6), 1),
			filled(image.Rect(0, 0, 2, 2), 2),
		},
		Delay:     []int{10, 20, 30},
		Disposal:  []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		LoopCount: 0,
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &g))
	return buf.Bytes()
}

func animation(t *testing.T) *Image {
	img, err := DecodeAll(bytes.NewReader(animated_gif(t)))
	require.NoError(t, err)
	return img
}

func disposal(img *Image) []uint {
	actual := make([]uint, len(img.Frames))
	for i, f := range img.Frames {
		actual[i] = f.ComposeOnto
	}
	return actual
}

func delays(img *Image) []time.Duration {
	actual := make([]time.Duration, len(img.Frames))
	for i, f := range img.Frames {
		actual[i] = f.Delay
	}
	return actual
}

func assert_color(t *testing.T, img image.Image, x, y int, expected color.NRGBA) {
	t.Helper()
	er, eg, eb, ea := expected.RGBA()
	ar, ag, ab, aa := img.At(x, y).RGBA()
	require.Equal(t, []uint32{er, eg, eb, ea}, []uint32{ar, ag, ab, aa}, "pixel (%d, %d)", x, y)
}

func TestGIFAnimation(t *testing.T) {
	img := animation(t)
	require.Equal(t, GIF, img.Metadata.Format)
	require.True(t, img.Metadata.HasFrames)
	require.Equal(t, 3, img.Metadata.NumFrames)
	require.Len(t, img.Frames, 3)
	require.Equal(t, uint(0), img.LoopCount)
	require.Equal(t, []uint{0, 1, 1}, disposal(img))
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, delays(img))
	f := img.Frames[1]
	require.Equal(t, []int{2, 2}, []int{f.X, f.Y})
	require.Equal(t, image.Rect(0, 0, 4, 4), f.Image.Bounds())
	require.Same(t, img.Frames[0].Image, img.Representative())

	c := img.Clone()
	c.Coalesce()
	for _, f := range c.Frames {
		require.Equal(t, image.Rect(0, 0, 8, 8), f.Image.Bounds())
		require.Equal(t, uint(0), f.ComposeOnto)
	}
	assert_color(t, c.Frames[1].Image, 0, 0, anim_white)
	assert_color(t, c.Frames[1].Image, 3, 3, anim_red)
	assert_color(t, c.Frames[2].Image, 0, 0, anim_blue)
	// composed onto the first frame, so the red square is gone
	assert_color(t, c.Frames[2].Image, 3, 3, anim_white)
	// the original is untouched
	require.Equal(t, []uint{0, 1, 1}, disposal(img))
	require.Equal(t, image.Rect(0, 0, 4, 4), img.Frames[1].Image.Bounds())
}

func TestGIFDelayClamp(t *testing.T) {
	require.Equal(t, 100*time.Millisecond, gif_delay(0))
	require.Equal(t, 100*time.Millisecond, gif_delay(1))
	require.Equal(t, 20*time.Millisecond, gif_delay(2))
}

func TestAPNGRoundTrip(t *testing.T) {
	img := animation(t)
	var buf bytes.Buffer
	require.NoError(t, img.EncodeAsPNG(&buf))
	back, err := DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, PNG, back.Metadata.Format)
	require.Len(t, back.Frames, 3)
	require.Equal(t, delays(img), delays(back))
	require.Equal(t, img.LoopCount, back.LoopCount)
	assert_color(t, back.Frames[1].Image, 3, 3, anim_red)
	assert_color(t, back.Frames[2].Image, 0, 0, anim_blue)
	assert_color(t, back.Frames[2].Image, 3, 3, anim_white)
}

func TestGIFRoundTrip(t *testing.T) {
	img := animation(t)
	img.LoopCount = 3
	var buf bytes.Buffer
	require.NoError(t, img.EncodeAsGIF(&buf))
	g, err := gif.DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, g.Image, 3)
	require.Equal(t, []int{10, 20, 30}, g.Delay)
	require.Equal(t, 2, g.LoopCount)
	back, err := DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, uint(3), back.LoopCount)
}

func TestAsFraction(t *testing.T) {
	testCases := []struct {
		d        time.Duration
		num, den uint16
	}{
		{0, 0, 1},
		{-time.Second, 0, 1},
		{time.Second, 1, 1},
		{100 * time.Millisecond, 1, 10},
		{250 * time.Millisecond, 1, 4},
		{33 * time.Millisecond, 33, 1000},
		{1500 * time.Millisecond, 3, 2},
	}
	for _, tc := range testCases {
		num, den := as_fraction(tc.d)
		require.Equal(t, []uint16{tc.num, tc.den}, []uint16{num, den}, "%s", tc.d)
	}
}

func TestTransferAllFrames(t *testing.T) {
	img := animation(t)
	old, err := palette.FromHex(lab.Default, "#f0f0f0", "#c81e1e", "#1e28c8")
	require.NoError(t, err)
	m, err := NewMapping(old, old, WithK(3))
	require.NoError(t, err)
	require.NoError(t, m.ApplyAll(img))
	for _, f := range img.Frames {
		p, ok := f.Image.(*image.Paletted)
		require.True(t, ok, "paletted frames stay paletted")
		// the encoder pads the palette to a power of two
		for i, c := range p.Palette[:len(anim_pal)] {
			er, eg, eb, _ := anim_pal[i].RGBA()
			ar, ag, ab, _ := c.RGBA()
			for j, e := range []uint32{er, eg, eb} {
				require.InDelta(t, float64(e>>8), float64([]uint32{ar, ag, ab}[j]>>8), 2)
			}
		}
	}
}

func TestTransferAllSharedPalette(t *testing.T) {
	img := animation(t)
	old, err := palette.FromHex(lab.Default, "#f0f0f0", "#c81e1e", "#1e28c8")
	require.NoError(t, err)
	new, err := palette.FromHex(lab.Default, "#f0f0f0", "#a03c1e", "#1e28c8")
	require.NoError(t, err)
	m, err := NewMapping(old, new, WithK(3))
	require.NoError(t, err)
	want, err := m.Color(nrgb.Color{R: 200, G: 30, B: 30})
	require.NoError(t, err)
	require.InDelta(t, 0xa0, float64(want.R), 2)
	require.NoError(t, m.ApplyAll(img))
	for _, f := range img.Frames {
		got := color.NRGBAModel.Convert(f.Image.(*image.Paletted).Palette[1]).(color.NRGBA)
		require.InDelta(t, float64(want.R), float64(got.R), 2, "frame %d", f.Number)
		require.InDelta(t, float64(want.G), float64(got.G), 2, "frame %d", f.Number)
		require.InDelta(t, float64(want.B), float64(got.B), 2, "frame %d", f.Number)
	}
}

func TestTransferAllAPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, animation(t).EncodeAsPNG(&buf))
	img, err := DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, img.Frames, 3)
	old, err := palette.FromHex(lab.Default, "#f0f0f0", "#c81e1e", "#1e28c8")
	require.NoError(t, err)
	new, err := palette.FromHex(lab.Default, "#f0f0f0", "#a03c1e", "#1e28c8")
	require.NoError(t, err)
	require.NoError(t, TransferAll(img, old, new, WithK(3)))

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, SaveAll(img, path))
	back, err := OpenAll(path)
	require.NoError(t, err)
	require.Len(t, back.Frames, 3, "the animation survives recoloring")
	r, g, b, _ := back.Frames[1].Image.At(3, 3).RGBA()
	require.InDelta(t, 0xa0, float64(r>>8), 3)
	require.InDelta(t, 0x3c, float64(g>>8), 3)
	require.InDelta(t, 0x1e, float64(b>>8), 3)
}
