package recolor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/palette"
	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestVersion(t *testing.T) {
	require.Equal(t, "0.3.0", Version.String())
	require.True(t, Version.After(RecolorVersion{0, 2, 9}))
	require.True(t, Version.Before(RecolorVersion{1, 0, 0}))
	require.True(t, Version.Equal(RecolorVersion{0, 3, 0}))
}

func TestExtractPalette(t *testing.T) {
	img := checker(16, 16)
	p, err := ExtractPalette(img, WithK(2), WithWorkers(3))
	require.NoError(t, err)
	require.Len(t, p, 2)
	require.True(t, p.IsMonotonic())
	require.ElementsMatch(t, []string{"#c82828", "#143cc8"}, p.Hex(lab.Default))

	p2, err := ExtractPalette(img, WithK(2), WithWorkers(1))
	require.NoError(t, err)
	if diff := cmp.Diff(p, p2, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("palette depends on the worker count:\n%s", diff)
	}

	_, err = ExtractPalette(img, WithK(0))
	require.Error(t, err)
	_, err = ExtractPalette(solid(4, 4, color.NRGBA{128, 128, 128, 255}), WithK(2))
	require.ErrorIs(t, err, types.ErrInsufficientBins)
	_, err = ExtractPalette(image.NewNRGBA(image.Rect(0, 0, 0, 0)), WithK(1))
	require.ErrorIs(t, err, types.ErrEmptyImage)
}

func TestIdentityPipeline(t *testing.T) {
	gray := color.NRGBA{128, 128, 128, 255}
	img := solid(6, 5, gray)
	p, err := ExtractPalette(img, WithK(1))
	require.NoError(t, err)
	require.Equal(t, []string{"#808080"}, p.Hex(lab.Default))
	out, err := Transfer(img, p, p, WithK(1))
	require.NoError(t, err)
	res := out.(*image.NRGBA)
	for y := range 5 {
		for x := range 6 {
			c := res.NRGBAAt(x, y)
			for _, v := range []uint8{c.R, c.G, c.B} {
				require.InDelta(t, 128, float64(v), 1)
			}
			require.Equal(t, uint8(255), c.A)
		}
	}
}

func TestMappingColor(t *testing.T) {
	old, err := palette.FromHex(lab.Default, "#e6e6e6", "#1e1e1e")
	require.NoError(t, err)
	new, err := palette.FromHex(lab.Default, "#e6e6e6", "#3c3c3c")
	require.NoError(t, err)
	m, err := NewMapping(old, new, WithK(2))
	require.NoError(t, err)
	c, err := m.Color(nrgb.Color{R: 30, G: 30, B: 30})
	require.NoError(t, err)
	require.InDelta(t, 60, float64(c.R), 1)
	c, err = m.Color(nrgb.Color{R: 230, G: 230, B: 230})
	require.NoError(t, err)
	require.InDelta(t, 230, float64(c.R), 1)

	out, err := m.Apply(solid(2, 2, color.NRGBA{30, 30, 30, 100}))
	require.NoError(t, err)
	px := out.(*image.NRGBA).NRGBAAt(1, 1)
	require.InDelta(t, 60, float64(px.G), 2)
	require.Equal(t, uint8(100), px.A, "alpha is untouched")
}

func TestMappingErrors(t *testing.T) {
	old, err := palette.FromHex(lab.Default, "#e6e6e6", "#1e1e1e")
	require.NoError(t, err)
	_, err = NewMapping(old, old[:1], WithK(2))
	require.ErrorIs(t, err, types.ErrPaletteSize)
	_, err = NewMapping(old, old)
	require.ErrorIs(t, err, types.ErrPaletteSize, "the default K is 5")
	_, err = NewMapping(old, palette.Palette{old[0], {50, 200, 200}}, WithK(2))
	require.ErrorIs(t, err, types.ErrOutOfGamut)
	_, err = NewMapping(old, palette.Palette{old[0], {math.NaN(), 0, 0}}, WithK(2))
	require.Error(t, err)
	err = TransferAll(&Image{}, old, old[:1], WithK(2))
	require.ErrorIs(t, err, types.ErrPaletteSize)
}

type broken_converter struct{ lab.CIELab }

func (broken_converter) ToRGB(c lab.Color) (r, g, b float64) {
	return math.NaN(), math.NaN(), math.NaN()
}

func TestBrokenConverterIsAnError(t *testing.T) {
	old := palette.Palette{{90, 0, 0}, {20, 0, 0}}
	new := palette.Palette{{90, 0, 0}, {30, 5, 5}}
	_, err := NewMapping(old, new, WithK(2), WithConverter(broken_converter{}))
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrInvariant) || errors.Is(err, types.ErrOutOfGamut), "%s", err)
}

func TestOptions(t *testing.T) {
	cfg := apply_options([]Option{WithK(7), WithWorkers(2), WithMaxIterations(9), WithLUTBins(16), WithConverter(nil)})
	require.Equal(t, 7, cfg.engine.K)
	require.Equal(t, 2, cfg.engine.Workers)
	require.Equal(t, 9, cfg.engine.MaxIterations)
	require.Equal(t, 16, cfg.engine.LUTBins)
	require.Equal(t, lab.Default, cfg.conv)

	base := types.DefaultConfig()
	base.K = 3
	cfg = apply_options([]Option{WithConfig(base), WithConverter(lab.ICCLab{})})
	require.Equal(t, base, cfg.engine)
	require.Equal(t, "icc", lab.Name(cfg.conv))
}
