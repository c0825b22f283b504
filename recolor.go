package recolor

import (
	"fmt"
	"image"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/palette"
	"github.com/kovidgoyal/recolor/transfer"
	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

// ExtractPalette returns the K most representative colors of img sorted by
// descending lightness.
func ExtractPalette(img image.Image, opts ...Option) (ans palette.Palette, err error) {
	defer types.RecoverInvariant(&err)
	cfg := apply_options(opts)
	if err = cfg.engine.Validate(); err != nil {
		return nil, err
	}
	src, err := nrgb.FromImage(img, cfg.engine.Workers)
	if err != nil {
		return nil, err
	}
	ans, _, err = palette.New(cfg.engine, cfg.conv).Extract(src)
	return
}

// ExtractPaletteAll extracts a palette from the first frame of img, or its
// default image if it has one.
func ExtractPaletteAll(img *Image, opts ...Option) (palette.Palette, error) {
	src := img.Representative()
	if src == nil {
		return nil, types.ErrEmptyImage
	}
	return ExtractPalette(src, opts...)
}

// Mapping recolors images from an old palette to a new one. It is safe for
// concurrent use.
type Mapping struct {
	ctx     *transfer.Context
	lut     *transfer.LUT
	conv    lab.Converter
	workers int
}

// NewMapping solves for the transfer from old to new and precomputes its
// lookup table. old[i] is mapped to new[i], both must have K colors.
func NewMapping(old, new palette.Palette, opts ...Option) (*Mapping, error) {
	cfg := apply_options(opts)
	ctx, err := transfer.NewContext(cfg.engine, cfg.conv, old, new)
	if err != nil {
		return nil, err
	}
	lut, err := transfer.BuildLUT(ctx)
	if err != nil {
		return nil, err
	}
	return &Mapping{ctx: ctx, lut: lut, conv: cfg.conv, workers: cfg.engine.Workers}, nil
}

// Color maps one color, without going through the lookup table.
func (m *Mapping) Color(c nrgb.Color) (ans nrgb.Color, err error) {
	defer types.RecoverInvariant(&err)
	lc := m.ctx.Transfer(palette.FromNRGB(m.conv, c))
	return palette.ToNRGB(m.conv, lc), nil
}

// Apply recolors img. Common in-memory image types are modified in place and
// returned, others are converted. Alpha is left untouched.
func (m *Mapping) Apply(img image.Image) (image.Image, error) {
	return m.lut.Apply(img, m.workers)
}

// ApplyAll recolors every frame of img and its default image.
func (m *Mapping) ApplyAll(img *Image) (err error) {
	if img.DefaultImage != nil {
		if img.DefaultImage, err = m.Apply(img.DefaultImage); err != nil {
			return err
		}
	}
	for _, f := range img.Frames {
		if f.Image, err = m.Apply(f.Image); err != nil {
			return fmt.Errorf("frame %d: %w", f.Number, err)
		}
	}
	return nil
}

// Transfer recolors img so that the colors of old become those of new.
func Transfer(img image.Image, old, new palette.Palette, opts ...Option) (image.Image, error) {
	m, err := NewMapping(old, new, opts...)
	if err != nil {
		return nil, err
	}
	return m.Apply(img)
}

// TransferAll is Transfer for every frame of an animation.
func TransferAll(img *Image, old, new palette.Palette, opts ...Option) error {
	m, err := NewMapping(old, new, opts...)
	if err != nil {
		return err
	}
	return m.ApplyAll(img)
}
