// Package palette extracts a small set of representative colors from an
// image with spatially binned, weighted k-means clustering in Lab space.
package palette

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

// Palette is an ordered list of Lab colors. Extracted palettes are sorted by
// descending lightness. An old and a new palette are paired index by index.
type Palette []lab.Color

func (p Palette) Clone() Palette {
	return append(Palette(nil), p...)
}

// CheckSize returns types.ErrPaletteSize unless p has exactly k colors.
func (p Palette) CheckSize(k int) error {
	if len(p) != k {
		return fmt.Errorf("%w: got %d colors, expected %d", types.ErrPaletteSize, len(p), k)
	}
	return nil
}

// IsMonotonic reports whether lightness never increases along p.
func (p Palette) IsMonotonic() bool {
	for i := 1; i < len(p); i++ {
		if p[i].L() > p[i-1].L() {
			return false
		}
	}
	return true
}

// Edit returns a copy of p with entry idx replaced by c. To keep the palette
// ordered by lightness, entries before idx are made at least as light as c and
// entries after idx at most as light, their a and b axes are preserved.
func (p Palette) Edit(idx int, c lab.Color) (Palette, error) {
	if idx < 0 || idx >= len(p) {
		return nil, fmt.Errorf("palette index %d out of range [0, %d)", idx, len(p))
	}
	ans := p.Clone()
	ans[idx] = c
	for i := range idx {
		ans[i][0] = max(ans[i][0], c[0])
	}
	for i := idx + 1; i < len(ans); i++ {
		ans[i][0] = min(ans[i][0], c[0])
	}
	return ans, nil
}

func clamp8(x float64) uint8 {
	return uint8(max(0, min(255, math.Round(x))))
}

// ToNRGB converts c to the nearest 8-bit sRGB color, clipping out of gamut
// components.
func ToNRGB(conv lab.Converter, c lab.Color) nrgb.Color {
	r, g, b := conv.ToRGB(c)
	return nrgb.Color{R: clamp8(r), G: clamp8(g), B: clamp8(b)}
}

func FromNRGB(conv lab.Converter, c nrgb.Color) lab.Color {
	return conv.ToLab(float64(c.R), float64(c.G), float64(c.B))
}

func (p Palette) RGB(conv lab.Converter) []nrgb.Color {
	ans := make([]nrgb.Color, len(p))
	for i, c := range p {
		ans[i] = ToNRGB(conv, c)
	}
	return ans
}

func (p Palette) Hex(conv lab.Converter) []string {
	ans := make([]string, len(p))
	for i, c := range p {
		ans[i] = ToNRGB(conv, c).Hex()
	}
	return ans
}

// FromHex builds a palette from colors in #RRGGBB or #RGB notation.
func FromHex(conv lab.Converter, colors ...string) (Palette, error) {
	ans := make(Palette, len(colors))
	for i, x := range colors {
		c, err := ParseHex(x)
		if err != nil {
			return nil, err
		}
		ans[i] = FromNRGB(conv, c)
	}
	return ans, nil
}

// ParseHex parses #RRGGBB or #RGB, the leading # being optional.
func ParseHex(x string) (c nrgb.Color, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(x), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return c, fmt.Errorf("not a valid hex color: %#v", x)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return c, fmt.Errorf("not a valid hex color: %#v", x)
	}
	return nrgb.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
