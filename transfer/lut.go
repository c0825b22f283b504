package transfer

import (
	"fmt"
	"math"
	"time"

	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

// LUT is a grid of precomputed transfer results over the RGB cube. Vertex i
// of an axis sits at channel value min(i*step, 255), so the last cell is one
// narrower than the others and every vertex is a valid 8-bit color.
type LUT struct {
	// vertices per axis
	size int
	step float64
	// three output channels per vertex, r major
	data []float32
}

// BuildLUT evaluates ctx at every vertex of a grid with cfg.LUTBins cells per
// axis, in parallel over the red axis.
func BuildLUT(ctx *Context) (ans *LUT, err error) {
	defer types.RecoverInvariant(&err)
	bins := ctx.cfg.LUTBins
	ans = &LUT{size: bins + 1, step: float64(ctx.cfg.LUTBinWidth())}
	n := ans.size
	ans.data = make([]float32, 3*n*n*n)
	start := time.Now()
	err = types.RunInParallel(ctx.cfg.Workers, 0, n, func(start, limit int) {
		for r := start; r < limit; r++ {
			for g := range n {
				off := 3 * (r*n + g) * n
				for b := range n {
					o := ans.data[off+3*b : off+3*b+3 : off+3*b+3]
					rr, gg, bb := ctx.Pixel(ans.at(r), ans.at(g), ans.at(b))
					o[0], o[1], o[2] = float32(rr), float32(gg), float32(bb)
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("built a %d^3 lookup table in %s", n, time.Since(start))
	return ans, nil
}

// Size is the number of vertices per axis.
func (l *LUT) Size() int { return l.size }

// Vertex returns the stored result for grid vertex (r, g, b).
func (l *LUT) Vertex(r, g, b int) (float64, float64, float64) {
	o := 3 * ((r*l.size+g)*l.size + b)
	d := l.data[o : o+3 : o+3]
	return float64(d[0]), float64(d[1]), float64(d[2])
}

// at is the channel value of vertex i.
func (l *LUT) at(i int) float64 { return min(float64(i)*l.step, 255) }

func (l *LUT) cell(v float64) (int, float64) {
	i := int(v / l.step)
	i = max(0, min(i, l.size-2))
	lo, hi := l.at(i), l.at(i+1)
	if hi <= lo {
		// with one unit cells the last two vertices coincide
		return i, 0
	}
	return i, (v - lo) / (hi - lo)
}

// Interpolate returns the trilinear interpolation of the grid at the real
// valued color (r, g, b) on the 0-255 scale.
func (l *LUT) Interpolate(r, g, b float64) (float64, float64, float64) {
	ri, rf := l.cell(r)
	gi, gf := l.cell(g)
	bi, bf := l.cell(b)
	n := l.size
	var ans [3]float64
	for c := range 3 {
		at := func(dr, dg, db int) float64 {
			return float64(l.data[3*(((ri+dr)*n+gi+dg)*n+bi+db)+c])
		}
		c00 := at(0, 0, 0)*(1-rf) + at(1, 0, 0)*rf
		c01 := at(0, 0, 1)*(1-rf) + at(1, 0, 1)*rf
		c10 := at(0, 1, 0)*(1-rf) + at(1, 1, 0)*rf
		c11 := at(0, 1, 1)*(1-rf) + at(1, 1, 1)*rf
		c0 := c00*(1-gf) + c10*gf
		c1 := c01*(1-gf) + c11*gf
		ans[c] = c0*(1-bf) + c1*bf
	}
	return ans[0], ans[1], ans[2]
}

func clamp8(x float64) uint8 {
	return uint8(max(0, min(255, math.Round(x))))
}

func clamp16(x float64) uint16 {
	return uint16(max(0, min(65535, math.Round(x))))
}

// Lookup maps one 8-bit color through the table, rounding to the nearest
// integer and clamping to [0, 255].
func (l *LUT) Lookup(r, g, b uint8) (uint8, uint8, uint8) {
	rr, gg, bb := l.Interpolate(float64(r), float64(g), float64(b))
	return clamp8(rr), clamp8(gg), clamp8(bb)
}

// Lookup16 maps one 16-bit color through the table.
func (l *LUT) Lookup16(r, g, b uint16) (uint16, uint16, uint16) {
	const f = 65535.0 / 255.0
	rr, gg, bb := l.Interpolate(float64(r)/f, float64(g)/f, float64(b)/f)
	return clamp16(rr * f), clamp16(gg * f), clamp16(bb * f)
}
