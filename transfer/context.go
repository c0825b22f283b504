// Package transfer maps the colors of an image through the displacements
// from an old palette to a new one. Displacements are blended with Gaussian
// radial basis functions and scaled near the edge of the sRGB gamut so that
// recolored pixels stay displayable.
package transfer

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/linalg"
	"github.com/kovidgoyal/recolor/palette"
	"github.com/kovidgoyal/recolor/types"
	"github.com/tliron/commonlog"
)

var _ = fmt.Print

var log = commonlog.GetLogger("recolor.transfer")

const max_halvings = 64

type anchor struct {
	old, new, delta lab.Color
	// delta is applied as is, without gamut scaling
	small bool
	// distance from old to the gamut border along delta
	border_dist float64
}

// Context holds everything derived from one old/new palette pair. It is
// read only after construction and safe for concurrent use.
type Context struct {
	cfg     types.Config
	conv    lab.Converter
	gamut   lab.Gamut
	anchors []anchor
	// K x K row major
	lambda []float64
	sigma  float64
}

// NewContext pairs old[i] with new[i] and solves for the blending
// coefficients. Both palettes must have cfg.K colors. A new color that is
// outside the sRGB gamut fails with types.ErrOutOfGamut, a degenerate old
// palette with types.ErrSingular.
func NewContext(cfg types.Config, conv lab.Converter, old, new palette.Palette) (ctx *Context, err error) {
	defer types.RecoverInvariant(&err)
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	if err = old.CheckSize(cfg.K); err != nil {
		return nil, fmt.Errorf("old palette: %w", err)
	}
	if err = new.CheckSize(cfg.K); err != nil {
		return nil, fmt.Errorf("new palette: %w", err)
	}
	if conv == nil {
		conv = lab.Default
	}
	ctx = &Context{cfg: cfg, conv: conv, gamut: lab.NewGamut(conv, cfg), anchors: make([]anchor, cfg.K)}
	for i := range ctx.anchors {
		a := &ctx.anchors[i]
		a.old, a.new = old[i], new[i]
		if !a.old.IsFinite() || !a.new.IsFinite() {
			return nil, fmt.Errorf("palette entry %d is not a finite color", i)
		}
		a.delta = a.new.Sub(a.old)
		if a.small = a.delta.SqrNorm() < cfg.RGBEps; a.small {
			continue
		}
		if ctx.gamut.IsOutOfGamut(a.new) {
			return nil, fmt.Errorf("%w: entry %d: %s", types.ErrOutOfGamut, i, a.new)
		}
		a.border_dist = ctx.gamut.BorderPoint(a.old, a.delta).Sub(a.old).Norm()
	}
	if err = ctx.solve(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (ctx *Context) K() int { return len(ctx.anchors) }

// Sigma is the kernel bandwidth, the mean distance between old colors.
func (ctx *Context) Sigma() float64 { return ctx.sigma }

// Lambda returns the blending coefficient of anchor j in the weight of anchor i.
func (ctx *Context) Lambda(i, j int) float64 { return ctx.lambda[i*ctx.K()+j] }

func (ctx *Context) kernel(d2 float64) float64 {
	if d2 == 0 {
		return 1
	}
	if ctx.sigma == 0 {
		return 0
	}
	return math.Exp(-d2 / (2 * ctx.sigma * ctx.sigma))
}

// solve finds lambda such that the blend weights reproduce the identity at
// the old colors. Unknown lambda[i][k] is column i*K+k of row i*K+j.
func (ctx *Context) solve() error {
	k := ctx.K()
	dist := make([]float64, k*k)
	sum := 0.0
	for i := range k {
		for j := range k {
			dist[i*k+j] = ctx.anchors[i].old.Sub(ctx.anchors[j].old).Norm()
			sum += dist[i*k+j]
		}
	}
	ctx.sigma = sum / float64(k*k)
	n := k * k
	m := linalg.NewAugmented(n)
	for i := range k {
		for j := range k {
			row := i*k + j
			for kk := range k {
				d := dist[j*k+kk]
				m.Set(row, i*k+kk, ctx.kernel(d*d))
			}
			if i == j {
				m.Set(row, n, 1)
			}
		}
	}
	if err := linalg.Solve(m, ctx.cfg.EPS); err != nil {
		return fmt.Errorf("solving for blend coefficients of %d colors: %w", k, err)
	}
	ctx.lambda = m.Solution()
	log.Debugf("blend coefficients solved, sigma: %.4f", ctx.sigma)
	return nil
}

// Weights returns the normalized blend weight of every anchor at x. When
// every weight clamps to zero, which happens far from all old colors once
// the kernel underflows, the nearest old color takes all the weight.
func (ctx *Context) Weights(x lab.Color) []float64 {
	k := ctx.K()
	w := make([]float64, k)
	kern := make([]float64, k)
	for j, a := range ctx.anchors {
		kern[j] = ctx.kernel(x.SqrDist(a.old))
	}
	total := 0.0
	for i := range k {
		s := 0.0
		for j := range k {
			s += ctx.lambda[i*k+j] * kern[j]
		}
		types.Invariant(!math.IsNaN(s), "blend weights", "weight %d of %s is NaN", i, x)
		w[i] = max(s, 0)
		total += w[i]
	}
	if total == 0 {
		nearest, best := 0, math.Inf(1)
		for j, a := range ctx.anchors {
			if d := x.SqrDist(a.old); d < best {
				nearest, best = j, d
			}
		}
		w[nearest] = 1
	}
	return lab.Normalize(w)
}

// displacement is the shift anchor a applies to x, scaled so that it does not
// push x through the gamut border.
func (ctx *Context) displacement(a *anchor, x lab.Color) lab.Color {
	if a.small {
		return a.delta
	}
	x0 := x.Add(a.delta)
	if !ctx.gamut.IsOutOfGamut(x0) {
		xb := ctx.gamut.BorderPoint(x, a.delta)
		scale := min(1, xb.Sub(x).Norm()/a.border_dist)
		return a.delta.Scale(scale)
	}
	dir := x0.Sub(a.new)
	for n := 0; ctx.gamut.IsOutOfGamut(a.new.Add(dir)); n++ {
		types.Invariant(n < max_halvings, "displacement", "cannot bring %s back into gamut from %s", dir, a.new)
		dir = dir.Div(2)
	}
	xb := ctx.gamut.BorderPoint(a.new, dir)
	scale := a.border_dist / a.delta.Norm()
	return xb.Sub(x).Div(scale)
}

// Transfer maps the Lab color x to its recolored Lab value.
func (ctx *Context) Transfer(x lab.Color) lab.Color {
	w := ctx.Weights(x)
	ans := x
	for i := range ctx.anchors {
		types.Invariant(!math.IsNaN(w[i]), "transfer", "weight %d of %s is NaN", i, x)
		if w[i] != 0 {
			ans = ans.Add(ctx.displacement(&ctx.anchors[i], x).Scale(w[i]))
		}
	}
	types.Invariant(ans.IsFinite(), "transfer", "%s maps to %s", x, ans)
	return ans
}

// Pixel recolors one sRGB color given on the 0-255 scale. The result is real
// valued and may lie slightly outside [0, 255]. Broken internal invariants
// panic with *types.InvariantError.
func (ctx *Context) Pixel(r, g, b float64) (float64, float64, float64) {
	return ctx.conv.ToRGB(ctx.Transfer(ctx.conv.ToLab(r, g, b)))
}
