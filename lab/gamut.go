package lab

import (
	"math"

	"github.com/kovidgoyal/recolor/types"
)

const max_doublings = 64

// Gamut answers membership questions about the sRGB gamut in Lab space.
type Gamut struct {
	conv Converter
	// tolerance in 8-bit units when testing channel ranges
	rgb_eps float64
	// squared Lab length at which border searches stop
	border_eps float64
}

func NewGamut(conv Converter, cfg types.Config) Gamut {
	return Gamut{conv: conv, rgb_eps: cfg.RGBEps, border_eps: cfg.BorderEps}
}

func (g Gamut) Converter() Converter { return g.conv }

// IsOutOfGamut reports whether any sRGB channel of c falls outside [-eps, 255+eps].
func (g Gamut) IsOutOfGamut(c Color) bool {
	r, gg, b := g.conv.ToRGB(c)
	for _, x := range [3]float64{r, gg, b} {
		if !(x >= -g.rgb_eps && x <= 255+g.rgb_eps) {
			return true
		}
	}
	return false
}

// BorderPoint returns the last in gamut point along the ray from origin in
// direction dir. origin+dir must be in gamut. The result is within the border
// tolerance of the gamut surface, never outside it.
func (g Gamut) BorderPoint(origin, dir Color) Color {
	l := origin.Add(dir)
	types.Invariant(!g.IsOutOfGamut(l), "border point", "start %s is out of gamut", l)
	for n := 0; !g.IsOutOfGamut(l.Add(dir)); n++ {
		types.Invariant(n < max_doublings, "border point", "direction %s never leaves the gamut from %s", dir, origin)
		dir = dir.Add(dir)
	}
	r := l.Add(dir)
	for l.SqrDist(r) > g.border_eps {
		m := l.Add(r).Div(2)
		if g.IsOutOfGamut(m) {
			r = m
		} else {
			l = m
		}
	}
	return l
}

// Normalize divides every weight by their sum, which must be positive.
func Normalize(weights []float64) []float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	types.Invariant(sum > 0 && !math.IsInf(sum, 0), "normalize", "weights sum to %v", sum)
	ans := make([]float64, len(weights))
	for i, w := range weights {
		ans[i] = w / sum
	}
	return ans
}
