package lab

import (
	"fmt"
	"math"
)

var _ = fmt.Print

// Color is a point in a Lab color space. L is in [0, 100] for displayable
// colors, a and b are roughly in [-128, 127].
type Color [3]float64

func (c Color) L() float64 { return c[0] }
func (c Color) A() float64 { return c[1] }
func (c Color) B() float64 { return c[2] }

func (c Color) Add(o Color) Color { return Color{c[0] + o[0], c[1] + o[1], c[2] + o[2]} }
func (c Color) Sub(o Color) Color { return Color{c[0] - o[0], c[1] - o[1], c[2] - o[2]} }
func (c Color) Scale(f float64) Color {
	return Color{c[0] * f, c[1] * f, c[2] * f}
}
func (c Color) Div(f float64) Color { return Color{c[0] / f, c[1] / f, c[2] / f} }

// SqrNorm is the squared euclidean length.
func (c Color) SqrNorm() float64 { return c[0]*c[0] + c[1]*c[1] + c[2]*c[2] }

func (c Color) Norm() float64 { return math.Sqrt(c.SqrNorm()) }

// SqrDist is the squared euclidean distance between c and o.
func (c Color) SqrDist(o Color) float64 { return c.Sub(o).SqrNorm() }

func (c Color) IsFinite() bool {
	for _, x := range c {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (c Color) String() string {
	return fmt.Sprintf("lab(%.2f, %.2f, %.2f)", c[0], c[1], c[2])
}
