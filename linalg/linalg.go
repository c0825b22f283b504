// Package linalg solves the small dense linear systems that determine the
// radial basis function weights of a color transfer.
package linalg

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/recolor/types"
)

var _ = fmt.Print

var ErrSingular = types.ErrSingular

// Matrix is an N x (N+1) augmented matrix stored row major, the last column
// being the right hand side.
type Matrix struct {
	N    int
	Data []float64
}

func NewAugmented(n int) *Matrix {
	return &Matrix{N: n, Data: make([]float64, n*(n+1))}
}

// FromRows builds an augmented matrix from N rows of N+1 values.
func FromRows(rows ...[]float64) (*Matrix, error) {
	m := NewAugmented(len(rows))
	for i, row := range rows {
		if len(row) != m.N+1 {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), m.N+1)
		}
		copy(m.Data[i*(m.N+1):], row)
	}
	return m, nil
}

func (m *Matrix) stride() int { return m.N + 1 }

func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.stride()+j] }

func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.stride()+j] = v }

func (m *Matrix) row(i int) []float64 {
	s := m.stride()
	return m.Data[i*s : (i+1)*s : (i+1)*s]
}

func (m *Matrix) swap_rows(i, j int) {
	a, b := m.row(i), m.row(j)
	for k := range a {
		a[k], b[k] = b[k], a[k]
	}
}

// Solve reduces m in place with Gaussian elimination and partial pivoting.
// On success the solution is in the last column, see Solution. A pivot
// smaller than eps in magnitude fails with ErrSingular, leaving m partially
// reduced.
func Solve(m *Matrix, eps float64) error {
	n := m.N
	for i := range n {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.At(j, i)) > math.Abs(m.At(i, i)) {
				m.swap_rows(i, j)
			}
		}
		pivot := m.At(i, i)
		if !(math.Abs(pivot) >= eps) {
			return fmt.Errorf("%w: pivot %g in column %d", ErrSingular, pivot, i)
		}
		ri := m.row(i)
		for j := i + 1; j < n; j++ {
			rj := m.row(j)
			if math.Abs(rj[i]) > eps {
				c := rj[i] / ri[i]
				for k := i; k <= n; k++ {
					rj[k] -= c * ri[k]
				}
			}
		}
	}
	for i := n - 1; i >= 0; i-- {
		ri := m.row(i)
		for j := range i {
			rj := m.row(j)
			if math.Abs(rj[i]) > eps {
				c := rj[i] / ri[i]
				for k := i; k <= n; k++ {
					rj[k] -= c * ri[k]
				}
			}
		}
		ri[n] /= ri[i]
	}
	return nil
}

// Solution returns a copy of the right hand side column.
func (m *Matrix) Solution() []float64 {
	ans := make([]float64, m.N)
	for i := range ans {
		ans[i] = m.At(i, m.N)
	}
	return ans
}
