package interp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// NearestIndex returns the index of the value closest to target in an
// ascending axis. Ties go to the lower index.
func NearestIndex(axis []float64, target float64) int {
	if len(axis) == 0 {
		return 0
	}

	left, right := 0, len(axis)-1
	for left < right {
		mid := (left + right) / 2
		if axis[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}
	if left > 0 && math.Abs(axis[left-1]-target) <= math.Abs(axis[left]-target) {
		return left - 1
	}
	return left
}

// Nearest returns the row and column of the node closest to (x, y).
func (g *Grid2D) Nearest(x, y float64) (row, col int) {
	return NearestIndex(g.Y, y), NearestIndex(g.X, x)
}

// Gradient returns the magnitude of the gradient of the grid values, in
// value units per degree. Central differences are used inside the grid and
// one-sided differences on its edges.
func (g *Grid2D) Gradient() [][]float64 {
	ny, nx := len(g.Y), len(g.X)
	out := make([][]float64, ny)
	for i := 0; i < ny; i++ {
		out[i] = make([]float64, nx)
		for j := 0; j < nx; j++ {
			dx := derivative(g.X, func(k int) float64 { return g.Values[i][k] }, j)
			dy := derivative(g.Y, func(k int) float64 { return g.Values[k][j] }, i)
			out[i][j] = floats.Norm([]float64{dx, dy}, 2)
		}
	}
	return out
}

func derivative(axis []float64, at func(int) float64, k int) float64 {
	n := len(axis)
	if n < 2 {
		return 0
	}
	lo, hi := k-1, k+1
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return (at(hi) - at(lo)) / (axis[hi] - axis[lo])
}

// Mean averages the non-NaN values of the grid. It returns NaN when there are none.
func (g *Grid2D) Mean() float64 {
	var sum float64
	var n int
	for _, row := range g.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
