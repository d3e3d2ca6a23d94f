package spatialmath

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

const (
	// jacobiMaxSweeps bounds the cyclic Jacobi iteration; 3x3 inputs converge in well under ten.
	jacobiMaxSweeps = 32
	// jacobiRelTol is the size, relative to the adjacent diagonal, below which an off-diagonal
	// entry is treated as zero.
	jacobiRelTol = 1e-14
)

// Eigen is the eigen-decomposition of a SymMat3. Values are sorted descending and Vectors[i]
// is the unit eigenvector paired with Values[i].
type Eigen struct {
	Values  [3]float64
	Vectors [3]r3.Vector
}

// Frame returns the eigenvectors as an orthonormal frame.
func (e Eigen) Frame() Frame {
	return Frame{Axes: e.Vectors}
}

// EigenSym3 decomposes m with the cyclic Jacobi method. Eigenvectors are oriented with
// OrientLargestPositive, so the output depends only on m.
func EigenSym3(m SymMat3) Eigen {
	a := m
	v := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	pairs := [3][2]int{{0, 1}, {0, 2}, {1, 2}}
	for sweep := 0; sweep < jacobiMaxSweeps; sweep++ {
		rotated := false
		for _, pq := range pairs {
			p, q := pq[0], pq[1]
			apq := a[p][q]
			if apq == 0 {
				continue
			}
			if math.Abs(apq) <= jacobiRelTol*(math.Abs(a[p][p])+math.Abs(a[q][q])) {
				a[p][q], a[q][p] = 0, 0
				continue
			}
			rotated = true

			theta := (a[q][q] - a[p][p]) / (2 * apq)
			t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
			if theta < 0 {
				t = -t
			}
			c := 1 / math.Sqrt(t*t+1)
			s := t * c

			for k := 0; k < 3; k++ {
				akp, akq := a[k][p], a[k][q]
				a[k][p] = c*akp - s*akq
				a[k][q] = s*akp + c*akq
			}
			for k := 0; k < 3; k++ {
				apk, aqk := a[p][k], a[q][k]
				a[p][k] = c*apk - s*aqk
				a[q][k] = s*apk + c*aqk
			}
			a[p][q], a[q][p] = 0, 0
			for k := 0; k < 3; k++ {
				vkp, vkq := v[k][p], v[k][q]
				v[k][p] = c*vkp - s*vkq
				v[k][q] = s*vkp + c*vkq
			}
		}
		if !rotated {
			break
		}
	}

	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool {
		return a[order[i]][order[i]] > a[order[j]][order[j]]
	})

	var out Eigen
	for i, col := range order {
		out.Values[i] = a[col][col]
		out.Vectors[i] = OrientLargestPositive(r3.Vector{X: v[0][col], Y: v[1][col], Z: v[2][col]})
	}
	return out
}

// OrientLargestPositive flips v so that its largest-magnitude component is positive. Exact
// magnitude ties resolve to the lowest axis. Applying one rule to every eigenvector of every
// neighborhood keeps normal orientation consistent across a cloud.
func OrientLargestPositive(v r3.Vector) r3.Vector {
	best := 0
	for i := 1; i < 3; i++ {
		if math.Abs(Component(v, i)) > math.Abs(Component(v, best)) {
			best = i
		}
	}
	if Component(v, best) < 0 {
		return v.Mul(-1)
	}
	return v
}
