// Package spatialmath has the small fixed-size linear algebra used for local
// neighborhood analysis: symmetric 3x3 matrices, covariance, orthonormal frames
// and their eigen-decomposition.
package spatialmath

import (
	"github.com/golang/geo/r3"
)

// SymMat3 is a symmetric 3x3 matrix stored in full. Callers are expected to keep
// m[i][j] == m[j][i].
type SymMat3 [3][3]float64

// Trace returns the sum of the diagonal.
func (m SymMat3) Trace() float64 {
	return m[0][0] + m[1][1] + m[2][2]
}

// Diagonal returns the diagonal entries in axis order.
func (m SymMat3) Diagonal() [3]float64 {
	return [3]float64{m[0][0], m[1][1], m[2][2]}
}

// MulVec returns m*v.
func (m SymMat3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mean returns the arithmetic mean of pts, summed in slice order. It returns the zero vector
// for an empty slice.
func Mean(pts []r3.Vector) r3.Vector {
	if len(pts) == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(pts)))
}

// Covariance returns the centroid of pts and their covariance normalized by len(pts).
func Covariance(pts []r3.Vector) (r3.Vector, SymMat3) {
	var cov SymMat3
	mean := Mean(pts)
	if len(pts) == 0 {
		return mean, cov
	}
	for _, p := range pts {
		d := p.Sub(mean)
		cov[0][0] += d.X * d.X
		cov[0][1] += d.X * d.Y
		cov[0][2] += d.X * d.Z
		cov[1][1] += d.Y * d.Y
		cov[1][2] += d.Y * d.Z
		cov[2][2] += d.Z * d.Z
	}
	n := float64(len(pts))
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			cov[i][j] /= n
			cov[j][i] = cov[i][j]
		}
	}
	return mean, cov
}

// Frame is an orthonormal basis. Axes[0] is the dominant direction of a neighborhood and
// Axes[2] its normal.
type Frame struct {
	Axes [3]r3.Vector
}

// IdentityFrame returns the world axes.
func IdentityFrame() Frame {
	return Frame{Axes: [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}}
}

// Project expresses p relative to origin in the frame's coordinates.
func (f Frame) Project(p, origin r3.Vector) r3.Vector {
	d := p.Sub(origin)
	return r3.Vector{X: d.Dot(f.Axes[0]), Y: d.Dot(f.Axes[1]), Z: d.Dot(f.Axes[2])}
}

// Component returns v's i-th coordinate.
func Component(v r3.Vector, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
