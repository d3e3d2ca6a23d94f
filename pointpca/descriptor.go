package pointpca

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/pointpca/spatialmath"
)

const (
	// minNeighborhoodSize is the smallest neighborhood with a usable covariance.
	minNeighborhoodSize = 3
	// minLeadingEigenvalue is the leading eigenvalue at or below which a neighborhood has
	// collapsed onto a single location.
	minLeadingEigenvalue = 1e-12
	// minEigenvalueRatio is the secondary-to-leading eigenvalue ratio at or below which a
	// neighborhood is collinear.
	minEigenvalueRatio = 1e-9
)

// LocalDescriptor summarizes the geometry and color of one neighborhood.
type LocalDescriptor struct {
	Centroid r3.Vector
	// Eigenvalues of the coordinate covariance, descending and non-negative.
	Eigenvalues [3]float64
	// Eigenvectors[i] is the unit eigenvector paired with Eigenvalues[i].
	Eigenvectors [3]r3.Vector
	// Normal is Eigenvectors[2].
	Normal           r3.Vector
	SurfaceVariation float64

	// ColorMean and ColorVariance are per channel, in the run's color space. Only ColorMean
	// feeds a predictor; the rest of the descriptor is reported as is.
	ColorMean     [3]float64
	ColorVariance [3]float64

	// Degenerate is set when the neighborhood was too small or too thin for PCA and the
	// geometric fields hold the fallback values.
	Degenerate bool
}

// NewLocalDescriptor computes the descriptor of a neighborhood from its coordinates and its
// colors in the run's color space. points and colors are parallel and non-empty.
func NewLocalDescriptor(points []r3.Vector, colors [][3]float64) LocalDescriptor {
	var d LocalDescriptor
	var eig spatialmath.Eigen
	d.Centroid, eig, d.Degenerate = principalAxes(points)
	d.Eigenvalues = eig.Values
	d.Eigenvectors = eig.Vectors
	d.Normal = eig.Vectors[2]
	if !d.Degenerate {
		if sum := eig.Values[0] + eig.Values[1] + eig.Values[2]; sum > 0 {
			d.SurfaceVariation = eig.Values[2] / sum
		}
	}
	d.ColorMean, d.ColorVariance = colorMoments(colors)
	return d
}

// principalAxes returns the centroid of points and the eigen-decomposition of their
// covariance. A degenerate neighborhood gets the identity frame with the covariance
// diagonal, sorted descending, as eigenvalues.
func principalAxes(points []r3.Vector) (r3.Vector, spatialmath.Eigen, bool) {
	centroid, cov := spatialmath.Covariance(points)
	if len(points) >= minNeighborhoodSize {
		eig := spatialmath.EigenSym3(cov)
		for i := range eig.Values {
			eig.Values[i] = math.Max(eig.Values[i], 0)
		}
		if eig.Values[0] > minLeadingEigenvalue && eig.Values[1] > minEigenvalueRatio*eig.Values[0] {
			return centroid, eig, false
		}
	}

	fallback := spatialmath.Eigen{Vectors: spatialmath.IdentityFrame().Axes}
	diag := cov.Diagonal()
	sort.Sort(sort.Reverse(sort.Float64Slice(diag[:])))
	for i, v := range diag {
		fallback.Values[i] = math.Max(v, 0)
	}
	return centroid, fallback, true
}

// colorMoments returns the per-channel mean and population variance.
func colorMoments(colors [][3]float64) (mean, variance [3]float64) {
	channel := make([]float64, len(colors))
	for c := 0; c < 3; c++ {
		for i, col := range colors {
			channel[i] = col[c]
		}
		mean[c], variance[c] = stat.PopMeanVariance(channel, nil)
		variance[c] = math.Max(variance[c], 0)
	}
	return mean, variance
}
