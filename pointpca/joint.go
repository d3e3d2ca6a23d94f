package pointpca

import (
	"github.com/golang/geo/r3"
)

// numJointColumns is the width of a joint sample: three projected coordinates followed by
// three color channels.
const numJointColumns = 6

// jointFeatures compares a reference neighborhood and the test points nearest to the same
// reference point, both expressed in the reference neighborhood's principal frame.
type jointFeatures struct {
	// projA0 is the query point in its own frame; projB0 is its nearest test point.
	projA0, projB0 r3.Vector

	meanA, meanB [numJointColumns]float64
	varA, varB   [numJointColumns]float64
	covAB        [numJointColumns]float64

	// eb holds the principal axes of the projected test points, as rows.
	eb [3]r3.Vector
}

// newJointFeatures pairs the reference samples (pointsA, colorsA) with the test samples
// (pointsB, colorsB) by rank. All four slices have the same non-zero length and are sorted
// by distance to the query point.
func newJointFeatures(pointsA []r3.Vector, colorsA [][3]float64, pointsB []r3.Vector, colorsB [][3]float64) jointFeatures {
	origin, axesA, _ := principalAxes(pointsA)
	frame := axesA.Frame()

	m := len(pointsA)
	projA := make([]r3.Vector, m)
	projB := make([]r3.Vector, m)
	rowsA := make([][numJointColumns]float64, m)
	rowsB := make([][numJointColumns]float64, m)
	for j := 0; j < m; j++ {
		projA[j] = frame.Project(pointsA[j], origin)
		projB[j] = frame.Project(pointsB[j], origin)
		rowsA[j] = jointRow(projA[j], colorsA[j])
		rowsB[j] = jointRow(projB[j], colorsB[j])
	}

	var jf jointFeatures
	jf.projA0 = projA[0]
	jf.projB0 = projB[0]

	n := float64(m)
	for j := 0; j < m; j++ {
		for c := 0; c < numJointColumns; c++ {
			jf.meanA[c] += rowsA[j][c]
			jf.meanB[c] += rowsB[j][c]
		}
	}
	for c := 0; c < numJointColumns; c++ {
		jf.meanA[c] /= n
		jf.meanB[c] /= n
	}
	for j := 0; j < m; j++ {
		for c := 0; c < numJointColumns; c++ {
			da := rowsA[j][c] - jf.meanA[c]
			db := rowsB[j][c] - jf.meanB[c]
			jf.varA[c] += da * da
			jf.varB[c] += db * db
			jf.covAB[c] += da * db
		}
	}
	for c := 0; c < numJointColumns; c++ {
		jf.varA[c] /= n
		jf.varB[c] /= n
		jf.covAB[c] /= n
	}

	_, axesB, _ := principalAxes(projB)
	jf.eb = axesB.Vectors
	return jf
}

func jointRow(p r3.Vector, color [3]float64) [numJointColumns]float64 {
	return [numJointColumns]float64{p.X, p.Y, p.Z, color[0], color[1], color[2]}
}

