package pointpca

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/pointpca/spatialmath"
	"go.viam.com/pointpca/utils"
)

// eps is the float64 machine epsilon, used to keep ratios finite.
const eps = 2.220446049250313e-16

// relativeSimilarity is 1 for equal values and falls toward 0 as they diverge.
func relativeSimilarity(x, y float64) float64 {
	return 1 - math.Abs(x-y)/(math.Abs(x)+math.Abs(y)+eps)
}

// covarianceDifference compares a cross-covariance against the product of the two standard
// deviations; it is 0 when the samples are perfectly correlated.
func covarianceDifference(varX, varY, cov float64) float64 {
	sd := math.Sqrt(varX) * math.Sqrt(varY)
	return math.Abs(sd-cov) / (sd + eps)
}

func omnivariance(v []float64) float64 {
	return utils.CubeRoot(v[0] * v[1] * v[2])
}

func varianceEntropy(v []float64) float64 {
	var h float64
	for _, x := range v {
		h -= x * math.Log(x+eps)
	}
	return h
}

func unitAngle(cos float64) float64 {
	return 2 * math.Acos(utils.Clamp(cos, 0, 1)) / math.Pi
}

// fillPredictorRow writes the per-point predictors of one reference point into row, which
// has NumPredictors entries. ref and test are the matched local descriptors.
func fillPredictorRow(row []float64, jf *jointFeatures, ref, test *LocalDescriptor) {
	geoA, colA := jf.varA[:3], jf.varA[3:]
	geoB, colB := jf.varB[:3], jf.varB[3:]

	for c := 0; c < 3; c++ {
		row[SlotColorMeanSim0+c] = relativeSimilarity(jf.meanA[3+c], jf.meanB[3+c])
		row[SlotColorVarSim0+c] = relativeSimilarity(colA[c], colB[c])
		row[SlotColorCovDiff0+c] = covarianceDifference(colA[c], colB[c], jf.covAB[3+c])
	}
	row[SlotColorVarianceSumSim] = relativeSimilarity(colA[0]+colA[1]+colA[2], colB[0]+colB[1]+colB[2])
	row[SlotColorOmnivarianceSim] = relativeSimilarity(omnivariance(colA), omnivariance(colB))
	row[SlotColorEntropySim] = relativeSimilarity(varianceEntropy(colA), varianceEntropy(colB))

	errVec := jf.projA0.Sub(jf.projB0)
	row[SlotGeoProjDist] = errVec.Norm()
	for c := 0; c < 3; c++ {
		row[SlotGeoProjAxisDist0+c] = math.Abs(spatialmath.Component(errVec, c))
	}
	row[SlotGeoRefPlaneDist1] = math.Abs(jf.projA0.Y)
	row[SlotGeoRefPlaneDist2] = math.Abs(jf.projA0.Z)
	row[SlotGeoTestOriginDist] = jf.projB0.Norm()
	row[SlotGeoTestPlaneDist1] = math.Abs(jf.projB0.Y)
	row[SlotGeoTestPlaneDist2] = math.Abs(jf.projB0.Z)
	meanB := r3.Vector{X: jf.meanB[0], Y: jf.meanB[1], Z: jf.meanB[2]}
	row[SlotGeoTestMeanDist] = meanB.Norm()
	row[SlotGeoTestMeanPlaneDist1] = math.Abs(meanB.Y)
	row[SlotGeoTestMeanPlaneDist2] = math.Abs(meanB.Z)

	for c := 0; c < 3; c++ {
		row[SlotGeoVarSim0+c] = relativeSimilarity(geoA[c], geoB[c])
		row[SlotGeoCovDiff0+c] = covarianceDifference(geoA[c], geoB[c], jf.covAB[c])
	}
	row[SlotGeoOmnivarianceSim] = relativeSimilarity(omnivariance(geoA), omnivariance(geoB))
	row[SlotGeoEntropySim] = relativeSimilarity(varianceEntropy(geoA), varianceEntropy(geoB))
	row[SlotGeoAnisotropySim] = relativeSimilarity(
		(geoA[0]-geoA[2])/(geoA[0]+eps), (geoB[0]-geoB[2])/(geoB[0]+eps))
	row[SlotGeoPlanaritySim] = relativeSimilarity(
		(geoA[1]-geoA[2])/(geoA[0]+eps), (geoB[1]-geoB[2])/(geoB[0]+eps))
	row[SlotGeoLinearitySim] = relativeSimilarity(
		(geoA[0]-geoA[1])/(geoA[0]+eps), (geoB[0]-geoB[1])/(geoB[0]+eps))
	row[SlotGeoSurfaceVariationSim] = relativeSimilarity(
		geoA[2]/(geoA[0]+geoA[1]+geoA[2]+eps), geoB[2]/(geoB[0]+geoB[1]+geoB[2]+eps))
	row[SlotGeoSphericitySim] = relativeSimilarity(geoA[2]/(geoA[0]+eps), geoB[2]/(geoB[0]+eps))

	eb1 := jf.eb[1]
	row[SlotGeoAngularSim] = 1 - unitAngle(math.Abs(eb1.Y)/(eb1.Norm()+eps))
	row[SlotGeoParallelity0] = 1 - jf.eb[0].X
	row[SlotGeoParallelity2] = 1 - jf.eb[2].Z

	row[SlotNormalAngleDiff] = unitAngle(math.Abs(ref.Normal.Dot(test.Normal)))
	var d2 float64
	for c := 0; c < 3; c++ {
		d := ref.ColorMean[c] - test.ColorMean[c]
		d2 += d * d
	}
	row[SlotColorMeanL2Diff] = math.Sqrt(d2)
}
