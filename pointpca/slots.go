package pointpca

import "math"

// NumPredictors is the fixed length of every predictor vector.
const NumPredictors = 42

// Predictors is the ordered predictor vector. The meaning of each index is fixed; see Slots.
type Predictors [NumPredictors]float64

// Slot indices into Predictors. The order is a public contract.
const (
	SlotColorMeanSim0 = iota
	SlotColorMeanSim1
	SlotColorMeanSim2
	SlotColorVarSim0
	SlotColorVarSim1
	SlotColorVarSim2
	SlotColorCovDiff0
	SlotColorCovDiff1
	SlotColorCovDiff2
	SlotColorVarianceSumSim
	SlotColorOmnivarianceSim
	SlotColorEntropySim
	SlotGeoProjDist
	SlotGeoProjAxisDist0
	SlotGeoProjAxisDist1
	SlotGeoProjAxisDist2
	SlotGeoRefPlaneDist1
	SlotGeoRefPlaneDist2
	SlotGeoTestOriginDist
	SlotGeoTestPlaneDist1
	SlotGeoTestPlaneDist2
	SlotGeoTestMeanDist
	SlotGeoTestMeanPlaneDist1
	SlotGeoTestMeanPlaneDist2
	SlotGeoVarSim0
	SlotGeoVarSim1
	SlotGeoVarSim2
	SlotGeoCovDiff0
	SlotGeoCovDiff1
	SlotGeoCovDiff2
	SlotGeoOmnivarianceSim
	SlotGeoEntropySim
	SlotGeoAnisotropySim
	SlotGeoPlanaritySim
	SlotGeoLinearitySim
	SlotGeoSurfaceVariationSim
	SlotGeoSphericitySim
	SlotGeoAngularSim
	SlotGeoParallelity0
	SlotGeoParallelity2
	SlotNormalAngleDiff
	SlotColorMeanL2Diff
)

// Slot documents one predictor.
type Slot struct {
	Index       int
	Name        string
	Description string
	// Identity is the value the predictor takes when the test cloud equals the reference.
	// It is NaN for predictors that only describe the reference.
	Identity float64
}

// HasIdentity reports whether the slot has a distortion-free value.
func (s Slot) HasIdentity() bool {
	return !math.IsNaN(s.Identity)
}

var referenceOnly = math.NaN()

// Slots enumerates every predictor in index order.
var Slots = [NumPredictors]Slot{
	{SlotColorMeanSim0, "color_mean_sim_c0", "relative similarity of color channel 0 means", 1},
	{SlotColorMeanSim1, "color_mean_sim_c1", "relative similarity of color channel 1 means", 1},
	{SlotColorMeanSim2, "color_mean_sim_c2", "relative similarity of color channel 2 means", 1},
	{SlotColorVarSim0, "color_var_sim_c0", "relative similarity of color channel 0 variances", 1},
	{SlotColorVarSim1, "color_var_sim_c1", "relative similarity of color channel 1 variances", 1},
	{SlotColorVarSim2, "color_var_sim_c2", "relative similarity of color channel 2 variances", 1},
	{SlotColorCovDiff0, "color_cov_diff_c0", "covariance difference of color channel 0", 0},
	{SlotColorCovDiff1, "color_cov_diff_c1", "covariance difference of color channel 1", 0},
	{SlotColorCovDiff2, "color_cov_diff_c2", "covariance difference of color channel 2", 0},
	{SlotColorVarianceSumSim, "color_variance_sum_sim", "relative similarity of summed color variances", 1},
	{SlotColorOmnivarianceSim, "color_omnivariance_sim", "relative similarity of color omnivariance", 1},
	{SlotColorEntropySim, "color_entropy_sim", "relative similarity of color variance entropy", 1},
	{SlotGeoProjDist, "geo_proj_dist", "distance between the projected point and its test counterpart", 0},
	{SlotGeoProjAxisDist0, "geo_proj_axis_dist_0", "projected point error along the principal axis", 0},
	{SlotGeoProjAxisDist1, "geo_proj_axis_dist_1", "projected point error along the secondary axis", 0},
	{SlotGeoProjAxisDist2, "geo_proj_axis_dist_2", "projected point error along the normal", 0},
	{SlotGeoRefPlaneDist1, "geo_ref_plane_dist_1", "reference point distance from the secondary plane", referenceOnly},
	{SlotGeoRefPlaneDist2, "geo_ref_plane_dist_2", "reference point distance from the tangent plane", referenceOnly},
	{SlotGeoTestOriginDist, "geo_test_origin_dist", "test counterpart distance from the reference centroid", referenceOnly},
	{SlotGeoTestPlaneDist1, "geo_test_plane_dist_1", "test counterpart distance from the secondary plane", referenceOnly},
	{SlotGeoTestPlaneDist2, "geo_test_plane_dist_2", "test counterpart distance from the tangent plane", referenceOnly},
	{SlotGeoTestMeanDist, "geo_test_mean_dist", "test centroid distance from the reference centroid", 0},
	{SlotGeoTestMeanPlaneDist1, "geo_test_mean_plane_dist_1", "test centroid distance from the secondary plane", 0},
	{SlotGeoTestMeanPlaneDist2, "geo_test_mean_plane_dist_2", "test centroid distance from the tangent plane", 0},
	{SlotGeoVarSim0, "geo_var_sim_0", "relative similarity of variance along the principal axis", 1},
	{SlotGeoVarSim1, "geo_var_sim_1", "relative similarity of variance along the secondary axis", 1},
	{SlotGeoVarSim2, "geo_var_sim_2", "relative similarity of variance along the normal", 1},
	{SlotGeoCovDiff0, "geo_cov_diff_0", "covariance difference along the principal axis", 0},
	{SlotGeoCovDiff1, "geo_cov_diff_1", "covariance difference along the secondary axis", 0},
	{SlotGeoCovDiff2, "geo_cov_diff_2", "covariance difference along the normal", 0},
	{SlotGeoOmnivarianceSim, "geo_omnivariance_sim", "relative similarity of geometric omnivariance", 1},
	{SlotGeoEntropySim, "geo_entropy_sim", "relative similarity of geometric variance entropy", 1},
	{SlotGeoAnisotropySim, "geo_anisotropy_sim", "relative similarity of anisotropy", 1},
	{SlotGeoPlanaritySim, "geo_planarity_sim", "relative similarity of planarity", 1},
	{SlotGeoLinearitySim, "geo_linearity_sim", "relative similarity of linearity", 1},
	{SlotGeoSurfaceVariationSim, "geo_surface_variation_sim", "relative similarity of surface variation", 1},
	{SlotGeoSphericitySim, "geo_sphericity_sim", "relative similarity of sphericity", 1},
	{SlotGeoAngularSim, "geo_angular_sim", "angular similarity of the test and reference tangent planes", 1},
	{SlotGeoParallelity0, "geo_parallelity_0", "parallelity of the test principal axis", 0},
	{SlotGeoParallelity2, "geo_parallelity_2", "parallelity of the test normal", 0},
	{SlotNormalAngleDiff, "normal_angle_diff", "normalized angle between matched reference and test normals", 0},
	{SlotColorMeanL2Diff, "color_mean_l2_diff", "distance between matched reference and test color means", 0},
}

// SlotByName looks up a slot by its name.
func SlotByName(name string) (Slot, bool) {
	for _, s := range Slots {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}
