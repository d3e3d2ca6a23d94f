package pointpca

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/pointpca/logging"
	"go.viam.com/pointpca/pointcloud"
	"go.viam.com/pointpca/utils"
)

func computeClouds(t *testing.T, ref, tst *pointcloud.Cloud, cfg Config) *Result {
	t.Helper()
	res, err := ComputeClouds(context.Background(), ref, tst, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return res
}

func requireFinite(t *testing.T, p Predictors) {
	t.Helper()
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("slot %d (%s) is not finite: %v", i, Slots[i].Name, v)
		}
	}
}

func TestComputeShape(t *testing.T) {
	sizes := []int{1, 10, 10000}
	if testing.Short() {
		sizes = sizes[:2]
	}
	for _, n := range sizes {
		ref := pointcloud.MakeTestSurface(n, 1)
		tst := pointcloud.Perturb(ref, 0.01, 2)
		p, err := Compute(ref.Points, ref.Colors, tst.Points, tst.Colors, pointcloud.DefaultSearchSize, false)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(p), test.ShouldEqual, NumPredictors)
		requireFinite(t, p)
	}

	// clouds of different sizes
	ref := pointcloud.MakeTestCloud(40, 3)
	tst := pointcloud.MakeTestCloud(7, 4)
	res := computeClouds(t, ref, tst, Config{SearchSize: 10})
	requireFinite(t, res.Predictors)
	rows, cols := res.PerPoint.Dims()
	test.That(t, rows, test.ShouldEqual, 40)
	test.That(t, cols, test.ShouldEqual, NumPredictors)
	test.That(t, res.Correspondence.Forward, test.ShouldHaveLength, 40)
	test.That(t, res.Correspondence.Backward, test.ShouldBeNil)
}

func TestComputeSelfComparison(t *testing.T) {
	for _, cs := range []pointcloud.ColorSpace{pointcloud.ColorSpaceRGB, pointcloud.ColorSpaceYCbCr, pointcloud.ColorSpaceLab} {
		t.Run(string(cs), func(t *testing.T) {
			cloud := pointcloud.MakeTestSurface(400, 5)
			res := computeClouds(t, cloud, cloud, Config{SearchSize: 27, ColorSpace: cs})
			test.That(t, res.DegenerateReference, test.ShouldEqual, 0)
			requireFinite(t, res.Predictors)
			for _, s := range Slots {
				if s.HasIdentity() {
					test.That(t, res.Predictors[s.Index], test.ShouldAlmostEqual, s.Identity, 1e-6)
				}
			}
			for i, j := range res.Correspondence.Forward {
				test.That(t, j, test.ShouldEqual, i)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	ref := pointcloud.MakeTestSurface(600, 7)
	tst := pointcloud.Perturb(ref, 0.005, 8)

	original := utils.ParallelFactor
	defer func() {
		utils.ParallelFactor = original
	}()

	var first *Result
	for _, factor := range []int{1, 3, 8, 1} {
		utils.ParallelFactor = factor
		res := computeClouds(t, ref, tst, Config{SearchSize: 33})
		if first == nil {
			first = res
			continue
		}
		test.That(t, res.Predictors, test.ShouldResemble, first.Predictors)
		test.That(t, res.PerPoint.RawMatrix().Data, test.ShouldResemble, first.PerPoint.RawMatrix().Data)
		test.That(t, res.Correspondence, test.ShouldResemble, first.Correspondence)
		test.That(t, res.RunID, test.ShouldNotEqual, first.RunID)
	}
}

func TestComputeShapeMismatch(t *testing.T) {
	good := pointcloud.MakeTestCloud(10, 1)

	logger, logs := logging.NewObservedTestLogger(t)
	bad := &pointcloud.Cloud{Points: good.Points, Colors: good.Colors[:9]}
	_, err := ComputeClouds(context.Background(), bad, good, Config{}, logger)
	var shape *pointcloud.ShapeMismatchError
	test.That(t, errors.As(err, &shape), test.ShouldBeTrue)
	test.That(t, shape.Cloud, test.ShouldEqual, "reference")
	test.That(t, shape.Points, test.ShouldEqual, 10)
	test.That(t, shape.Colors, test.ShouldEqual, 9)
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	_, err = ComputeClouds(context.Background(), good, bad, Config{}, logger)
	test.That(t, errors.As(err, &shape), test.ShouldBeTrue)
	test.That(t, shape.Cloud, test.ShouldEqual, "test")
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	_, err = Compute(good.Points, good.Colors[:3], good.Points, good.Colors, 81, false)
	test.That(t, errors.As(err, &shape), test.ShouldBeTrue)

	_, err = Compute(nil, nil, good.Points, good.Colors, 81, false)
	test.That(t, errors.Is(err, pointcloud.ErrEmptyCloud), test.ShouldBeTrue)

	nonFinite := []r3.Vector{{X: math.NaN()}}
	_, err = Compute(good.Points, good.Colors, nonFinite, good.Colors[:1], 81, false)
	test.That(t, errors.Is(err, pointcloud.ErrNonFiniteCoordinate), test.ShouldBeTrue)

	_, err = Compute(good.Points, good.Colors, good.Points, good.Colors, 0, false)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ComputeClouds(context.Background(), good, good, Config{Pooling: "sum"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, logs.Len(), test.ShouldEqual, 0)
}

func TestComputePermutationInvariance(t *testing.T) {
	ref := pointcloud.MakeTestCloud(300, 11)
	tst := pointcloud.Perturb(ref, 0.02, 12)
	base := computeClouds(t, ref, tst, Config{SearchSize: 20})

	permRef, _ := pointcloud.Permute(ref, 13)
	permTest, _ := pointcloud.Permute(tst, 14)
	permuted := computeClouds(t, permRef, permTest, Config{SearchSize: 20})
	for i := range base.Predictors {
		test.That(t, permuted.Predictors[i], test.ShouldAlmostEqual, base.Predictors[i], 1e-9)
	}
}

func TestComputeDegenerateSafety(t *testing.T) {
	collinear := &pointcloud.Cloud{}
	for i := 0; i < 50; i++ {
		collinear.Points = append(collinear.Points, r3.Vector{X: float64(i) * 0.1, Y: 2, Z: -1})
		collinear.Colors = append(collinear.Colors, pointcloud.Color{R: uint8(i), G: 100, B: uint8(255 - i)})
	}
	duplicates := &pointcloud.Cloud{}
	for i := 0; i < 30; i++ {
		duplicates.Points = append(duplicates.Points, r3.Vector{X: 1, Y: 1, Z: 1})
		duplicates.Colors = append(duplicates.Colors, pointcloud.Color{R: uint8(i * 8), G: 0, B: 0})
	}
	tiny := pointcloud.MakeTestCloud(5, 21)
	single := pointcloud.MakeTestCloud(1, 22)

	for _, tc := range []struct {
		name      string
		ref, test *pointcloud.Cloud
		allDegen  bool
	}{
		{"collinear", collinear, pointcloud.Perturb(collinear, 0.001, 1), true},
		{"duplicates", duplicates, duplicates, true},
		{"smaller than search size", tiny, pointcloud.Perturb(tiny, 0.01, 2), false},
		{"single point", single, single, true},
		{"single against many", single, tiny, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, pooling := range []Pooling{PoolingMean, PoolingMax, PoolingMin, PoolingMedian, PoolingStd} {
				res := computeClouds(t, tc.ref, tc.test, Config{Pooling: pooling})
				requireFinite(t, res.Predictors)
				if tc.allDegen {
					test.That(t, res.DegenerateReference, test.ShouldEqual, tc.ref.Size())
				}
			}
		})
	}
}

func TestComputeMonotonicSensitivity(t *testing.T) {
	ref := pointcloud.MakeTestSurface(800, 31)
	sigmas := []float64{0, 0.002, 0.01, 0.03}
	means := make([]float64, len(sigmas))
	for i, sigma := range sigmas {
		for seed := int64(0); seed < 3; seed++ {
			tst := pointcloud.Perturb(ref, sigma, 100+seed)
			res := computeClouds(t, ref, tst, Config{SearchSize: 27})
			means[i] += res.Predictors[SlotGeoProjDist] / 3
		}
	}
	test.That(t, means[0], test.ShouldAlmostEqual, 0)
	for i := 1; i < len(means); i++ {
		test.That(t, means[i], test.ShouldBeGreaterThanOrEqualTo, means[i-1])
	}
	test.That(t, means[len(means)-1], test.ShouldBeGreaterThan, 0.)
}

func TestComputeUnitSquare(t *testing.T) {
	gray := pointcloud.Color{R: 128, G: 128, B: 128}
	refPts := []r3.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	testPts := make([]r3.Vector, len(refPts))
	for i, p := range refPts {
		testPts[i] = p.Add(r3.Vector{Z: 0.01})
	}
	colors := []pointcloud.Color{gray, gray, gray, gray}

	p, err := Compute(refPts, colors, testPts, colors, pointcloud.DefaultSearchSize, false)
	test.That(t, err, test.ShouldBeNil)
	requireFinite(t, p)

	for slot := SlotColorMeanSim0; slot <= SlotColorEntropySim; slot++ {
		test.That(t, p[slot], test.ShouldAlmostEqual, Slots[slot].Identity, 1e-9)
	}
	test.That(t, p[SlotColorMeanL2Diff], test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, p[SlotGeoProjDist], test.ShouldAlmostEqual, 0.01, 1e-9)
	test.That(t, p[SlotGeoProjAxisDist2], test.ShouldAlmostEqual, 0.01, 1e-9)
	test.That(t, p[SlotNormalAngleDiff], test.ShouldBeLessThan, 0.01)
	test.That(t, p[SlotNormalAngleDiff], test.ShouldBeGreaterThanOrEqualTo, 0.)
}

func TestComputeSymmetricAndLogging(t *testing.T) {
	ref := pointcloud.MakeTestCloud(50, 41)
	tst := pointcloud.MakeTestCloud(30, 42)

	for _, verbose := range []bool{false, true} {
		logger, logs := logging.NewObservedTestLogger(t)
		res, err := ComputeClouds(context.Background(), ref, tst, Config{SearchSize: 9, Symmetric: true, Verbose: verbose}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Correspondence.Forward, test.ShouldHaveLength, 50)
		test.That(t, res.Correspondence.Backward, test.ShouldHaveLength, 30)
		for j, i := range res.Correspondence.Backward {
			nearest, _ := mustIndex(t, ref.Points).Nearest(tst.Points[j])
			test.That(t, i, test.ShouldEqual, nearest)
		}

		started := logs.FilterMessage("starting").All()
		test.That(t, started, test.ShouldHaveLength, 1)
		test.That(t, started[0].ContextMap()["run_id"], test.ShouldEqual, res.RunID.String())
		want := zapcore.DebugLevel
		if verbose {
			want = zapcore.InfoLevel
		}
		test.That(t, started[0].Level, test.ShouldEqual, want)
		test.That(t, logs.FilterMessage("pooled predictors").Len(), test.ShouldEqual, 1)
	}
}

func TestComputeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cloud := pointcloud.MakeTestCloud(20, 1)
	_, err := ComputeClouds(ctx, cloud, cloud, Config{}, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func mustIndex(t *testing.T, points []r3.Vector) *pointcloud.Index {
	t.Helper()
	idx, err := pointcloud.NewIndex(points)
	test.That(t, err, test.ShouldBeNil)
	return idx
}
