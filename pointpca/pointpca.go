// Package pointpca computes PointPCA quality predictors for a distorted (test) colored point
// cloud against its reference.
//
// For every reference point the reference neighborhood and the test points nearest to the
// same location are projected onto the reference neighborhood's principal axes. Geometric and
// color statistics of both projections are compared, together with the descriptor of the
// matched test point, giving NumPredictors values per point. Each column is then pooled over
// all reference points into a Predictors vector whose layout is documented by Slots.
package pointpca

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/pointpca/logging"
	"go.viam.com/pointpca/pointcloud"
	"go.viam.com/pointpca/utils"
)

// Timings records how long each stage of a computation took.
type Timings struct {
	Index          time.Duration
	Correspondence time.Duration
	Descriptors    time.Duration
	Predictors     time.Duration
	Pooling        time.Duration
}

// Total returns the summed duration of every stage.
func (t Timings) Total() time.Duration {
	return t.Index + t.Correspondence + t.Descriptors + t.Predictors + t.Pooling
}

// Result is the full output of ComputeClouds.
type Result struct {
	RunID      uuid.UUID
	Config     Config
	Predictors Predictors
	// PerPoint has one row per reference point and one column per predictor slot, before
	// pooling.
	PerPoint       *mat.Dense
	Correspondence *Correspondence
	// DegenerateReference and DegenerateTest count the neighborhoods that fell back to the
	// degenerate descriptor.
	DegenerateReference int
	DegenerateTest      int
	Timings             Timings
}

// Compute returns the predictor vector of a test cloud against a reference cloud, with
// default settings apart from searchSize. verbose logs progress to stdout; it never changes
// the result.
func Compute(
	refPoints []r3.Vector,
	refColors []pointcloud.Color,
	testPoints []r3.Vector,
	testColors []pointcloud.Color,
	searchSize int,
	verbose bool,
) (Predictors, error) {
	ref := &pointcloud.Cloud{Points: refPoints, Colors: refColors}
	test := &pointcloud.Cloud{Points: testPoints, Colors: testColors}
	if err := validateClouds(ref, test); err != nil {
		return Predictors{}, err
	}
	if searchSize < 1 {
		return Predictors{}, errors.Errorf("search size must be at least 1, got %d", searchSize)
	}

	logger := logging.NewBlankLogger("pointpca")
	if verbose {
		logger = logging.NewLogger("pointpca")
	}
	res, err := ComputeClouds(context.Background(), ref, test, Config{SearchSize: searchSize, Verbose: verbose}, logger)
	if err != nil {
		return Predictors{}, err
	}
	return res.Predictors, nil
}

func validateClouds(ref, test *pointcloud.Cloud) error {
	if err := ref.Validate("reference"); err != nil {
		return err
	}
	return test.Validate("test")
}

// ComputeClouds runs the whole pipeline on ref and test. Both clouds are validated before
// any work starts and are never modified.
func ComputeClouds(
	ctx context.Context,
	ref, test *pointcloud.Cloud,
	cfg Config,
	logger logging.Logger,
) (*Result, error) {
	if err := validateClouds(ref, test); err != nil {
		return nil, err
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.NewBlankLogger("pointpca")
	}

	res := &Result{RunID: uuid.New(), Config: cfg}
	r := &run{
		cfg:       cfg,
		logger:    logger.With("run_id", res.RunID.String()),
		refPts:    ref.Points,
		testPts:   test.Points,
		refColor:  cfg.ColorSpace.ConvertAll(ref.Colors),
		testColor: cfg.ColorSpace.ConvertAll(test.Colors),
	}
	r.stage("starting", "reference_points", ref.Size(), "test_points", test.Size(),
		"search_size", cfg.SearchSize, "color_space", cfg.ColorSpace, "pooling", cfg.Pooling)

	var err error
	res.Timings.Index, err = utils.RunInParallel(ctx, []utils.SimpleFunc{
		func(context.Context) error {
			var err error
			r.refIdx, err = pointcloud.NewIndex(ref.Points)
			return errors.Wrap(err, "cannot index reference cloud")
		},
		func(context.Context) error {
			var err error
			r.testIdx, err = pointcloud.NewIndex(test.Points)
			return errors.Wrap(err, "cannot index test cloud")
		},
	})
	if err != nil {
		return nil, err
	}
	r.stage("built spatial indexes", "elapsed", res.Timings.Index)

	start := time.Now()
	res.Correspondence, err = BuildCorrespondence(ctx, r.refIdx, r.testIdx, cfg.Symmetric)
	if err != nil {
		return nil, err
	}
	res.Timings.Correspondence = time.Since(start)
	r.stage("built correspondence", "symmetric", cfg.Symmetric, "elapsed", res.Timings.Correspondence)

	start = time.Now()
	testDescs, err := r.testDescriptors(ctx)
	if err != nil {
		return nil, err
	}
	res.Timings.Descriptors = time.Since(start)
	for i := range testDescs {
		if testDescs[i].Degenerate {
			res.DegenerateTest++
		}
	}
	r.stage("computed test descriptors", "degenerate", res.DegenerateTest, "elapsed", res.Timings.Descriptors)

	start = time.Now()
	res.PerPoint, res.DegenerateReference, err = r.perPointPredictors(ctx, testDescs, res.Correspondence.Forward)
	if err != nil {
		return nil, err
	}
	res.Timings.Predictors = time.Since(start)
	r.stage("computed per point predictors", "degenerate", res.DegenerateReference, "elapsed", res.Timings.Predictors)

	start = time.Now()
	res.Predictors, err = poolColumns(res.PerPoint, cfg.Pooling)
	if err != nil {
		return nil, err
	}
	res.Timings.Pooling = time.Since(start)
	r.stage("pooled predictors", "elapsed", res.Timings.Pooling, "total", res.Timings.Total())
	return res, nil
}

// run holds the shared, read-only state of one computation.
type run struct {
	cfg    Config
	logger logging.Logger

	refPts, testPts     []r3.Vector
	refColor, testColor [][3]float64
	refIdx, testIdx     *pointcloud.Index
}

func (r *run) stage(msg string, keysAndValues ...interface{}) {
	if r.cfg.Verbose {
		r.logger.Infow(msg, keysAndValues...)
		return
	}
	r.logger.Debugw(msg, keysAndValues...)
}

func (r *run) testDescriptors(ctx context.Context) ([]LocalDescriptor, error) {
	descs := make([]LocalDescriptor, len(r.testPts))
	if err := utils.ForEachParallel(ctx, len(r.testPts), func(j int) error {
		n, err := r.testIdx.KNearest(j, r.cfg.SearchSize)
		if err != nil {
			return err
		}
		descs[j] = NewLocalDescriptor(n.Points(r.testPts), n.Colors(r.testColor))
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "cannot compute test descriptors")
	}
	return descs, nil
}

// perPointPredictors fills one matrix row per reference point. Workers write disjoint rows;
// the degenerate count is summed afterwards in index order.
func (r *run) perPointPredictors(ctx context.Context, testDescs []LocalDescriptor, forward []int) (*mat.Dense, int, error) {
	numRef := len(r.refPts)
	joint := utils.MinInt(r.cfg.SearchSize, utils.MinInt(numRef, len(r.testPts)))
	perPoint := mat.NewDense(numRef, NumPredictors, nil)
	degenerate := make([]bool, numRef)

	if err := utils.ForEachParallel(ctx, numRef, func(i int) error {
		nA, err := r.refIdx.KNearest(i, r.cfg.SearchSize)
		if err != nil {
			return err
		}
		refDesc := NewLocalDescriptor(nA.Points(r.refPts), nA.Colors(r.refColor))
		degenerate[i] = refDesc.Degenerate

		nB, err := r.testIdx.KNearestPoint(r.refPts[i], joint)
		if err != nil {
			return err
		}
		nA = nA.Truncate(joint)
		jf := newJointFeatures(
			nA.Points(r.refPts), nA.Colors(r.refColor),
			nB.Points(r.testPts), nB.Colors(r.testColor),
		)
		fillPredictorRow(perPoint.RawRowView(i), &jf, &refDesc, &testDescs[forward[i]])
		return nil
	}); err != nil {
		return nil, 0, errors.Wrap(err, "cannot compute per point predictors")
	}

	var count int
	for _, d := range degenerate {
		if d {
			count++
		}
	}
	return perPoint, count, nil
}
