package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/pointpca/logging"
	"go.viam.com/pointpca/pointcloud"
	"go.viam.com/pointpca/pointpca"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// newLogger returns a logger writing to the app's error writer at the level chosen by the
// global log-level flag. It also becomes the global logger.
func newLogger(c *cli.Context) (logging.Logger, error) {
	level, err := logging.LevelFromString(c.String(generalFlagLogLevel))
	if err != nil {
		return nil, err
	}
	logger := logging.NewBlankLogger("pointpca")
	logger.SetLevel(level)
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logging.ReplaceGlobal(logger)
	return logger, nil
}

// configFromFlags reads the optional config file and overrides it with every flag the user
// set explicitly.
func configFromFlags(c *cli.Context) (pointpca.Config, error) {
	var conf pointpca.Config
	if path := c.String(computeFlagConfig); path != "" {
		var err error
		if conf, err = pointpca.ReadConfig(path); err != nil {
			return pointpca.Config{}, err
		}
	}
	if c.IsSet(computeFlagSearchSize) || conf.SearchSize == 0 {
		conf.SearchSize = c.Int(computeFlagSearchSize)
	}
	if c.IsSet(computeFlagColorSpace) || conf.ColorSpace == "" {
		conf.ColorSpace = pointcloud.ColorSpace(c.String(computeFlagColorSpace))
	}
	if c.IsSet(computeFlagPooling) || conf.Pooling == "" {
		conf.Pooling = pointpca.Pooling(c.String(computeFlagPooling))
	}
	if c.IsSet(computeFlagSymmetric) {
		conf.Symmetric = c.Bool(computeFlagSymmetric)
	}
	if c.IsSet(computeFlagVerbose) {
		conf.Verbose = c.Bool(computeFlagVerbose)
	}
	if conf.SearchSize < 1 {
		return pointpca.Config{}, errors.Errorf("--%s must be at least 1", computeFlagSearchSize)
	}
	if err := conf.Validate("flags"); err != nil {
		return pointpca.Config{}, err
	}
	return conf, nil
}

// loadClouds reads the reference and test clouds concurrently.
func loadClouds(ctx context.Context, refPath, testPath string, logger logging.Logger) (*pointcloud.Cloud, *pointcloud.Cloud, error) {
	var ref, test *pointcloud.Cloud
	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		ref, err = pointcloud.NewFromFile(refPath, logger)
		return errors.Wrapf(err, "cannot load reference cloud %q", refPath)
	})
	group.Go(func() error {
		var err error
		test, err = pointcloud.NewFromFile(testPath, logger)
		return errors.Wrapf(err, "cannot load test cloud %q", testPath)
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return ref, test, nil
}

// computeRun is a finished computation together with the clouds it ran on.
type computeRun struct {
	ref, test *pointcloud.Cloud
	result    *pointpca.Result
}

// runCompute loads REF and TEST from the command arguments and computes their predictors.
func runCompute(c *cli.Context) (*computeRun, error) {
	if c.Args().Len() != 2 {
		return nil, errors.Errorf("%s requires exactly two arguments: REF TEST", c.Command.Name)
	}
	conf, err := configFromFlags(c)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	ref, test, err := loadClouds(c.Context, c.Args().Get(0), c.Args().Get(1), logger)
	if err != nil {
		return nil, err
	}
	res, err := pointpca.ComputeClouds(c.Context, ref, test, conf, logger)
	if err != nil {
		return nil, err
	}
	return &computeRun{ref: ref, test: test, result: res}, nil
}

type slotValue struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type computeOutput struct {
	RunID               string          `json:"run_id"`
	Config              pointpca.Config `json:"config"`
	ReferencePoints     int             `json:"reference_points"`
	TestPoints          int             `json:"test_points"`
	DegenerateReference int             `json:"degenerate_reference"`
	DegenerateTest      int             `json:"degenerate_test"`
	Predictors          []slotValue     `json:"predictors"`
}

// ComputeAction prints the predictor vector of TEST against REF.
func ComputeAction(c *cli.Context) error {
	run, err := runCompute(c)
	if err != nil {
		return err
	}
	res := run.result

	if c.Bool(computeFlagJSON) {
		out := computeOutput{
			RunID:               res.RunID.String(),
			Config:              res.Config,
			ReferencePoints:     run.ref.Size(),
			TestPoints:          run.test.Size(),
			DegenerateReference: res.DegenerateReference,
			DegenerateTest:      res.DegenerateTest,
			Predictors:          make([]slotValue, 0, pointpca.NumPredictors),
		}
		for _, s := range pointpca.Slots {
			out.Predictors = append(out.Predictors, slotValue{s.Index, s.Name, res.Predictors[s.Index]})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errors.Wrap(err, "cannot encode result")
		}
		printf(c.App.Writer, "%s", data)
		return nil
	}

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("run %s (%s pooling, %s)", res.RunID, res.Config.Pooling, res.Config.ColorSpace))
	t.AppendHeader(table.Row{"#", "Slot", "Value"})
	for _, s := range pointpca.Slots {
		t.AppendRow(table.Row{s.Index, s.Name, strconv.FormatFloat(res.Predictors[s.Index], 'g', 10, 64)})
	}
	t.AppendFooter(table.Row{"", "degenerate (ref/test)", fmt.Sprintf("%d/%d", res.DegenerateReference, res.DegenerateTest)})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

