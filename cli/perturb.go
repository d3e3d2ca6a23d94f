package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pointpca/pointcloud"
)

// PerturbAction writes a jittered copy of a cloud, for checking how predictors respond to
// increasing geometric noise.
func PerturbAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("perturb requires exactly two arguments: IN OUT")
	}
	sigma := c.Float64(perturbFlagSigma)
	if sigma < 0 {
		return errors.Errorf("--%s cannot be negative", perturbFlagSigma)
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	in, out := c.Args().Get(0), c.Args().Get(1)
	cloud, err := pointcloud.NewFromFile(in, logger)
	if err != nil {
		return err
	}
	noisy := pointcloud.Perturb(cloud, sigma, c.Int64(perturbFlagSeed))
	if err := pointcloud.WriteToFile(noisy, out); err != nil {
		return err
	}

	meta := cloud.MetaData()
	if diag := meta.Diagonal(); diag > 0 {
		printf(c.App.Writer, "wrote %d points to %s (sigma %g, %.3g%% of the bounding box diagonal)",
			noisy.Size(), out, sigma, 100*sigma/diag)
		return nil
	}
	printf(c.App.Writer, "wrote %d points to %s (sigma %g)", noisy.Size(), out, sigma)
	return nil
}
