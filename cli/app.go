// Package cli contains the pointpca command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/pointpca/pointcloud"
	"go.viam.com/pointpca/pointpca"
)

const (
	// Flags.
	generalFlagLogLevel = "log-level"

	computeFlagSearchSize = "search-size"
	computeFlagColorSpace = "color-space"
	computeFlagPooling    = "pooling"
	computeFlagSymmetric  = "symmetric"
	computeFlagVerbose    = "verbose"
	computeFlagConfig     = "config"
	computeFlagJSON       = "json"

	perturbFlagSigma = "sigma"
	perturbFlagSeed  = "seed"

	plotFlagSlot = "slot"
	plotFlagOut  = "out"
	plotFlagBins = "bins"
)

var computeFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  computeFlagSearchSize,
		Usage: "number of nearest neighbors per neighborhood",
		Value: pointcloud.DefaultSearchSize,
	},
	&cli.StringFlag{
		Name:  computeFlagColorSpace,
		Usage: "color space for color statistics: rgb, ycbcr or lab",
		Value: string(pointcloud.ColorSpaceYCbCr),
	},
	&cli.StringFlag{
		Name:  computeFlagPooling,
		Usage: "pooling of per point predictors: mean, max, min, median or std",
		Value: string(pointpca.PoolingMean),
	},
	&cli.BoolFlag{
		Name:  computeFlagSymmetric,
		Usage: "also match test points back to the reference",
	},
	&cli.BoolFlag{
		Name:    computeFlagVerbose,
		Aliases: []string{"v"},
		Usage:   "log progress of each stage",
	},
	&cli.StringFlag{
		Name:    computeFlagConfig,
		Aliases: []string{"c"},
		Usage:   "load computation settings from `FILE`; flags take precedence",
	},
}

var app = &cli.App{
	Name:            "pointpca",
	Usage:           "compute quality predictors of a distorted point cloud against its reference",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  generalFlagLogLevel,
			Usage: "minimum log level: debug, info, warn or error",
			Value: "info",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "compute",
			Usage:     "compute the predictor vector of TEST against REF",
			ArgsUsage: "REF TEST",
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  computeFlagJSON,
					Usage: "print the result as JSON",
				},
			}, computeFlags...),
			Action: ComputeAction,
		},
		{
			Name:   "slots",
			Usage:  "list the predictor slots",
			Action: SlotsAction,
		},
		{
			Name:      "perturb",
			Usage:     "write a copy of IN with gaussian noise added to every coordinate",
			ArgsUsage: "IN OUT",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:     perturbFlagSigma,
					Usage:    "standard deviation of the noise along each axis",
					Required: true,
				},
				&cli.Int64Flag{
					Name:  perturbFlagSeed,
					Usage: "random seed",
					Value: 1,
				},
			},
			Action: PerturbAction,
		},
		{
			Name:      "plot",
			Usage:     "plot a histogram of one per point predictor of TEST against REF",
			ArgsUsage: "REF TEST",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     plotFlagSlot,
					Usage:    "slot `NAME` or index to plot",
					Required: true,
				},
				&cli.StringFlag{
					Name:  plotFlagOut,
					Usage: "output image `FILE`; the extension picks the format",
					Value: "predictor.png",
				},
				&cli.IntFlag{
					Name:  plotFlagBins,
					Usage: "number of histogram bins",
					Value: 40,
				},
			}, computeFlags...),
			Action: PlotAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
