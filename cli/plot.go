package cli

import (
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"go.uber.org/multierr"

	"go.viam.com/pointpca/pointpca"
)

// slotFromFlag accepts either a slot name or its index.
func slotFromFlag(value string) (pointpca.Slot, error) {
	if s, ok := pointpca.SlotByName(value); ok {
		return s, nil
	}
	idx, err := strconv.Atoi(value)
	if err != nil || idx < 0 || idx >= pointpca.NumPredictors {
		return pointpca.Slot{}, errors.Errorf("unknown slot %q", value)
	}
	return pointpca.Slots[idx], nil
}

type columnSummary struct {
	mean, median, p95 float64
}

func summarize(values []float64) (columnSummary, error) {
	data := stats.Float64Data(values)
	var summary columnSummary
	var err, errs error
	summary.mean, err = stats.Mean(data)
	errs = multierr.Combine(errs, err)
	summary.median, err = stats.Median(data)
	errs = multierr.Combine(errs, err)
	summary.p95, err = stats.Percentile(data, 95)
	errs = multierr.Combine(errs, err)
	return summary, errs
}

// PlotAction writes a histogram of one per point predictor column and prints its summary.
func PlotAction(c *cli.Context) error {
	slot, err := slotFromFlag(c.String(plotFlagSlot))
	if err != nil {
		return err
	}
	bins := c.Int(plotFlagBins)
	if bins < 1 {
		return errors.Errorf("--%s must be at least 1", plotFlagBins)
	}
	run, err := runCompute(c)
	if err != nil {
		return err
	}

	rows, _ := run.result.PerPoint.Dims()
	column := make([]float64, rows)
	mat.Col(column, slot.Index, run.result.PerPoint)
	summary, err := summarize(column)
	if err != nil {
		return errors.Wrapf(err, "cannot summarize %s", slot.Name)
	}

	p := plot.New()
	p.Title.Text = slot.Name
	p.X.Label.Text = slot.Description
	p.Y.Label.Text = "reference points"
	hist, err := plotter.NewHist(plotter.Values(column), bins)
	if err != nil {
		return errors.Wrap(err, "cannot build histogram")
	}
	p.Add(hist)

	out := c.String(plotFlagOut)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, out); err != nil {
		return errors.Wrapf(err, "cannot save plot to %q", out)
	}
	printf(c.App.Writer, "%s over %d points: mean %g, median %g, p95 %g; histogram written to %s",
		slot.Name, rows, summary.mean, summary.median, summary.p95, out)
	return nil
}
