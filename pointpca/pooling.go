package pointpca

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Pool reduces a column of per-point values to a single value. Values are visited in slice
// order, so the result does not depend on how the column was produced.
func (p Pooling) Pool(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("cannot pool an empty column")
	}
	switch p {
	case PoolingMean, "":
		return stat.Mean(values, nil), nil
	case PoolingMax:
		return floats.Max(values), nil
	case PoolingMin:
		return floats.Min(values), nil
	case PoolingMedian:
		// stats.Median sorts a copy
		return stats.Median(stats.Float64Data(values))
	case PoolingStd:
		return stat.PopStdDev(values, nil), nil
	default:
		return 0, errors.Errorf("unknown pooling %q", p)
	}
}

// poolColumns reduces every column of perPoint, in column order.
func poolColumns(perPoint *mat.Dense, pooling Pooling) (Predictors, error) {
	var out Predictors
	rows, cols := perPoint.Dims()
	if cols != NumPredictors {
		return out, errors.Errorf("expected %d predictor columns, got %d", NumPredictors, cols)
	}
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, perPoint)
		v, err := pooling.Pool(column)
		if err != nil {
			return out, errors.Wrapf(err, "pooling %s", Slots[j].Name)
		}
		out[j] = v
	}
	return out, nil
}
