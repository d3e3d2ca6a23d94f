package pointpca

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/pointpca/pointcloud"
	"go.viam.com/pointpca/utils"
)

// Correspondence links points of two clouds by geometric nearest neighbor. Several points
// may map to the same counterpart.
type Correspondence struct {
	// Forward[i] is the test point nearest to reference point i.
	Forward []int
	// Backward[j] is the reference point nearest to test point j. It is only built for
	// symmetric correspondences.
	Backward []int
}

// BuildCorrespondence matches every reference point to its nearest test point, and every
// test point back to its nearest reference point when symmetric is set. Distance ties go to
// the lowest index.
func BuildCorrespondence(ctx context.Context, ref, test *pointcloud.Index, symmetric bool) (*Correspondence, error) {
	forward, err := nearestAll(ctx, ref, test)
	if err != nil {
		return nil, errors.Wrap(err, "reference to test correspondence")
	}
	corr := &Correspondence{Forward: forward}
	if symmetric {
		backward, err := nearestAll(ctx, test, ref)
		if err != nil {
			return nil, errors.Wrap(err, "test to reference correspondence")
		}
		corr.Backward = backward
	}
	return corr, nil
}

func nearestAll(ctx context.Context, from, to *pointcloud.Index) ([]int, error) {
	out := make([]int, from.Size())
	if err := utils.ForEachParallel(ctx, from.Size(), func(i int) error {
		p, err := from.Point(i)
		if err != nil {
			return err
		}
		out[i], _ = to.Nearest(p)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
