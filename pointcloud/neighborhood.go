package pointcloud

import (
	"context"

	"github.com/golang/geo/r3"

	"go.viam.com/pointpca/utils"
)

// DefaultSearchSize is the default number of neighbors, center included, per neighborhood.
const DefaultSearchSize = 81

// Neighborhood is the ordered set of nearest neighbors around a center. Indices refer to the
// indexed cloud and are sorted by ascending squared distance Dist2, ties by ascending index.
// When the center is an indexed point it is included, normally at position 0.
type Neighborhood struct {
	Center  int
	Indices []int
	Dist2   []float64
}

// Len returns the number of neighbors.
func (n Neighborhood) Len() int {
	return len(n.Indices)
}

// Points gathers the neighbor coordinates from points, in neighborhood order.
func (n Neighborhood) Points(points []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(n.Indices))
	for i, idx := range n.Indices {
		out[i] = points[idx]
	}
	return out
}

// Colors gathers the neighbor colors from colors, in neighborhood order.
func (n Neighborhood) Colors(colors [][3]float64) [][3]float64 {
	out := make([][3]float64, len(n.Indices))
	for i, idx := range n.Indices {
		out[i] = colors[idx]
	}
	return out
}

// Truncate returns the first m neighbors. m larger than Len returns n unchanged.
func (n Neighborhood) Truncate(m int) Neighborhood {
	if m >= len(n.Indices) {
		return n
	}
	return Neighborhood{Center: n.Center, Indices: n.Indices[:m], Dist2: n.Dist2[:m]}
}

// Neighborhoods returns the k-nearest-neighbor neighborhood of every indexed point, computed
// in parallel over index ranges. k is clamped to the cloud size, so a cloud smaller than k
// yields whole-cloud neighborhoods.
func (idx *Index) Neighborhoods(ctx context.Context, k int) ([]Neighborhood, error) {
	out := make([]Neighborhood, idx.Size())
	if err := utils.ForEachParallel(ctx, idx.Size(), func(i int) error {
		n, err := idx.KNearest(i, k)
		if err != nil {
			return err
		}
		out[i] = n
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
