package pointcloud

import (
	"container/heap"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Index is a kd-tree over a cloud's coordinates answering k-nearest-neighbor queries. It is
// read-only once built and safe for concurrent queries.
type Index struct {
	tree   *kdtree.Tree
	points []r3.Vector
}

// NewIndex builds an Index over points. The tree is built from a copy; points is not
// reordered. Construction is deterministic for a given point order.
func NewIndex(points []r3.Vector) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyCloud
	}
	items := make(indexedPoints, len(points))
	for i, p := range points {
		items[i] = indexedPoint{p: p, idx: i}
	}
	return &Index{tree: kdtree.New(items, false), points: points}, nil
}

// Size returns the number of indexed points.
func (idx *Index) Size() int {
	return len(idx.points)
}

// Point returns the coordinates of point i.
func (idx *Index) Point(i int) (r3.Vector, error) {
	if i < 0 || i >= len(idx.points) {
		return r3.Vector{}, NewInvalidIndexError(i, len(idx.points))
	}
	return idx.points[i], nil
}

// KNearest returns the k nearest neighbors of indexed point i, including i itself. k is
// clamped to the number of points.
func (idx *Index) KNearest(i, k int) (Neighborhood, error) {
	p, err := idx.Point(i)
	if err != nil {
		return Neighborhood{}, err
	}
	n, err := idx.KNearestPoint(p, k)
	if err != nil {
		return Neighborhood{}, err
	}
	n.Center = i
	return n, nil
}

// KNearestPoint returns the k nearest indexed points to an arbitrary position, sorted by
// ascending distance with ties broken by ascending index. k is clamped to the number of
// points. The returned neighborhood has Center -1.
func (idx *Index) KNearestPoint(p r3.Vector, k int) (Neighborhood, error) {
	if k < 1 {
		return Neighborhood{}, errors.Errorf("neighborhood size must be at least 1, got %d", k)
	}
	if k > len(idx.points) {
		k = len(idx.points)
	}

	keeper := newTieKeeper(k)
	idx.tree.NearestSet(keeper, indexedPoint{p: p, idx: -1})

	found := make([]kdtree.ComparableDist, 0, k)
	for _, cd := range keeper.Heap {
		if cd.Comparable != nil {
			found = append(found, cd)
		}
	}
	sort.Slice(found, func(a, b int) bool {
		return lessByDistIndex(found[a], found[b])
	})

	n := Neighborhood{Center: -1, Indices: make([]int, len(found)), Dist2: make([]float64, len(found))}
	for j, cd := range found {
		n.Indices[j] = cd.Comparable.(indexedPoint).idx
		n.Dist2[j] = cd.Dist
	}
	return n, nil
}

// Nearest returns the index of the closest point to p and its squared distance. Ties go to
// the lowest index.
func (idx *Index) Nearest(p r3.Vector) (int, float64) {
	n, err := idx.KNearestPoint(p, 1)
	if err != nil || len(n.Indices) == 0 {
		return -1, math.Inf(1)
	}
	return n.Indices[0], n.Dist2[0]
}

// indexedPoint is a tree element remembering its position in the source cloud.
type indexedPoint struct {
	p   r3.Vector
	idx int
}

func (ip indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return ip.p.X - q.p.X
	case 1:
		return ip.p.Y - q.p.Y
	case 2:
		return ip.p.Z - q.p.Z
	default:
		panic("illegal dimension")
	}
}

func (ip indexedPoint) Dims() int { return 3 }

// Distance is the squared euclidean distance, as kdtree expects.
func (ip indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return SquaredDistance(ip.p, q.p)
}

// SquaredDistance is the squared euclidean distance used for every neighbor ranking.
func SquaredDistance(a, b r3.Vector) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

type indexedPoints []indexedPoint

func (ips indexedPoints) Index(i int) kdtree.Comparable         { return ips[i] }
func (ips indexedPoints) Len() int                              { return len(ips) }
func (ips indexedPoints) Slice(start, end int) kdtree.Interface { return ips[start:end] }

// Pivot sorts by the plane coordinate, then by source index, and splits at the middle. Unlike
// kdtree's randomized selection this gives the same tree on every build.
func (ips indexedPoints) Pivot(d kdtree.Dim) int {
	sort.Sort(planeSorter{ips, d})
	return len(ips) / 2
}

type planeSorter struct {
	indexedPoints
	d kdtree.Dim
}

func (s planeSorter) Less(i, j int) bool {
	c := s.indexedPoints[i].Compare(s.indexedPoints[j], s.d)
	if c != 0 {
		return c < 0
	}
	return s.indexedPoints[i].idx < s.indexedPoints[j].idx
}

func (s planeSorter) Swap(i, j int) {
	s.indexedPoints[i], s.indexedPoints[j] = s.indexedPoints[j], s.indexedPoints[i]
}

// tieKeeper is a bounded max-heap like kdtree.NKeeper, except that equal distances are
// ordered by source index so that the k retained points are the lowest-indexed among ties.
type tieKeeper struct {
	kdtree.Heap
}

func newTieKeeper(n int) *tieKeeper {
	k := tieKeeper{make(kdtree.Heap, 1, n)}
	k.Heap[0].Dist = math.Inf(1)
	return &k
}

// Less orders the heap with the worst candidate on top; the nil sentinel is worst of all.
func (k *tieKeeper) Less(i, j int) bool {
	return lessByDistIndex(k.Heap[j], k.Heap[i])
}

func (k *tieKeeper) Keep(c kdtree.ComparableDist) {
	if len(k.Heap) < cap(k.Heap) {
		heap.Push(k, c)
		return
	}
	if lessByDistIndex(c, k.Heap[0]) {
		k.Heap[0] = c
		heap.Fix(k, 0)
	}
}

// lessByDistIndex reports whether a ranks strictly before b. A nil Comparable ranks last.
func lessByDistIndex(a, b kdtree.ComparableDist) bool {
	if b.Comparable == nil {
		return a.Comparable != nil
	}
	if a.Comparable == nil {
		return false
	}
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.Comparable.(indexedPoint).idx < b.Comparable.(indexedPoint).idx
}
