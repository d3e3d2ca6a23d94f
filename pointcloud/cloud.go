// Package pointcloud defines a dense, colored point cloud along with the spatial index,
// neighborhood extraction and file formats used to feed quality prediction.
//
// A Cloud is an ordered pair of parallel slices. Point i and color i describe the same
// sample; the order is significant only for tie breaking in neighbor searches.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pointpca/utils"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Cloud is a colored point cloud. Computations borrow it and never mutate it.
type Cloud struct {
	Points []r3.Vector
	Colors []Color
}

// NewCloud returns a validated cloud over the given slices. The slices are not copied.
func NewCloud(points []r3.Vector, colors []Color) (*Cloud, error) {
	c := &Cloud{Points: points, Colors: colors}
	if err := c.Validate("cloud"); err != nil {
		return nil, err
	}
	return c, nil
}

// Size returns the number of points in the cloud.
func (c *Cloud) Size() int {
	return len(c.Points)
}

// Validate checks the invariants every computation relies on: matching point and color
// counts, at least one point and finite coordinates. name identifies the cloud in errors.
func (c *Cloud) Validate(name string) error {
	if len(c.Points) != len(c.Colors) {
		return NewShapeMismatchError(name, len(c.Points), len(c.Colors))
	}
	if len(c.Points) == 0 {
		return errors.Wrapf(ErrEmptyCloud, "%s cloud", name)
	}
	for i, p := range c.Points {
		if !utils.IsFinite(p.X) || !utils.IsFinite(p.Y) || !utils.IsFinite(p.Z) {
			return errors.Wrapf(ErrNonFiniteCoordinate, "%s cloud point %d (%v)", name, i, p)
		}
	}
	return nil
}

// Subset returns a new cloud holding copies of the points and colors at idxs, in order.
func (c *Cloud) Subset(idxs []int) *Cloud {
	out := &Cloud{Points: make([]r3.Vector, len(idxs)), Colors: make([]Color, len(idxs))}
	for i, idx := range idxs {
		out.Points[i] = c.Points[idx]
		out.Colors[i] = c.Colors[idx]
	}
	return out
}

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	Centroid r3.Vector

	totalX, totalY, totalZ float64
	count                  int
}

// NewMetaData creates a new MetaData with bounds that any point will widen.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the bounds and running centroid to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}

	meta.totalX += v.X
	meta.totalY += v.Y
	meta.totalZ += v.Z
	meta.count++
	n := float64(meta.count)
	meta.Centroid = r3.Vector{X: meta.totalX / n, Y: meta.totalY / n, Z: meta.totalZ / n}
}

// Diagonal returns the length of the bounding box diagonal.
func (meta *MetaData) Diagonal() float64 {
	if meta.count == 0 {
		return 0
	}
	return r3.Vector{X: meta.MaxX - meta.MinX, Y: meta.MaxY - meta.MinY, Z: meta.MaxZ - meta.MinZ}.Norm()
}

// MetaData returns the bounds and centroid of the cloud.
func (c *Cloud) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range c.Points {
		meta.Merge(p)
	}
	return meta
}
