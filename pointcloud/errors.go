package pointcloud

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyCloud is returned when a cloud without points is used for computation.
	ErrEmptyCloud = errors.New("point cloud has no points")
	// ErrNonFiniteCoordinate is returned when a coordinate is NaN or infinite.
	ErrNonFiniteCoordinate = errors.New("point coordinate is not finite")
)

// ShapeMismatchError reports a cloud whose point and color counts differ.
type ShapeMismatchError struct {
	Cloud  string
	Points int
	Colors int
}

// NewShapeMismatchError returns a ShapeMismatchError for the named cloud.
func NewShapeMismatchError(cloud string, points, colors int) error {
	return &ShapeMismatchError{Cloud: cloud, Points: points, Colors: colors}
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s cloud shape mismatch: %d points but %d colors", e.Cloud, e.Points, e.Colors)
}

// InvalidIndexError reports a query for a point index outside of a cloud.
type InvalidIndexError struct {
	Index int
	Size  int
}

// NewInvalidIndexError returns an InvalidIndexError.
func NewInvalidIndexError(index, size int) error {
	return &InvalidIndexError{Index: index, Size: size}
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("point index %d out of range [0, %d)", e.Index, e.Size)
}
