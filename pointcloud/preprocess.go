package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// NewCloudFromFloats coerces loosely typed rows into a Cloud. Every row must have three
// entries. Colors may be given in [0, 255] or, when every channel of every color lies in
// [0, 1], as normalized values that are scaled by 255. Channels are truncated to uint8 after
// clamping into [0, 255].
func NewCloudFromFloats(points, colors [][]float64) (*Cloud, error) {
	if len(points) != len(colors) {
		return nil, NewShapeMismatchError("input", len(points), len(colors))
	}
	pts, err := PointsFromFloats(points)
	if err != nil {
		return nil, err
	}
	cols, err := ColorsFromFloats(colors)
	if err != nil {
		return nil, err
	}
	return NewCloud(pts, cols)
}

// PointsFromFloats converts rows of three coordinates into vectors.
func PointsFromFloats(points [][]float64) ([]r3.Vector, error) {
	out := make([]r3.Vector, len(points))
	for i, row := range points {
		if len(row) != 3 {
			return nil, errors.Errorf("point %d has %d coordinates, expected 3", i, len(row))
		}
		out[i] = r3.Vector{X: row[0], Y: row[1], Z: row[2]}
	}
	return out, nil
}

// ColorsFromFloats converts rows of three channels into 8-bit colors, scaling them by 255 when
// every channel lies in [0, 1].
func ColorsFromFloats(colors [][]float64) ([]Color, error) {
	scale := 1.
	if colorsAreNormalized(colors) {
		scale = 255
	}
	return colorsFromChannels(colors, scale)
}

// colorsFromChannels multiplies every channel by scale and truncates it into a uint8.
func colorsFromChannels(colors [][]float64, scale float64) ([]Color, error) {
	for i, row := range colors {
		if len(row) != 3 {
			return nil, errors.Errorf("color %d has %d channels, expected 3", i, len(row))
		}
	}
	out := make([]Color, len(colors))
	for i, row := range colors {
		out[i] = Color{
			R: channelToUint8(row[0] * scale),
			G: channelToUint8(row[1] * scale),
			B: channelToUint8(row[2] * scale),
		}
	}
	return out, nil
}

func colorsAreNormalized(colors [][]float64) bool {
	for _, row := range colors {
		for _, v := range row {
			if !(v >= 0 && v <= 1) {
				return false
			}
		}
	}
	return true
}

func channelToUint8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
