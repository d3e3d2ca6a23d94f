package pointcloud

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// MakeTestCloud creates a cloud of n points uniformly spread in the unit cube with random
// colors. The same seed always gives the same cloud.
func MakeTestCloud(n int, seed int64) *Cloud {
	//nolint:gosec
	r := rand.New(rand.NewSource(seed))
	c := &Cloud{Points: make([]r3.Vector, n), Colors: make([]Color, n)}
	for i := 0; i < n; i++ {
		c.Points[i] = r3.Vector{X: r.Float64(), Y: r.Float64(), Z: r.Float64()}
		c.Colors[i] = Color{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256))}
	}
	return c
}

// MakeTestSurface creates n points on a gently curved surface z = 0.1*sin(3x)*cos(2y) over the
// unit square, colored by position. Neighborhoods on it are well conditioned.
func MakeTestSurface(n int, seed int64) *Cloud {
	//nolint:gosec
	r := rand.New(rand.NewSource(seed))
	c := &Cloud{Points: make([]r3.Vector, n), Colors: make([]Color, n)}
	for i := 0; i < n; i++ {
		x, y := r.Float64(), r.Float64()
		c.Points[i] = r3.Vector{X: x, Y: y, Z: 0.1 * math.Sin(3*x) * math.Cos(2*y)}
		c.Colors[i] = Color{R: uint8(255 * x), G: uint8(255 * y), B: uint8(r.Intn(64) + 96)}
	}
	return c
}
