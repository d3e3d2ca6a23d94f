package pointcloud

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewCloudValidation(t *testing.T) {
	_, err := NewCloud([]r3.Vector{{}, {X: 1}}, []Color{{}})
	var shape *ShapeMismatchError
	test.That(t, errors.As(err, &shape), test.ShouldBeTrue)
	test.That(t, shape.Points, test.ShouldEqual, 2)
	test.That(t, shape.Colors, test.ShouldEqual, 1)
	test.That(t, err.Error(), test.ShouldEqual, "cloud cloud shape mismatch: 2 points but 1 colors")

	_, err = NewCloud(nil, nil)
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)

	_, err = NewCloud([]r3.Vector{{X: math.NaN()}}, []Color{{}})
	test.That(t, errors.Is(err, ErrNonFiniteCoordinate), test.ShouldBeTrue)

	_, err = NewCloud([]r3.Vector{{Z: math.Inf(-1)}}, []Color{{}})
	test.That(t, errors.Is(err, ErrNonFiniteCoordinate), test.ShouldBeTrue)

	c, err := NewCloud([]r3.Vector{{X: 1}}, []Color{{1, 2, 3}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Size(), test.ShouldEqual, 1)
}

func TestMetaData(t *testing.T) {
	c := &Cloud{
		Points: []r3.Vector{{X: -1, Y: 0, Z: 2}, {X: 3, Y: 4, Z: 0}},
		Colors: []Color{{}, {}},
	}
	meta := c.MetaData()
	test.That(t, meta.MinX, test.ShouldEqual, -1.)
	test.That(t, meta.MaxX, test.ShouldEqual, 3.)
	test.That(t, meta.MinY, test.ShouldEqual, 0.)
	test.That(t, meta.MaxY, test.ShouldEqual, 4.)
	test.That(t, meta.MinZ, test.ShouldEqual, 0.)
	test.That(t, meta.MaxZ, test.ShouldEqual, 2.)
	test.That(t, meta.Centroid, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 1})
	test.That(t, meta.Diagonal(), test.ShouldAlmostEqual, 6)

	empty := NewMetaData()
	test.That(t, empty.Diagonal(), test.ShouldEqual, 0.)
}

func TestSubsetAndPermute(t *testing.T) {
	c := MakeTestCloud(10, 1)
	sub := c.Subset([]int{3, 1})
	test.That(t, sub.Points, test.ShouldResemble, []r3.Vector{c.Points[3], c.Points[1]})
	test.That(t, sub.Colors, test.ShouldResemble, []Color{c.Colors[3], c.Colors[1]})

	permuted, perm := Permute(c, 9)
	test.That(t, perm, test.ShouldHaveLength, 10)
	for i, src := range perm {
		test.That(t, permuted.Points[i], test.ShouldResemble, c.Points[src])
		test.That(t, permuted.Colors[i], test.ShouldResemble, c.Colors[src])
	}

	noisy := Perturb(c, 0.1, 4)
	test.That(t, noisy.Colors, test.ShouldResemble, c.Colors)
	test.That(t, noisy.Points, test.ShouldNotResemble, c.Points)
	test.That(t, Perturb(c, 0.1, 4), test.ShouldResemble, noisy)
	test.That(t, Perturb(c, 0, 4).Points, test.ShouldResemble, c.Points)
}

func TestNewCloudFromFloats(t *testing.T) {
	c, err := NewCloudFromFloats(
		[][]float64{{0, 0, 0}, {1, 2, 3}},
		[][]float64{{1, 0.5, 0}, {0, 0.25, 1}},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Colors, test.ShouldResemble, []Color{{255, 127, 0}, {0, 63, 255}})
	test.That(t, c.Points[1], test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	// any value above 1 means the colors are already 8-bit
	c, err = NewCloudFromFloats(
		[][]float64{{0, 0, 0}, {1, 2, 3}},
		[][]float64{{1, 0.5, 0}, {200.9, 300, -4}},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Colors, test.ShouldResemble, []Color{{1, 0, 0}, {200, 255, 0}})

	_, err = NewCloudFromFloats([][]float64{{0, 0, 0}}, nil)
	var shape *ShapeMismatchError
	test.That(t, errors.As(err, &shape), test.ShouldBeTrue)
	test.That(t, shape.Cloud, test.ShouldEqual, "input")

	_, err = NewCloudFromFloats([][]float64{{0, 0}}, [][]float64{{0, 0, 0}})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewCloudFromFloats([][]float64{{0, 0, 0}}, [][]float64{{0, 0}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColorSpaces(t *testing.T) {
	white := Color{255, 255, 255}
	black := Color{0, 0, 0}
	red := Color{255, 0, 0}

	test.That(t, ColorSpaceRGB.Convert(red), test.ShouldResemble, [3]float64{255, 0, 0})

	test.That(t, ColorSpaceYCbCr.Convert(white), test.ShouldResemble, [3]float64{255, 128, 128})
	test.That(t, ColorSpaceYCbCr.Convert(black), test.ShouldResemble, [3]float64{0, 128, 128})
	// Cr saturates
	test.That(t, ColorSpaceYCbCr.Convert(red), test.ShouldResemble, [3]float64{54, 99, 255})

	lab := ColorSpaceLab.Convert(white)
	test.That(t, lab[0], test.ShouldAlmostEqual, 100, 0.01)
	test.That(t, lab[1], test.ShouldAlmostEqual, 0, 0.01)
	test.That(t, lab[2], test.ShouldAlmostEqual, 0, 0.01)
	// go-colorful's D65 constants leave black a few hundredths off the origin
	for _, v := range ColorSpaceLab.Convert(black) {
		test.That(t, v, test.ShouldAlmostEqual, 0, 0.05)
	}

	all := ColorSpaceYCbCr.ConvertAll([]Color{white, black})
	test.That(t, all, test.ShouldResemble, [][3]float64{{255, 128, 128}, {0, 128, 128}})

	for _, name := range []string{"rgb", "ycbcr", "lab"} {
		cs, err := ParseColorSpace(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(cs), test.ShouldEqual, name)
	}
	cs, err := ParseColorSpace("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs, test.ShouldEqual, ColorSpaceYCbCr)
	_, err = ParseColorSpace("hsv")
	test.That(t, err, test.ShouldNotBeNil)
}
