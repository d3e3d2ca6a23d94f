package pointcloud

import (
	"fmt"
	"io"
	"strconv"

	"github.com/chenzhekl/goply"
	"github.com/pkg/errors"
)

var (
	plyPositionProps = [3]string{"x", "y", "z"}
	plyColorProps    = [3]string{"red", "green", "blue"}
)

// ReadPLY reads an ascii PLY file whose vertex element carries x, y, z and red, green, blue
// properties. Float colors in [0, 1] are scaled the same way NewCloudFromFloats does; integer
// colors are always taken as 8-bit channels.
func ReadPLY(in io.Reader) (cloud *Cloud, err error) {
	// goply reports malformed input by panicking.
	defer func() {
		if thePanic := recover(); thePanic != nil {
			cloud = nil
			err = errors.Errorf("invalid ply file: %v", thePanic)
		}
	}()

	ply := goply.New(in)
	vertices := ply.Elements("vertex")
	if len(vertices) == 0 {
		return nil, errors.New("ply file has no vertex element")
	}

	points := make([][]float64, len(vertices))
	colors := make([][]float64, len(vertices))
	floatColors := false
	for i := range vertices {
		points[i], _, err = plyProperties(&vertices[i], plyPositionProps)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		var isFloat bool
		colors[i], isFloat, err = plyProperties(&vertices[i], plyColorProps)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		floatColors = floatColors || isFloat
	}

	pts, err := PointsFromFloats(points)
	if err != nil {
		return nil, err
	}
	var cols []Color
	if floatColors {
		cols, err = ColorsFromFloats(colors)
	} else {
		cols, err = colorsFromChannels(colors, 1)
	}
	if err != nil {
		return nil, err
	}
	return NewCloud(pts, cols)
}

// plyProperties reads the named properties of elem and reports whether any of them is
// float-typed.
func plyProperties(elem *goply.PlyElement, names [3]string) ([]float64, bool, error) {
	out := make([]float64, len(names))
	anyFloat := false
	for i, name := range names {
		v, isFloat, err := plyNumber(elem.Property(name))
		if err != nil {
			return nil, false, errors.Wrapf(err, "property %q", name)
		}
		out[i] = v
		anyFloat = anyFloat || isFloat
	}
	return out, anyFloat, nil
}

func plyNumber(v interface{}) (float64, bool, error) {
	switch n := v.(type) {
	case int8:
		return float64(n), false, nil
	case uint8:
		return float64(n), false, nil
	case int16:
		return float64(n), false, nil
	case uint16:
		return float64(n), false, nil
	case int32:
		return float64(n), false, nil
	case uint32:
		return float64(n), false, nil
	case float32:
		return float64(n), true, nil
	case float64:
		return n, true, nil
	case nil:
		return 0, false, errors.New("missing")
	default:
		return 0, false, errors.Errorf("unsupported type %T", v)
	}
}

// WritePLY writes the cloud as an ascii PLY file with double coordinates and uchar colors.
func WritePLY(cloud *Cloud, out io.Writer) error {
	if _, err := fmt.Fprintf(out, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property double x\n"+
		"property double y\n"+
		"property double z\n"+
		"property uchar red\n"+
		"property uchar green\n"+
		"property uchar blue\n"+
		"end_header\n", cloud.Size()); err != nil {
		return err
	}
	for i, p := range cloud.Points {
		c := cloud.Colors[i]
		if _, err := fmt.Fprintf(out, "%s %s %s %d %d %d\n",
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Z, 'g', -1, 64),
			c.R, c.G, c.B); err != nil {
			return err
		}
	}
	return nil
}
