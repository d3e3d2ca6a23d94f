package pointcloud

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ColorSpace selects how 8-bit colors are turned into the three float channels that color
// statistics are computed over. A single space must be used for both clouds of a comparison.
type ColorSpace string

const (
	// ColorSpaceRGB keeps the channels as given.
	ColorSpaceRGB ColorSpace = "rgb"
	// ColorSpaceYCbCr is BT.709 luma with chroma offset by 128, rounded to whole values.
	ColorSpaceYCbCr ColorSpace = "ycbcr"
	// ColorSpaceLab is CIE L*a*b* with a D65 white reference.
	ColorSpaceLab ColorSpace = "lab"
)

// bt709 rows produce Y, Cb and Cr.
var bt709 = [3][3]float64{
	{0.2126, 0.7152, 0.0722},
	{-0.1146, -0.3854, 0.5000},
	{0.5000, -0.4542, -0.0468},
}

var bt709Offset = [3]float64{0, 128, 128}

// ParseColorSpace returns the named color space. The empty string means ycbcr.
func ParseColorSpace(name string) (ColorSpace, error) {
	switch ColorSpace(name) {
	case "":
		return ColorSpaceYCbCr, nil
	case ColorSpaceRGB, ColorSpaceYCbCr, ColorSpaceLab:
		return ColorSpace(name), nil
	default:
		return "", errors.Errorf("unknown color space %q, expected one of rgb, ycbcr, lab", name)
	}
}

// Convert maps c into the color space.
func (cs ColorSpace) Convert(c Color) [3]float64 {
	switch cs {
	case ColorSpaceRGB:
		return [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	case ColorSpaceLab:
		l, a, b := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Lab()
		// scale L to [0, 100] like the common convention; a and b follow.
		return [3]float64{l * 100, a * 100, b * 100}
	default:
		rgb := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
		var out [3]float64
		for i := 0; i < 3; i++ {
			v := bt709[i][0]*rgb[0] + bt709[i][1]*rgb[1] + bt709[i][2]*rgb[2] + bt709Offset[i]
			out[i] = math.Max(0, math.Min(255, math.Round(v)))
		}
		return out
	}
}

// ConvertAll maps every color into the color space.
func (cs ColorSpace) ConvertAll(colors []Color) [][3]float64 {
	out := make([][3]float64, len(colors))
	for i, c := range colors {
		out[i] = cs.Convert(c)
	}
	return out
}
