package pointcloud

import (
	"fmt"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/pointpca/logging"
)

const (
	// Float64 has 52 bits of mantissa; LAS stores scaled integers, so coordinates past this
	// range cannot be represented exactly.
	maxPreciseFloat64 = float64(1 << 53)
	minPreciseFloat64 = -maxPreciseFloat64
)

// NewFromLASFile returns a point cloud from reading a LAS file. Only point format 2 carries
// color, which is required. If any lossiness of points could occur from reading it in, it's
// reported but is not an error.
func NewFromLASFile(fn string, logger logging.Logger) (*Cloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	if lf.Header.PointFormatID != 2 {
		return nil, errors.Errorf("LAS point format %d has no color, expected format 2", lf.Header.PointFormatID)
	}

	pc := newCloudWithPrealloc(uint64(lf.Header.NumberPoints))
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()

		x, y, z := data.X, data.Y, data.Z
		if x < minPreciseFloat64 || x > maxPreciseFloat64 ||
			y < minPreciseFloat64 || y > maxPreciseFloat64 ||
			z < minPreciseFloat64 || z > maxPreciseFloat64 {
			logger.Warnw("potential floating point lossiness for LAS point",
				"point", data, "range", fmt.Sprintf("[%f,%f]", minPreciseFloat64, maxPreciseFloat64))
		}

		rgb := p.RgbData()
		if rgb == nil {
			return nil, errors.Errorf("LAS point %d has no color", i)
		}
		pc.Points = append(pc.Points, r3.Vector{X: x, Y: y, Z: z})
		pc.Colors = append(pc.Colors, Color{
			R: uint8(rgb.Red / 256),
			G: uint8(rgb.Green / 256),
			B: uint8(rgb.Blue / 256),
		})
	}
	return pc, nil
}

// WriteToLASFile writes the point cloud out to a LAS file using point format 2.
func WriteToLASFile(cloud *Cloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: 2,
	}); err != nil {
		return
	}

	for i, pos := range cloud.Points {
		c := cloud.Colors[i]
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			ScanAngle:     0,
			UserData:      0,
			PointSourceID: 1,
		}
		lp := &lidario.PointRecord2{
			PointRecord0: pr0,
			RGB: &lidario.RgbData{
				Red:   uint16(c.R) * 256,
				Green: uint16(c.G) * 256,
				Blue:  uint16(c.B) * 256,
			},
		}
		if err = lf.AddLasPoint(lp); err != nil {
			return errors.Wrapf(err, "writing point %d", i)
		}
	}
	return nil
}
