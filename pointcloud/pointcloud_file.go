package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/pointpca/logging"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// NewFromFile returns a point cloud read in from the given file. The format is chosen by
// extension: .pcd, .ply or .las.
func NewFromFile(fn string, logger logging.Logger) (*Cloud, error) {
	var cloud *Cloud
	var err error
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		cloud, err = NewFromLASFile(fn, logger)
	case ".pcd":
		cloud, err = readFileWith(fn, ReadPCD)
	case ".ply":
		cloud, err = readFileWith(fn, ReadPLY)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", fn)
	}
	logger.Debugw("read point cloud", "file", fn, "points", cloud.Size())
	return cloud, nil
}

// WriteToFile writes the cloud to fn in the format implied by its extension.
func WriteToFile(cloud *Cloud, fn string) (err error) {
	ext := strings.ToLower(filepath.Ext(fn))
	if ext == ".las" {
		return WriteToLASFile(cloud, fn)
	}
	if ext != ".pcd" && ext != ".ply" {
		return errors.Errorf("do not know how to write file %q", fn)
	}

	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if ext == ".pcd" {
		err = WritePCD(cloud, w, PCDBinary)
	} else {
		err = WritePLY(cloud, w)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

func readFileWith(fn string, read func(io.Reader) (*Cloud, error)) (*Cloud, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Global().Warnw("failed to close point cloud file", "file", fn, "error", cerr)
		}
	}()
	return read(f)
}

func colorToPCDInt(c Color) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func pcdIntToColor(c uint32) Color {
	return Color{
		R: uint8(0xFF & (c >> 16)),
		G: uint8(0xFF & (c >> 8)),
		B: uint8(0xFF & (c >> 0)),
	}
}

// WritePCD writes the cloud as PCD v0.7 with double precision coordinates and a packed rgb
// field.
func WritePCD(cloud *Cloud, out io.Writer, outputType PCDType) error {
	if outputType == PCDCompressed {
		return errors.New("compressed PCD not yet implemented")
	}
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z rgb\n"+
		"SIZE 8 8 8 4\n"+
		"TYPE F F F U\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		cloud.Size(),
		1,
		cloud.Size())
	if err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(out, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(out, "DATA ascii\n")
	default:
		return errors.Errorf("unsupported pcd data type %v", outputType)
	}
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud *Cloud, out io.Writer, pcdtype PCDType) error {
	buf := make([]byte, 28)
	for i, pos := range cloud.Points {
		c := colorToPCDInt(cloud.Colors[i])
		var err error
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint64(buf, math.Float64bits(pos.X))
			binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(pos.Y))
			binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(pos.Z))
			binary.LittleEndian.PutUint32(buf[24:], c)
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%s %s %s %d\n",
				strconv.FormatFloat(pos.X, 'g', -1, 64),
				strconv.FormatFloat(pos.Y, 'g', -1, 64),
				strconv.FormatFloat(pos.Z, 'g', -1, 64),
				c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type pcdValType string

const (
	pcdValFloat pcdValType = "F"
	pcdValInt   pcdValType = "I"
	pcdValUInt  pcdValType = "U"
)

const pcdFieldCount = 4

type pcdHeader struct {
	size      []uint64
	type_     []pcdValType //nolint:revive
	count     []uint64
	width     uint64
	height    uint64
	viewpoint [7]float64
	points    uint64
	data      PCDType
}

// PCDCommentChar starts a comment anywhere in a PCD header line.
const PCDCommentChar = "#"

// PCDHeaderFields are the header lines of a PCD file, in the order they must appear.
var PCDHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, pcdHeader *pcdHeader) error {
	var err error
	name := PCDHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if value != "x y z rgb" {
			return errors.Errorf("unsupported pcd fields %q, colored points need \"x y z rgb\"", value)
		}
	case "SIZE":
		if len(tokens) != pcdFieldCount {
			return errors.New("unexpected number of fields in SIZE line")
		}
		pcdHeader.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			pcdHeader.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
			if pcdHeader.size[i] != 4 && pcdHeader.size[i] != 8 {
				return errors.Errorf("unsupported SIZE %d, expected 4 or 8", pcdHeader.size[i])
			}
		}
	case "TYPE":
		if len(tokens) != pcdFieldCount {
			return errors.New("unexpected number of fields in TYPE line")
		}
		pcdHeader.type_ = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			switch t := pcdValType(token); t {
			case pcdValFloat, pcdValInt, pcdValUInt:
				pcdHeader.type_[i] = t
			default:
				return errors.Errorf("invalid TYPE field %s", token)
			}
		}
		for i := 0; i < 3; i++ {
			if pcdHeader.type_[i] != pcdValFloat {
				return errors.New("coordinates must have TYPE F")
			}
		}
	case "COUNT":
		if len(tokens) != pcdFieldCount {
			return errors.New("unexpected number of fields in COUNT line")
		}
		pcdHeader.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			pcdHeader.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid COUNT field %s: %s", token, err)
			}
			if pcdHeader.count[i] != 1 {
				return errors.Errorf("unsupported COUNT %d", pcdHeader.count[i])
			}
		}
	case "WIDTH":
		pcdHeader.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid WIDTH field %s: %s", value, err)
		}
	case "HEIGHT":
		pcdHeader.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid HEIGHT field %s: %s", value, err)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		for i, token := range tokens {
			pcdHeader.viewpoint[i], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return errors.Errorf("invalid VIEWPOINT field %s: %s", token, err)
			}
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if points != pcdHeader.width*pcdHeader.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, pcdHeader.width*pcdHeader.height)
		}
		pcdHeader.points = points
	case "DATA":
		switch value {
		case "ascii":
			pcdHeader.data = PCDAscii
		case "binary":
			pcdHeader.data = PCDBinary
		case "binary_compressed":
			pcdHeader.data = PCDCompressed
		default:
			return errors.Errorf("unknown DATA type %s", value)
		}
	}

	return nil
}

// ReadPCD reads a colored PCD file (fields x y z rgb) in ascii or binary form.
func ReadPCD(inRaw io.Reader) (*Cloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(PCDHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Errorf("error reading header line %d: %s", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, PCDCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

// maxPCDPrealloc bounds how many points are allocated up front from a header's POINTS count;
// larger clouds grow as they are read.
const maxPCDPrealloc = 1 << 20

func newCloudWithPrealloc(points uint64) *Cloud {
	n := maxPCDPrealloc
	if points < uint64(n) {
		n = int(points)
	}
	return &Cloud{Points: make([]r3.Vector, 0, n), Colors: make([]Color, 0, n)}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	pc := newCloudWithPrealloc(header.points)
	for i := uint64(0); i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != pcdFieldCount {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		var pos [3]float64
		for j := 0; j < 3; j++ {
			pos[j], err = strconv.ParseFloat(tokens[j], 64)
			if err != nil {
				return nil, errors.Errorf("invalid point %d field %s: %s", i, tokens[j], err)
			}
		}
		rgb, err := parsePCDColorToken(tokens[3], header.type_[3])
		if err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		pc.Points = append(pc.Points, r3.Vector{X: pos[0], Y: pos[1], Z: pos[2]})
		pc.Colors = append(pc.Colors, pcdIntToColor(rgb))
	}
	return pc, nil
}

// parsePCDColorToken accepts packed rgb written as an integer or, as PCL does, as the float
// whose bits hold the packed value.
func parsePCDColorToken(token string, valType pcdValType) (uint32, error) {
	if valType == pcdValFloat {
		f, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return 0, errors.Errorf("invalid rgb field %s: %s", token, err)
		}
		return math.Float32bits(float32(f)), nil
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid rgb field %s: %s", token, err)
	}
	return uint32(v), nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	pc := newCloudWithPrealloc(header.points)
	buf := make([]byte, 8)
	for i := uint64(0); i < header.points; i++ {
		var pos [3]float64
		var rgb uint32
		for j := 0; j < pcdFieldCount; j++ {
			size := header.size[j]
			if _, err := io.ReadFull(in, buf[:size]); err != nil {
				return nil, errors.Wrapf(err, "reading point %d", i)
			}
			if j < 3 {
				if size == 8 {
					pos[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
				} else {
					pos[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
				}
				continue
			}
			// packed rgb is four bytes regardless of its declared type
			rgb = binary.LittleEndian.Uint32(buf)
		}
		pc.Points = append(pc.Points, r3.Vector{X: pos[0], Y: pos[1], Z: pos[2]})
		pc.Colors = append(pc.Colors, pcdIntToColor(rgb))
	}
	return pc, nil
}
