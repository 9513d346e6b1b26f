package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// FrameSize is the size of a single flight controller record.
const FrameSize = 512

const (
	DialectAtom    Dialect = "atom"
	DialectDreamer Dialect = "dreamer"
)

// ErrSkip is returned for frames carrying a zero elapsed counter. Such frames
// are invalid and must not be emitted.
var ErrSkip = errors.New("invalid frame: zero elapsed counter")

// Dialect identifies the record layout family of a drone model.
type Dialect string

func (d Dialect) String() string {
	return string(d)
}

// DialectOf selects the dialect for a drone model label. The second result is
// false when the label matches neither dialect trigger, in which case Atom is
// returned as the default.
func DialectOf(model string) (Dialect, bool) {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "p1a"):
		return DialectDreamer, true
	case strings.Contains(m, "atom"):
		return DialectAtom, true
	default:
		return DialectAtom, false
	}
}

// Decode decodes a single frame in the dialect's layout.
func (d Dialect) Decode(b []byte) (Frame, error) {
	switch d {
	case DialectDreamer:
		return DecodeDreamer(b)
	default:
		return DecodeAtom(b)
	}
}

// Frame is the typed content of one flight controller record. Distances are
// in meters, speeds in m/s, coordinates in degrees.
type Frame struct {
	RecordID   uint32
	Elapsed    uint64 // Microseconds since the start of the file
	Satellites uint8

	DroneLat, DroneLon float64
	CtrlLat, CtrlLon   float64
	HomeLat, HomeLon   float64

	Dist1Lat, Dist1Lon float64
	Dist2Lat, Dist2Lon float64
	Dist3Lat, Dist3Lon float64

	Alt1, Alt2 float64

	Speed1Lat, Speed1Lon   float64
	Speed2Lat, Speed2Lon   float64
	Speed1Vert, Speed2Vert float64

	Orientation   float64
	Motors        [4]uint8
	Action        uint8
	PositionCode  uint8
	FlightCode    uint8
	RTH           uint8
	Battery       uint8
	FlightCounter uint16
	Connected     uint8
	GPSStatus     float64
	InUse         uint8

	MotorStatus flightlog.MotorStatus

	NewLayout bool // Atom frame stored in the new layout
	Corrupt   bool // At least one floating point field was not a finite number
}

func (f *Frame) Dist1() float64  { return magnitude(f.Dist1Lat, f.Dist1Lon) }
func (f *Frame) Dist2() float64  { return magnitude(f.Dist2Lat, f.Dist2Lon) }
func (f *Frame) Dist3() float64  { return magnitude(f.Dist3Lat, f.Dist3Lon) }
func (f *Frame) Speed1() float64 { return magnitude(f.Speed1Lat, f.Speed1Lon) }
func (f *Frame) Speed2() float64 { return magnitude(f.Speed2Lat, f.Speed2Lon) }

// DroneStatus maps the raw action and the motor status.
func (f *Frame) DroneStatus() flightlog.DroneStatus {
	return flightlog.DroneStatusOf(f.Action, f.MotorStatus)
}

// magnitude returns the length of the vector rounded to 2 decimals.
func magnitude(a, b float64) float64 {
	return Round2(math.Sqrt(a*a + b*b))
}

// Round2 rounds to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Reader reads consecutive frames of one flight controller file.
type Reader struct {
	r       io.Reader
	dialect Dialect
	buf     [FrameSize]byte
	offset  int64
}

// NewReader creates a frame reader decoding the given dialect.
func NewReader(r io.Reader, d Dialect) *Reader {
	return &Reader{r: r, dialect: d}
}

// Next reads and decodes the next frame. It returns io.EOF once fewer than
// FrameSize bytes remain, and ErrSkip for frames that must not be emitted;
// reading may continue after ErrSkip.
func (r *Reader) Next() (Frame, error) {
	n, err := io.ReadFull(r.r, r.buf[:])
	r.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("reading frame at offset %d: %w", r.offset-int64(n), err)
	}
	return r.dialect.Decode(r.buf[:])
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// fields reads little-endian values from a frame, shifting offsets by the
// active layout delta. Non-finite floats read as 0 and mark the frame corrupt.
type fields struct {
	b       []byte
	shift   int
	corrupt bool
}

func (f *fields) at(off, size int) []byte {
	off += f.shift
	return f.b[off : off+size]
}

func (f *fields) u8(off int) uint8 {
	return f.at(off, 1)[0]
}

func (f *fields) u16(off int) uint16 {
	return binary.LittleEndian.Uint16(f.at(off, 2))
}

func (f *fields) i16(off int) int16 {
	return int16(binary.LittleEndian.Uint16(f.at(off, 2)))
}

func (f *fields) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(f.at(off, 4))
}

func (f *fields) i32(off int) int32 {
	return int32(binary.LittleEndian.Uint32(f.at(off, 4)))
}

func (f *fields) u64(off int) uint64 {
	return binary.LittleEndian.Uint64(f.at(off, 8))
}

func (f *fields) f32(off int) float64 {
	v := float64(math.Float32frombits(binary.LittleEndian.Uint32(f.at(off, 4))))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		f.corrupt = true
		return 0
	}
	return v
}

// coord reads a coordinate stored as i32 scaled by 10^7.
func (f *fields) coord(off int) float64 {
	return float64(f.i32(off)) / 1e7
}
