package segment

import (
	"time"

	"github.com/paulmach/go.geo"

	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/sanitize"
)

// MaxSegmentPoints is the number of points after which a path segment is
// closed and a new one is started.
const MaxSegmentPoints = 200

// Sample is the part of a sanitized frame the segmenter works on.
type Sample struct {
	Row         int // Index of the row about to be emitted
	Timestamp   time.Time
	MotorStatus flightlog.MotorStatus
	ValidCoords bool
	Lat, Lon    float64 // Drone position
}

// Step is the flight membership of a single row.
type Step struct {
	FlightNumber    int           // 0 when the row is not part of a flight path
	ElapsedInFlight time.Duration // Time since the flight opened, ms precision
	Traveled        float64       // Meters travelled since the flight opened
}

// Segmenter splits a stream of frames into flights using motor state
// transitions, and builds the path of every flight.
type Segmenter struct {
	flying   bool
	paths    []flightlog.Polyline
	current  flightlog.Polyline
	last     *geo.Point
	firstTS  time.Time
	traveled float64

	starts []int
	ends   []int
}

func New() *Segmenter {
	return &Segmenter{}
}

// Feed advances the segmenter by one frame.
func (s *Segmenter) Feed(in Sample) Step {
	var changed bool

	switch {
	case s.flying && in.MotorStatus == flightlog.MotorOff:
		changed = true
		s.flying = false
		s.reset()
	case !s.flying && in.MotorStatus == flightlog.MotorLift:
		// the flight clock starts at the take-off frame
		changed = true
		s.flying = true
		s.reset()
	case !s.flying:
		s.reset()
	}

	if changed && s.current.Points() > 0 {
		s.flush()
	}

	if s.firstTS.IsZero() {
		s.firstTS = in.Timestamp
	}

	var step Step
	step.ElapsedInFlight = in.Timestamp.Sub(s.firstTS).Truncate(time.Millisecond)

	if s.flying && in.ValidCoords {
		step.FlightNumber = len(s.paths) + 1
		s.push(geo.NewPoint(in.Lon, in.Lat))
		s.mark(step.FlightNumber, in.Row)
	}

	step.Traveled = s.traveled
	return step
}

// Flying reports whether a flight is open.
func (s *Segmenter) Flying() bool {
	return s.flying
}

// Finish closes the open path and returns the paths of all flights together
// with the first and last row index of every flight.
func (s *Segmenter) Finish() (paths []flightlog.Polyline, starts, ends []int) {
	if s.current.Points() > 0 {
		s.flush()
	}
	return s.paths, s.starts, s.ends
}

func (s *Segmenter) reset() {
	s.firstTS = time.Time{}
	s.traveled = 0
}

func (s *Segmenter) flush() {
	s.paths = append(s.paths, s.current)
	s.current = nil
	s.last = nil
}

// push appends a point to the last segment of the open path. Repeated
// positions are dropped. A full segment is continued by a new one starting at
// its last point.
func (s *Segmenter) push(p *geo.Point) {
	if len(s.current) == 0 {
		s.current = append(s.current, geo.NewPath())
	}

	seg := s.current[len(s.current)-1]
	if seg.Length() > 0 && seg.Last().Equals(p) {
		return
	}

	if seg.Length() >= MaxSegmentPoints {
		tail := geo.NewPoint(seg.Last().Lng(), seg.Last().Lat())
		seg = geo.NewPath()
		seg.Push(tail)
		s.current = append(s.current, seg)
	}

	seg.Push(p)

	if s.last != nil {
		s.traveled += sanitize.Haversine(
			sanitize.Coords{Lat: s.last.Lat(), Lon: s.last.Lng()},
			sanitize.Coords{Lat: p.Lat(), Lon: p.Lng()},
		) * 1000
	}
	s.last = p
}

func (s *Segmenter) mark(flight, row int) {
	if flight > len(s.starts) {
		s.starts = append(s.starts, row)
		s.ends = append(s.ends, row)
		return
	}
	s.ends[flight-1] = row
}
