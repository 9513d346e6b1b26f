package stats

import (
	"math"
	"time"

	"github.com/paulmach/go.geo"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// flight is the running statistics of one flight.
type flight struct {
	maxDistance  float64
	maxAltitude  float64
	maxHSpeed    float64
	maxVSpeedAbs float64
	duration     time.Duration
	traveled     float64
	bound        *geo.Bound
}

// Aggregator keeps per-flight statistics updated row by row.
type Aggregator struct {
	flights map[int]*flight
	last    int
}

func New() *Aggregator {
	return &Aggregator{flights: make(map[int]*flight)}
}

// Update folds a row into the statistics of its flight. Rows outside of a
// flight are ignored.
func (a *Aggregator) Update(r *flightlog.Reading) {
	if r.FlightNumber <= 0 {
		return
	}

	p := geo.NewPoint(r.DroneLon, r.DroneLat)

	f, ok := a.flights[r.FlightNumber]
	if !ok {
		f = &flight{bound: geo.NewBoundFromPoints(p, p)}
		a.flights[r.FlightNumber] = f
		a.last = max(a.last, r.FlightNumber)
	}

	f.maxDistance = max(f.maxDistance, r.Dist3)
	f.maxAltitude = max(f.maxAltitude, r.Alt2)
	f.maxHSpeed = max(f.maxHSpeed, r.Speed2)
	f.maxVSpeedAbs = max(f.maxVSpeedAbs, math.Abs(r.Speed2Vert))
	f.duration = r.ElapsedInFlight
	f.traveled = r.Traveled
	f.bound.Extend(p)
}

// Flights returns the highest flight number seen.
func (a *Aggregator) Flights() int {
	return a.last
}

// Summaries returns the statistics of every flight at the index of its flight
// number. Index 0 combines all flights: durations and distances travelled are
// summed, extremes are combined.
func (a *Aggregator) Summaries() []flightlog.FlightSummary {
	out := make([]flightlog.FlightSummary, a.last+1)

	var overall *geo.Bound
	total := &out[0]

	for n := 1; n <= a.last; n++ {
		f, ok := a.flights[n]
		if !ok {
			continue
		}

		out[n] = f.summary()

		total.MaxDistance = max(total.MaxDistance, f.maxDistance)
		total.MaxAltitude = max(total.MaxAltitude, f.maxAltitude)
		total.MaxHSpeed = max(total.MaxHSpeed, f.maxHSpeed)
		total.MaxVSpeedAbs = max(total.MaxVSpeedAbs, f.maxVSpeedAbs)
		total.Duration += f.duration
		total.Traveled += f.traveled

		sw := geo.NewPoint(f.bound.West(), f.bound.South())
		ne := geo.NewPoint(f.bound.East(), f.bound.North())
		if overall == nil {
			overall = geo.NewBoundFromPoints(sw, ne)
		} else {
			overall.Extend(sw).Extend(ne)
		}
	}

	if overall != nil {
		setBounds(total, overall)
	}

	return out
}

func (f *flight) summary() flightlog.FlightSummary {
	s := flightlog.FlightSummary{
		MaxDistance:  f.maxDistance,
		MaxAltitude:  f.maxAltitude,
		MaxHSpeed:    f.maxHSpeed,
		MaxVSpeedAbs: f.maxVSpeedAbs,
		Duration:     f.duration,
		Traveled:     f.traveled,
	}
	setBounds(&s, f.bound)
	return s
}

func setBounds(s *flightlog.FlightSummary, b *geo.Bound) {
	s.MinLat = b.South()
	s.MaxLat = b.North()
	s.MinLon = b.West()
	s.MaxLon = b.East()
}
