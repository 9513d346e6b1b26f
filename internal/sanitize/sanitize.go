package sanitize

import (
	"math"
)

const (
	// EarthRadius is the mean earth radius in kilometers used for
	// great-circle distances.
	EarthRadius = 6367.0

	// Unusable is the sanity distance reported when it cannot be computed.
	Unusable = 9999.0

	// MaxSanityDistance is the distance in kilometers from the reference
	// point beyond which drone coordinates are rejected.
	MaxSanityDistance = 20.0
)

// Coords is a latitude, longitude pair in degrees.
type Coords struct {
	Lat, Lon float64
}

// Present reports whether both components are set.
func (c Coords) Present() bool {
	return c.Lat != 0 && c.Lon != 0
}

// Position holds the three coordinate pairs of a frame.
type Position struct {
	Drone      Coords
	Home       Coords
	Controller Coords
}

// Reference returns the point the drone position is checked against: home
// when present, otherwise the controller.
func (p Position) Reference() (Coords, bool) {
	switch {
	case p.Home.Present():
		return p.Home, true
	case p.Controller.Present():
		return p.Controller, true
	default:
		return Coords{}, false
	}
}

// SanityDistance is the great-circle distance in kilometers between the drone
// and the reference point. It returns Unusable for non-finite input or output.
func (p Position) SanityDistance() float64 {
	ref, _ := p.Reference()

	d := Haversine(p.Drone, ref)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Unusable
	}
	return d
}

// Valid reports whether the drone position can be used: the drone and at
// least one reference point are present, and the drone is within
// MaxSanityDistance of the reference.
func (p Position) Valid() bool {
	if !p.Drone.Present() {
		return false
	}
	if _, ok := p.Reference(); !ok {
		return false
	}
	return p.SanityDistance() < MaxSanityDistance
}

// Haversine returns the great-circle distance between a and b in kilometers.
// Non-finite input yields NaN.
func Haversine(a, b Coords) float64 {
	for _, v := range []float64{a.Lat, a.Lon, b.Lat, b.Lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN()
		}
	}

	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(math.Min(1, h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
