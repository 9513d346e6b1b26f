package storage

import (
	"time"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

type flightStatData struct {
	ImportRef       string
	FlightNumber    int
	DurationSeconds float64
	MaxDistanceM    float64
	MaxAltitudeM    float64
	MaxHSpeedMPS    float64
	MaxVSpeedMPS    float64
	TraveledM       float64
}

func toFlightStatData(importRef string, flight int, s *flightlog.FlightSummary) *flightStatData {
	return &flightStatData{
		ImportRef:       importRef,
		FlightNumber:    flight,
		DurationSeconds: s.Duration.Seconds(),
		MaxDistanceM:    s.MaxDistance,
		MaxAltitudeM:    s.MaxAltitude,
		MaxHSpeedMPS:    s.MaxHSpeed,
		MaxVSpeedMPS:    s.MaxVSpeedAbs,
		TraveledM:       s.Traveled,
	}
}

func (d *flightStatData) toFlightStat() *FlightStat {
	return &FlightStat{
		ImportRef:    d.ImportRef,
		FlightNumber: d.FlightNumber,
		Duration:     time.Duration(d.DurationSeconds * float64(time.Second)).Round(time.Millisecond),
		MaxDistance:  d.MaxDistanceM,
		MaxAltitude:  d.MaxAltitudeM,
		MaxHSpeed:    d.MaxHSpeedMPS,
		MaxVSpeed:    d.MaxVSpeedMPS,
		Traveled:     d.TraveledM,
	}
}
