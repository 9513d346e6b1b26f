package codec

import (
	"io"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// Dreamer record layout.
const (
	dreamerRecordID   = 0
	dreamerSatellites = 7
	dreamerElapsed    = 33 // milliseconds
	dreamerDist1Lat   = 37
	dreamerAlt1       = 39
	dreamerDist1Lon   = 41
	dreamerDist2Lat   = 57
	dreamerAlt2       = 59
	dreamerDist2Lon   = 61
	dreamerDroneLat   = 145
	dreamerDroneLon   = 149
)

const (
	dreamerActionOff    = 0
	dreamerActionFlying = 2
)

// DecodeDreamer decodes a single Dreamer record. Dreamer records carry no
// motor states; the drone is considered lifted whenever the first reported
// distance is non-zero. Input shorter than FrameSize yields io.EOF.
func DecodeDreamer(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, io.EOF
	}

	f := fields{b: b}

	var fr Frame
	fr.RecordID = f.u32(dreamerRecordID)
	fr.Elapsed = uint64(f.u32(dreamerElapsed)) * 1000
	if fr.Elapsed == 0 {
		return Frame{}, ErrSkip
	}

	fr.Satellites = f.u8(dreamerSatellites)
	fr.Dist1Lat = decimeters(f.i16(dreamerDist1Lat))
	fr.Alt1 = decimeters(f.i16(dreamerAlt1))
	fr.Dist1Lon = decimeters(f.i16(dreamerDist1Lon))
	fr.Dist2Lat = decimeters(f.i16(dreamerDist2Lat))
	fr.Alt2 = decimeters(f.i16(dreamerAlt2))
	fr.Dist2Lon = decimeters(f.i16(dreamerDist2Lon))

	// the distance from home is the first reported distance
	fr.Dist3Lat, fr.Dist3Lon = fr.Dist1Lat, fr.Dist1Lon

	fr.DroneLat = f.f32(dreamerDroneLat)
	fr.DroneLon = f.f32(dreamerDroneLon)

	// no GPS status field, a fix is assumed once satellites are reported
	fr.GPSStatus = -1
	if fr.Satellites > 0 {
		fr.GPSStatus = 0
	}
	fr.Connected = 1

	if fr.Dist1() == 0 {
		fr.MotorStatus = flightlog.MotorOff
		fr.Action = dreamerActionOff
	} else {
		fr.MotorStatus = flightlog.MotorLift
		fr.Action = dreamerActionFlying
	}
	fr.Corrupt = f.corrupt

	return fr, nil
}

func decimeters(v int16) float64 {
	return float64(v) / 10
}
