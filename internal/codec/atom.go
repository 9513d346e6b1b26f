package codec

import (
	"io"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// Atom record layout. Offsets are given for the legacy layout; the new layout
// moves each of the three field groups towards the start of the record.
const (
	atomRecordID = 0
	atomElapsed  = 5

	// group 1: satellites and drone coordinates
	atomSatellites = 46
	atomDroneLon   = 49
	atomDroneLat   = 53

	// group 2: controller coordinates, distances, altitudes, speeds and status
	atomCtrlLon    = 159
	atomCtrlLat    = 163
	atomDist1Lat   = 235
	atomDist1Lon   = 239
	atomAlt1       = 243
	atomSpeed1Lat  = 247
	atomSpeed1Lon  = 251
	atomSpeed1Vert = 255
	atomConnected  = 271
	atomInUse      = 295
	atomHeading    = 299
	atomDist2Lat   = 319
	atomDist2Lon   = 323
	atomDist3Lat   = 327
	atomDist3Lon   = 331
	atomAlt2       = 343
	atomSpeed2Lat  = 347
	atomSpeed2Lon  = 351
	atomSpeed2Vert = 355
	atomGPSStatus  = 375

	// group 3: home point, motors and flight state
	atomHomeLon       = 469
	atomHomeLat       = 473
	atomMotor1        = 477
	atomAction        = 481
	atomPositionMode  = 482
	atomFlightMode    = 483
	atomRTH           = 484
	atomBattery       = 485
	atomFlightCounter = 486

	atomTrailer = FrameSize - 3
)

// atomLayout holds the offset deltas of the three field groups.
type atomLayout struct {
	group1, group2, group3 int
}

var (
	atomLegacyLayout = atomLayout{}
	atomNewLayout    = atomLayout{group1: -6, group2: -10, group3: -14}
)

// isNewAtomLayout inspects the record trailer: 03 03 00 marks the new layout,
// anything else (normally 00 00 00) is read as the legacy layout.
func isNewAtomLayout(b []byte) bool {
	t := b[atomTrailer:FrameSize]
	return t[0] == 0x03 && t[1] == 0x03 && t[2] == 0x00
}

// DecodeAtom decodes a single Atom record. The layout variant is detected for
// every record. Input shorter than FrameSize yields io.EOF.
func DecodeAtom(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, io.EOF
	}

	f := fields{b: b}

	var fr Frame
	fr.RecordID = f.u32(atomRecordID)
	fr.Elapsed = f.u64(atomElapsed)
	if fr.Elapsed == 0 {
		return Frame{}, ErrSkip
	}

	layout := atomLegacyLayout
	if isNewAtomLayout(b) {
		layout = atomNewLayout
		fr.NewLayout = true
	}

	f.shift = layout.group1
	fr.Satellites = f.u8(atomSatellites)
	fr.DroneLon = f.coord(atomDroneLon)
	fr.DroneLat = f.coord(atomDroneLat)

	f.shift = layout.group2
	fr.CtrlLon = f.coord(atomCtrlLon)
	fr.CtrlLat = f.coord(atomCtrlLat)
	fr.Dist1Lat = f.f32(atomDist1Lat)
	fr.Dist1Lon = f.f32(atomDist1Lon)
	fr.Alt1 = Round2(negate(f.f32(atomAlt1)))
	fr.Speed1Lat = f.f32(atomSpeed1Lat)
	fr.Speed1Lon = f.f32(atomSpeed1Lon)
	fr.Speed1Vert = negate(f.f32(atomSpeed1Vert))
	fr.Connected = f.u8(atomConnected)
	fr.InUse = f.u8(atomInUse)
	fr.Orientation = f.f32(atomHeading)
	fr.Dist2Lat = f.f32(atomDist2Lat)
	fr.Dist2Lon = f.f32(atomDist2Lon)
	fr.Dist3Lat = f.f32(atomDist3Lat)
	fr.Dist3Lon = f.f32(atomDist3Lon)
	fr.Alt2 = Round2(negate(f.f32(atomAlt2)))
	fr.Speed2Lat = f.f32(atomSpeed2Lat)
	fr.Speed2Lon = f.f32(atomSpeed2Lon)
	fr.Speed2Vert = negate(f.f32(atomSpeed2Vert))
	fr.GPSStatus = f.f32(atomGPSStatus)

	f.shift = layout.group3
	fr.HomeLon = f.coord(atomHomeLon)
	fr.HomeLat = f.coord(atomHomeLat)
	for i := range fr.Motors {
		fr.Motors[i] = f.u8(atomMotor1 + i)
	}
	fr.Action = f.u8(atomAction)
	fr.PositionCode = f.u8(atomPositionMode)
	fr.FlightCode = f.u8(atomFlightMode)
	fr.RTH = f.u8(atomRTH)
	fr.Battery = f.u8(atomBattery)
	fr.FlightCounter = f.u16(atomFlightCounter)

	fr.MotorStatus = flightlog.MotorStatusOf(fr.Motors)
	fr.Corrupt = f.corrupt

	return fr, nil
}

// negate flips the sign of values the drone stores pointing down.
func negate(v float64) float64 {
	return 0 - v
}
