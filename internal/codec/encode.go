package codec

import (
	"encoding/binary"
	"math"
)

// EncodeAtom writes a frame in the Atom layout. It is the inverse of
// DecodeAtom for the stored fields.
//
// The encoders build synthetic flight controller files for tests of this and
// the dependent packages (decoder, tools); the companion app is the only
// writer of real logs.
func EncodeAtom(fr Frame) []byte {
	b := make([]byte, FrameSize)
	w := writer{b: b}

	layout := atomLegacyLayout
	if fr.NewLayout {
		layout = atomNewLayout
		copy(b[atomTrailer:], []byte{0x03, 0x03, 0x00})
	}

	w.u32(atomRecordID, fr.RecordID)
	w.u64(atomElapsed, fr.Elapsed)

	w.shift = layout.group1
	w.u8(atomSatellites, fr.Satellites)
	w.coord(atomDroneLon, fr.DroneLon)
	w.coord(atomDroneLat, fr.DroneLat)

	w.shift = layout.group2
	w.coord(atomCtrlLon, fr.CtrlLon)
	w.coord(atomCtrlLat, fr.CtrlLat)
	w.f32(atomDist1Lat, fr.Dist1Lat)
	w.f32(atomDist1Lon, fr.Dist1Lon)
	w.f32(atomAlt1, -fr.Alt1)
	w.f32(atomSpeed1Lat, fr.Speed1Lat)
	w.f32(atomSpeed1Lon, fr.Speed1Lon)
	w.f32(atomSpeed1Vert, -fr.Speed1Vert)
	w.u8(atomConnected, fr.Connected)
	w.u8(atomInUse, fr.InUse)
	w.f32(atomHeading, fr.Orientation)
	w.f32(atomDist2Lat, fr.Dist2Lat)
	w.f32(atomDist2Lon, fr.Dist2Lon)
	w.f32(atomDist3Lat, fr.Dist3Lat)
	w.f32(atomDist3Lon, fr.Dist3Lon)
	w.f32(atomAlt2, -fr.Alt2)
	w.f32(atomSpeed2Lat, fr.Speed2Lat)
	w.f32(atomSpeed2Lon, fr.Speed2Lon)
	w.f32(atomSpeed2Vert, -fr.Speed2Vert)
	w.f32(atomGPSStatus, fr.GPSStatus)

	w.shift = layout.group3
	w.coord(atomHomeLon, fr.HomeLon)
	w.coord(atomHomeLat, fr.HomeLat)
	for i, m := range fr.Motors {
		w.u8(atomMotor1+i, m)
	}
	w.u8(atomAction, fr.Action)
	w.u8(atomPositionMode, fr.PositionCode)
	w.u8(atomFlightMode, fr.FlightCode)
	w.u8(atomRTH, fr.RTH)
	w.u8(atomBattery, fr.Battery)
	w.u16(atomFlightCounter, fr.FlightCounter)

	return b
}

// EncodeDreamer writes a frame in the Dreamer layout for test fixtures.
// Elapsed is truncated to whole milliseconds.
func EncodeDreamer(fr Frame) []byte {
	b := make([]byte, FrameSize)
	w := writer{b: b}

	w.u32(dreamerRecordID, fr.RecordID)
	w.u8(dreamerSatellites, fr.Satellites)
	w.u32(dreamerElapsed, uint32(fr.Elapsed/1000))
	w.i16(dreamerDist1Lat, fr.Dist1Lat*10)
	w.i16(dreamerAlt1, fr.Alt1*10)
	w.i16(dreamerDist1Lon, fr.Dist1Lon*10)
	w.i16(dreamerDist2Lat, fr.Dist2Lat*10)
	w.i16(dreamerAlt2, fr.Alt2*10)
	w.i16(dreamerDist2Lon, fr.Dist2Lon*10)
	w.f32(dreamerDroneLat, fr.DroneLat)
	w.f32(dreamerDroneLon, fr.DroneLon)

	return b
}

type writer struct {
	b     []byte
	shift int
}

func (w *writer) at(off, size int) []byte {
	off += w.shift
	return w.b[off : off+size]
}

func (w *writer) u8(off int, v uint8) {
	w.at(off, 1)[0] = v
}

func (w *writer) u16(off int, v uint16) {
	binary.LittleEndian.PutUint16(w.at(off, 2), v)
}

func (w *writer) i16(off int, v float64) {
	binary.LittleEndian.PutUint16(w.at(off, 2), uint16(int16(math.Round(v))))
}

func (w *writer) u32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.at(off, 4), v)
}

func (w *writer) u64(off int, v uint64) {
	binary.LittleEndian.PutUint64(w.at(off, 8), v)
}

func (w *writer) f32(off int, v float64) {
	binary.LittleEndian.PutUint32(w.at(off, 4), math.Float32bits(float32(v)))
}

func (w *writer) coord(off int, v float64) {
	binary.LittleEndian.PutUint32(w.at(off, 4), uint32(int32(math.Round(v*1e7))))
}
