package flightlog

import (
	"time"

	"github.com/paulmach/go.geo"
)

// Reading is a single decoded telemetry row. Rows are appended once by the
// decoder and never modified afterwards.
type Reading struct {
	RecordNumber    int           `json:"recordNumber"`    // Sequential number of the emitted row, starting at 1
	RecordID        uint32        `json:"recordID"`        // Record id stored in the frame by the companion app
	FlightNumber    int           `json:"flightNumber"`    // Flight the row belongs to, 0 when not in a flight
	Timestamp       time.Time     `json:"timestamp"`       // Absolute timestamp, millisecond precision
	TimeOfDay       string        `json:"timeOfDay"`       // Wall-clock time of the timestamp, hh:mm:ss
	ElapsedInFlight time.Duration `json:"elapsedInFlight"` // Time since the flight opened, truncated to ms

	Dist1    float64 `json:"dist1"`    // Reported distance 1 in meters
	Dist1Lat float64 `json:"dist1Lat"` // Latitudinal component of distance 1
	Dist1Lon float64 `json:"dist1Lon"` // Longitudinal component of distance 1
	Dist2    float64 `json:"dist2"`    // Reported distance 2 in meters
	Dist2Lat float64 `json:"dist2Lat"`
	Dist2Lon float64 `json:"dist2Lon"`
	Dist3    float64 `json:"dist3"` // Distance from the home point as reported by the drone
	Dist3Lat float64 `json:"dist3Lat"`
	Dist3Lon float64 `json:"dist3Lon"`

	Alt1 float64 `json:"alt1"` // Altitude 1 in meters
	Alt2 float64 `json:"alt2"` // Altitude 2 in meters, relative to the take-off point

	Speed1     float64 `json:"speed1"` // Horizontal speed 1 in m/s
	Speed1Lat  float64 `json:"speed1Lat"`
	Speed1Lon  float64 `json:"speed1Lon"`
	Speed2     float64 `json:"speed2"` // Horizontal speed 2 in m/s
	Speed2Lat  float64 `json:"speed2Lat"`
	Speed2Lon  float64 `json:"speed2Lon"`
	Speed1Vert float64 `json:"speed1Vert"` // Vertical speed 1 in m/s, positive when climbing
	Speed2Vert float64 `json:"speed2Vert"` // Vertical speed 2 in m/s, positive when climbing

	Satellites uint8   `json:"satellites"`
	CtrlLat    float64 `json:"ctrlLat"` // Controller position
	CtrlLon    float64 `json:"ctrlLon"`
	HomeLat    float64 `json:"homeLat"` // Home point position
	HomeLon    float64 `json:"homeLon"`
	DroneLat   float64 `json:"droneLat"` // Drone position
	DroneLon   float64 `json:"droneLon"`

	Orientation float64      `json:"orientation"` // Heading in radians
	Motors      [4]uint8     `json:"motors"`      // Raw motor states
	MotorStatus MotorStatus  `json:"motorStatus"`
	DroneStatus DroneStatus  `json:"droneStatus"`
	DroneAction uint8        `json:"droneAction"` // Raw action code
	Link        *LinkStatus  `json:"link,omitempty"`
	Connected   bool         `json:"connected"` // Drone connected to the controller
	RTH         bool         `json:"rth"`       // Return to home active
	Position    PositionMode `json:"positionMode"`
	GPSStatus   float64      `json:"gpsStatus"`
	GPSAcquired bool         `json:"gpsAcquired"`
	InUse       bool         `json:"inUse"`

	Traveled      float64    `json:"traveled"` // Horizontal distance travelled in the flight, meters
	BatteryLevel  uint8      `json:"batteryLevel"`
	FlightMode    FlightMode `json:"flightMode"`
	FlightCounter uint16     `json:"flightCounter"`
}

// LinkStatus is the controller-side link information joined from the FPV stream.
type LinkStatus struct {
	RSSI                      int  `json:"rssi"`
	Channel                   int  `json:"channel"`
	FlightControllerConnected bool `json:"flightControllerConnected"`
	RemoteConnected           bool `json:"remoteConnected"`
}

// FlightSummary holds the statistics of a single flight, or of the whole log
// when stored at index 0 of Result.Stats.
type FlightSummary struct {
	MaxDistance  float64       `json:"maxDistance"`  // meters
	MaxAltitude  float64       `json:"maxAltitude"`  // meters
	MaxHSpeed    float64       `json:"maxHSpeed"`    // m/s
	Duration     time.Duration `json:"duration"`     // elapsed-in-flight of the last row
	MinLat       float64       `json:"minLat"`       // bounding box of the drone positions
	MinLon       float64       `json:"minLon"`       //
	MaxLat       float64       `json:"maxLat"`       //
	MaxLon       float64       `json:"maxLon"`       //
	MaxVSpeedAbs float64       `json:"maxVSpeedAbs"` // m/s, absolute
	Traveled     float64       `json:"traveled"`     // meters
}

// Polyline is the path of a single flight split into segments.
type Polyline []*geo.Path

// Points returns the total number of points in all segments.
func (p Polyline) Points() int {
	var n int
	for _, s := range p {
		n += s.Length()
	}
	return n
}

// Result is the immutable output of decoding one archive.
type Result struct {
	Rows         []Reading       `json:"rows"`
	Paths        []Polyline      `json:"-"`            // Paths[i] belongs to flight i+1
	FlightStarts []int           `json:"flightStarts"` // Row index of the first row of flight i+1
	FlightEnds   []int           `json:"flightEnds"`   // Row index of the last row of flight i+1
	Stats        []FlightSummary `json:"stats"`        // Index 0 is the overall log
	DroneLabel   string          `json:"droneLabel"`
	Warnings     []error         `json:"-"`
}

// Flights returns the number of flights found in the log.
func (r *Result) Flights() int {
	if len(r.Stats) == 0 {
		return 0
	}
	return len(r.Stats) - 1
}

// Flight returns the rows from the first to the last row of flight n (1-based).
// Rows without usable coordinates inside that window carry flight number 0.
func (r *Result) Flight(n int) []Reading {
	if n < 1 || n > len(r.FlightStarts) || n > len(r.FlightEnds) {
		return nil
	}
	return r.Rows[r.FlightStarts[n-1] : r.FlightEnds[n-1]+1]
}
