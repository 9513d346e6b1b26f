package flightlog

const (
	MotorUnknown MotorStatus = "UNKNOWN"
	MotorOff     MotorStatus = "OFF"
	MotorIdle    MotorStatus = "IDLE"
	MotorLift    MotorStatus = "LIFT"

	DroneUnknown DroneStatus = "UNKNOWN"
	DroneOff     DroneStatus = "OFF"
	DroneIdle    DroneStatus = "IDLE"
	DroneLift    DroneStatus = "LIFT"
	DroneFlying  DroneStatus = "FLYING"
	DroneLanding DroneStatus = "LANDING"

	FlightModeUnknown FlightMode = "UNKNOWN"
	FlightModeVideo   FlightMode = "VIDEO"
	FlightModeNormal  FlightMode = "NORMAL"
	FlightModeSport   FlightMode = "SPORT"

	PositionUnknown PositionMode = "UNKNOWN"
	PositionGPS     PositionMode = "GPS"
	PositionVision  PositionMode = "VISION"
	PositionATTI    PositionMode = "ATTI"
)

// Raw motor state values.
const (
	motorStateOff  = 3
	motorStateIdle = 4
)

type MotorStatus string

func (s MotorStatus) String() string {
	return string(s)
}

// MotorStatusOf derives the motor status from the four raw motor states:
// LIFT if any motor is above idle, IDLE if any is idle, OFF if all are off.
func MotorStatusOf(motors [4]uint8) MotorStatus {
	var idle, off int
	for _, m := range motors {
		switch {
		case m > motorStateIdle:
			return MotorLift
		case m == motorStateIdle:
			idle++
		case m == motorStateOff:
			off++
		}
	}

	switch {
	case idle > 0:
		return MotorIdle
	case off == len(motors):
		return MotorOff
	default:
		return MotorUnknown
	}
}

type DroneStatus string

func (s DroneStatus) String() string {
	return string(s)
}

// DroneStatusOf maps the raw drone action code and the motor status.
func DroneStatusOf(action uint8, motors MotorStatus) DroneStatus {
	switch action {
	case 0:
		return DroneOff
	case 1:
		switch motors {
		case MotorIdle:
			return DroneIdle
		case MotorLift:
			return DroneLift
		}
	case 2:
		return DroneFlying
	case 3:
		return DroneLanding
	}
	return DroneUnknown
}

type FlightMode string

func (m FlightMode) String() string {
	return string(m)
}

// FlightModeOf maps the raw flight mode code.
func FlightModeOf(code uint8) FlightMode {
	switch code {
	case 7:
		return FlightModeVideo
	case 8:
		return FlightModeNormal
	case 9:
		return FlightModeSport
	default:
		return FlightModeUnknown
	}
}

type PositionMode string

func (m PositionMode) String() string {
	return string(m)
}

// PositionModeOf maps the raw position mode code. The ATTI code is presumed
// to be 1; it has not been confirmed against a real log.
func PositionModeOf(code uint8) PositionMode {
	switch code {
	case 3:
		return PositionGPS
	case 2:
		return PositionVision
	case 1:
		return PositionATTI
	default:
		return PositionUnknown
	}
}
