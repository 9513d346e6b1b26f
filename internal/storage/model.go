package storage

import (
	"time"

	"github.com/roman-kulish/flightlog/internal/archive"
)

// Import is an imported archive.
type Import struct {
	Ref        string // Archive file name
	Model      string
	Date       time.Time
	ImportedOn time.Time
	Files      []archive.File
}

// FlightStat is the stored summary of a single flight.
type FlightStat struct {
	ImportRef    string
	FlightNumber int
	Duration     time.Duration
	MaxDistance  float64 // meters
	MaxAltitude  float64 // meters
	MaxHSpeed    float64 // m/s
	MaxVSpeed    float64 // m/s, absolute
	Traveled     float64 // meters
}

// ImportQuery filters the result of Store.Imports.
type ImportQuery struct {
	model    *string
	dateFrom *time.Time
	dateTo   *time.Time
}

// WithModel selects imports of a drone model.
func WithModel(model string) func(q *ImportQuery) {
	return func(q *ImportQuery) {
		q.model = &model
	}
}

// WithDateRange selects imports dated within [from, to].
func WithDateRange(from, to time.Time) func(q *ImportQuery) {
	return func(q *ImportQuery) {
		q.dateFrom = &from
		q.dateTo = &to
	}
}
