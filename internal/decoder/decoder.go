package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/roman-kulish/flightlog/internal/archive"
	"github.com/roman-kulish/flightlog/internal/codec"
	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/fpv"
	"github.com/roman-kulish/flightlog/internal/resync"
	"github.com/roman-kulish/flightlog/internal/sanitize"
	"github.com/roman-kulish/flightlog/internal/segment"
	"github.com/roman-kulish/flightlog/internal/stats"
)

const (
	stateInit      state = "INIT"
	stateReadingFC state = "READING_FC"
	stateEOFFC     state = "EOF_FC"
	stateFinalize  state = "FINALIZE"
)

const timeOfDayLayout = "15:04:05"

var (
	// ErrNoTelemetry is returned together with an empty result when an archive
	// holds no flight controller files.
	ErrNoTelemetry = errors.New("no flight controller telemetry")

	// ErrUnsupportedModel is recorded as a warning when the drone model matches
	// no dialect. Decoding proceeds with the Atom layout.
	ErrUnsupportedModel = errors.New("unsupported drone model")
)

type state string

// WithLogger sets the logger for the decoder
func WithLogger(logger *slog.Logger) func(d *Decoder) {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// Decoder turns the telemetry files of one archive into rows, flight paths
// and flight statistics. A Decoder holds no per-archive state and may be
// reused.
type Decoder struct {
	logger *slog.Logger
}

// New creates a decoder with a discard logger.
func New(options ...func(d *Decoder)) *Decoder {
	d := Decoder{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Decode reads the telemetry files found at the root of fsys. Flight
// controller files are read in name order, frame by frame; ctx is checked
// between frames.
func (d *Decoder) Decode(ctx context.Context, fsys fs.FS, info archive.Info) (*flightlog.Result, error) {
	r := newRun(info, d.logger)
	return r.decode(ctx, fsys)
}

// run is the state of decoding a single archive.
type run struct {
	info    archive.Info
	dialect codec.Dialect
	state   state
	logger  *slog.Logger

	clock    *resync.Clock
	links    *fpv.Index
	segments *segment.Segmenter
	stats    *stats.Aggregator

	result *flightlog.Result

	home          sanitize.Coords // Dreamer reference point
	unknownModes  map[uint8]struct{}
	skippedFrames int
	corruptFrames int
}

func newRun(info archive.Info, logger *slog.Logger) *run {
	dialect := info.Dialect
	if dialect == "" || info.Unsupported {
		dialect = codec.DialectAtom
	}

	return &run{
		info:         info,
		dialect:      dialect,
		state:        stateInit,
		logger:       logger.With(slog.String("archive", info.Name), slog.String("dialect", dialect.String())),
		links:        fpv.NewIndex(fpv.WithLogger(logger)),
		segments:     segment.New(),
		stats:        stats.New(),
		result:       &flightlog.Result{DroneLabel: info.Model},
		unknownModes: make(map[uint8]struct{}),
	}
}

func (r *run) transition(s state) {
	r.logger.Debug("decoder state", slog.String("from", string(r.state)), slog.String("to", string(s)))
	r.state = s
}

func (r *run) decode(ctx context.Context, fsys fs.FS) (*flightlog.Result, error) {
	if r.info.Unsupported {
		warning := fmt.Errorf("%w: %q, decoding as %s", ErrUnsupportedModel, r.info.Model, codec.DialectAtom)
		r.result.Warnings = append(r.result.Warnings, warning)
		r.logger.Warn(warning.Error())
	}

	listing, err := archive.Files(fsys)
	if err != nil {
		return r.result, err
	}
	if len(listing.FC) == 0 {
		return r.result, ErrNoTelemetry
	}

	markers := make([]time.Time, 0, len(listing.FC))
	for _, name := range listing.FC {
		ts, err := resync.ParseMarker(name)
		if err != nil {
			return r.result, fmt.Errorf("%w: %v", archive.ErrInvalidArchive, err)
		}
		markers = append(markers, ts)
	}
	r.clock = resync.New(markers)

	for _, name := range listing.FPV {
		if err = r.loadFPV(fsys, name); err != nil {
			return r.result, err
		}
	}
	if len(listing.FPV) > 0 {
		r.logger.Debug("fpv index built", slog.Int("keys", r.links.Len()), slog.Int("ignoredLines", r.links.Skipped()))
	}

	r.transition(stateReadingFC)
	for _, name := range listing.FC {
		if err = r.readFC(ctx, fsys, name); err != nil {
			return r.result, err
		}
	}
	r.transition(stateEOFFC)

	r.transition(stateFinalize)
	r.finalize()

	r.logger.Info("archive decoded",
		slog.Int("rows", len(r.result.Rows)),
		slog.Int("flights", r.stats.Flights()),
		slog.Int("skippedFrames", r.skippedFrames),
		slog.Int("corruptFrames", r.corruptFrames),
	)

	return r.result, nil
}

func (r *run) loadFPV(fsys fs.FS, name string) (err error) {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("opening fpv file %s: %w", name, err)
	}
	defer closeWithError(f, &err)

	if err = r.links.Load(f); err != nil {
		return fmt.Errorf("loading fpv file %s: %w", name, err)
	}
	return nil
}

func (r *run) readFC(ctx context.Context, fsys fs.FS, name string) (err error) {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("opening flight controller file %s: %w", name, err)
	}
	defer closeWithError(f, &err)

	logger := r.logger.With(slog.String("file", name))
	logger.Debug("reading flight controller file")

	reader := codec.NewReader(f, r.dialect)
	for {
		if err = ctx.Err(); err != nil {
			return err
		}

		fr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			logger.Debug("end of flight controller file", slog.Int64("bytes", reader.Offset()))
			return nil
		}
		if errors.Is(err, codec.ErrSkip) {
			r.skippedFrames++
			continue
		}
		if err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}

		r.process(&fr)
	}
}

// process turns one frame into a row.
func (r *run) process(fr *codec.Frame) {
	ts := r.clock.Next(fr.Elapsed)

	pos := sanitize.Position{
		Drone:      sanitize.Coords{Lat: fr.DroneLat, Lon: fr.DroneLon},
		Home:       sanitize.Coords{Lat: fr.HomeLat, Lon: fr.HomeLon},
		Controller: sanitize.Coords{Lat: fr.CtrlLat, Lon: fr.CtrlLon},
	}
	if r.dialect == codec.DialectDreamer {
		// no home point is recorded, the first fix of the archive stands in
		if !r.home.Present() && pos.Drone.Present() && !fr.Corrupt {
			r.home = pos.Drone
		}
		pos.Home = r.home
	}

	valid := !fr.Corrupt && pos.Valid()
	if fr.Corrupt {
		r.corruptFrames++
	}

	rows := r.result.Rows
	step := r.segments.Feed(segment.Sample{
		Row:         len(rows),
		Timestamp:   ts,
		MotorStatus: fr.MotorStatus,
		ValidCoords: valid,
		Lat:         pos.Drone.Lat,
		Lon:         pos.Drone.Lon,
	})

	row := flightlog.Reading{
		RecordNumber:    len(rows) + 1,
		RecordID:        fr.RecordID,
		FlightNumber:    step.FlightNumber,
		Timestamp:       ts,
		TimeOfDay:       ts.Format(timeOfDayLayout),
		ElapsedInFlight: step.ElapsedInFlight,

		Dist1:    fr.Dist1(),
		Dist1Lat: fr.Dist1Lat,
		Dist1Lon: fr.Dist1Lon,
		Dist2:    fr.Dist2(),
		Dist2Lat: fr.Dist2Lat,
		Dist2Lon: fr.Dist2Lon,
		Dist3:    fr.Dist3(),
		Dist3Lat: fr.Dist3Lat,
		Dist3Lon: fr.Dist3Lon,

		Alt1: fr.Alt1,
		Alt2: fr.Alt2,

		Speed1:     fr.Speed1(),
		Speed1Lat:  fr.Speed1Lat,
		Speed1Lon:  fr.Speed1Lon,
		Speed2:     fr.Speed2(),
		Speed2Lat:  fr.Speed2Lat,
		Speed2Lon:  fr.Speed2Lon,
		Speed1Vert: fr.Speed1Vert,
		Speed2Vert: fr.Speed2Vert,

		Satellites: fr.Satellites,
		CtrlLat:    fr.CtrlLat,
		CtrlLon:    fr.CtrlLon,
		HomeLat:    pos.Home.Lat,
		HomeLon:    pos.Home.Lon,
		DroneLat:   fr.DroneLat,
		DroneLon:   fr.DroneLon,

		Orientation: fr.Orientation,
		Motors:      fr.Motors,
		MotorStatus: fr.MotorStatus,
		DroneStatus: fr.DroneStatus(),
		DroneAction: fr.Action,
		Link:        r.links.Lookup(ts),
		Connected:   fr.Connected != 0,
		RTH:         fr.Action == 2 && fr.RTH != 0,
		Position:    r.positionMode(fr.PositionCode),
		GPSStatus:   fr.GPSStatus,
		GPSAcquired: fr.GPSStatus >= 0,
		InUse:       fr.InUse == 0,

		Traveled:      step.Traveled,
		BatteryLevel:  fr.Battery,
		FlightMode:    flightlog.FlightModeOf(fr.FlightCode),
		FlightCounter: fr.FlightCounter,
	}

	r.result.Rows = append(rows, row)
	r.stats.Update(&r.result.Rows[len(r.result.Rows)-1])
}

// positionMode maps the raw code and reports every unmapped code once.
func (r *run) positionMode(code uint8) flightlog.PositionMode {
	mode := flightlog.PositionModeOf(code)
	if mode != flightlog.PositionUnknown || r.dialect == codec.DialectDreamer {
		return mode
	}

	if _, seen := r.unknownModes[code]; !seen {
		r.unknownModes[code] = struct{}{}
		r.logger.Warn("unknown position mode", slog.Int("code", int(code)))
	}
	return mode
}

func (r *run) finalize() {
	paths, starts, ends := r.segments.Finish()

	r.result.Paths = paths
	r.result.FlightStarts = starts
	r.result.FlightEnds = ends
	r.result.Stats = r.stats.Summaries()
}

func closeWithError(cl io.Closer, err *error) {
	if cerr := cl.Close(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}
