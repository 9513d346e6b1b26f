package fpv

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// KeyLayout is the layout of the 14 character timestamp heading every line.
const KeyLayout = "20060102150405"

// MaxLag is how far back a lookup searches for a matching line.
const MaxLag = 5 * time.Second

const (
	keyLength = len(KeyLayout)

	rawLineLength = 19 // key, separator, 3 raw bytes, newline
	hexLineLength = 24 // key, separator, 8 hex digits, newline

	valueOffset = 15
)

const (
	flagFlightController = 0x01
	flagRemote           = 0x02
)

// Index maps FPV line timestamps to the link status reported at that second.
type Index struct {
	entries map[string]string
	skipped int
	logger  *slog.Logger
}

// WithLogger sets the logger used to report malformed values.
func WithLogger(logger *slog.Logger) func(x *Index) {
	return func(x *Index) {
		x.logger = logger
	}
}

// NewIndex creates an empty index with a discard logger.
func NewIndex(options ...func(x *Index)) *Index {
	x := &Index{
		entries: make(map[string]string),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(x)
	}
	return x
}

// Load adds every recognised line of one FPV stream to the index. Lines of
// any other length are ignored. A later line overrides an earlier one with the
// same key.
func (x *Index) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			x.add(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading fpv stream: %w", err)
		}
	}
}

func (x *Index) add(line []byte) {
	var value string

	switch len(line) {
	case rawLineLength:
		value = "00" + hex.EncodeToString(line[valueOffset:valueOffset+3])
	case hexLineLength:
		value = string(line[valueOffset : valueOffset+8])
	default:
		x.skipped++
		return
	}

	x.entries[string(line[:keyLength])] = value
}

// Len returns the number of indexed keys.
func (x *Index) Len() int {
	return len(x.entries)
}

// Skipped returns the number of lines ignored because of their length.
func (x *Index) Skipped() int {
	return x.skipped
}

// Lookup returns the link status recorded at t, or at the closest earlier
// second within MaxLag. Malformed values are passed over. It returns nil when
// nothing matches.
func (x *Index) Lookup(t time.Time) *flightlog.LinkStatus {
	t = t.Truncate(time.Second)

	for lag := time.Duration(0); lag <= MaxLag; lag += time.Second {
		value, ok := x.entries[t.Add(-lag).Format(KeyLayout)]
		if !ok {
			continue
		}

		link, err := parseValue(value)
		if err != nil {
			x.logger.Debug("ignoring malformed fpv value",
				slog.String("value", value), slog.String("error", err.Error()))
			continue
		}
		return link
	}

	return nil
}

// parseValue decodes 8 hex digits: [2:4] RSSI, [4:6] channel, [6:8] flags.
func parseValue(v string) (*flightlog.LinkStatus, error) {
	rssi, err := strconv.ParseUint(v[2:4], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("parsing rssi: %w", err)
	}
	channel, err := strconv.ParseUint(v[4:6], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("parsing channel: %w", err)
	}
	flags, err := strconv.ParseUint(v[6:8], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	return &flightlog.LinkStatus{
		RSSI:                      int(rssi),
		Channel:                   int(channel),
		FlightControllerConnected: flags&flagFlightController != 0,
		RemoteConnected:           flags&flagRemote != 0,
	}, nil
}
