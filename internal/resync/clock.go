package resync

import (
	"fmt"
	"path"
	"time"
)

// MarkerLayout is the layout of the wall-clock prefix of flight controller
// file names.
const MarkerLayout = "20060102150405"

// Clock turns per-file elapsed counters into absolute, non-decreasing
// timestamps. Each flight controller file contributes one marker, the wall
// clock time of its creation. Markers are consumed in order whenever the
// elapsed counter falls behind the previous timestamp, which happens when the
// drone starts a new file and resets its counter.
type Clock struct {
	markers []time.Time
	current time.Time
	prev    time.Time
}

// New creates a clock over ordered markers. The first marker is consumed
// immediately and anchors the first file.
func New(markers []time.Time) *Clock {
	c := &Clock{markers: markers}
	if len(c.markers) > 0 {
		c.current = c.markers[0]
		c.prev = c.current
		c.markers = c.markers[1:]
	}
	return c
}

// Next returns the timestamp of a frame with the given elapsed counter in
// microseconds. The result is never before the previous one: when all markers
// are consumed the previous timestamp is repeated.
func (c *Clock) Next(elapsedUS uint64) time.Time {
	offset := time.Duration(elapsedUS/1000) * time.Millisecond

	candidate := c.current.Add(offset)
	for candidate.Before(c.prev) {
		if len(c.markers) == 0 {
			candidate = c.prev
			break
		}
		c.current = c.markers[0]
		c.markers = c.markers[1:]
		candidate = c.current.Add(offset)
	}

	c.prev = candidate
	return candidate
}

// Previous returns the last timestamp handed out, or the first marker before
// any frame was processed.
func (c *Clock) Previous() time.Time {
	return c.prev
}

// Remaining returns the number of markers not consumed yet.
func (c *Clock) Remaining() int {
	return len(c.markers)
}

// ParseMarker reads the marker prefix of a flight controller file name. Times
// are naive wall-clock values and are returned in UTC.
func ParseMarker(name string) (time.Time, error) {
	base := path.Base(name)
	if len(base) < len(MarkerLayout) {
		return time.Time{}, fmt.Errorf("file name %q: too short for a time marker", name)
	}

	ts, err := time.Parse(MarkerLayout, base[:len(MarkerLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("file name %q: parsing time marker: %w", name, err)
	}
	return ts, nil
}
