package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/paulmach/go.geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

func testResult() *flightlog.Result {
	seg := geo.NewPath()
	seg.Push(geo.NewPoint(-8.6110, 41.1470))
	seg.Push(geo.NewPoint(-8.6100, 41.1470))
	seg.Push(geo.NewPoint(-8.6100, 41.1480))

	start := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := []flightlog.Reading{
		{FlightNumber: 1, Timestamp: start},
		{FlightNumber: 1, Timestamp: start.Add(30 * time.Second)},
	}

	summary := flightlog.FlightSummary{
		MaxDistance: 120,
		MaxAltitude: 30,
		Duration:    30 * time.Second,
		Traveled:    195,
	}

	return &flightlog.Result{
		Rows:         rows,
		Paths:        []flightlog.Polyline{{seg}},
		FlightStarts: []int{0},
		FlightEnds:   []int{1},
		Stats:        []flightlog.FlightSummary{summary, summary},
		DroneLabel:   "Atom",
	}
}

func newTestRenderer(t *testing.T) *PathRenderer {
	t.Helper()

	r, err := NewPathRenderer(RenderConfig{Width: 400, Height: 300})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestPathRenderer_Render(t *testing.T) {
	r := newTestRenderer(t)

	for _, flight := range []int{0, 1} {
		img, err := r.Render(testResult(), flight)
		require.NoError(t, err)

		assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())
		assert.True(t, isWhite(img.At(399, 299)), "corner should stay blank")

		var painted int
		area := image.Rect(defaultLeftBorder, defaultTopBorder, 400-defaultRightBorder, 300-defaultBottomBorder)
		for y := area.Min.Y; y < area.Max.Y; y++ {
			for x := area.Min.X; x < area.Max.X; x++ {
				if !isWhite(img.At(x, y)) {
					painted++
				}
			}
		}
		assert.Positive(t, painted, "flight %d path should be drawn", flight)
	}
}

func TestPathRenderer_SinglePoint(t *testing.T) {
	r := newTestRenderer(t)

	seg := geo.NewPath()
	seg.Push(geo.NewPoint(-8.61, 41.147))
	res := testResult()
	res.Paths = []flightlog.Polyline{{seg}}

	_, err := r.Render(res, 1)
	assert.NoError(t, err)
}

func TestPathRenderer_NoPath(t *testing.T) {
	r := newTestRenderer(t)

	res := testResult()
	res.Paths = []flightlog.Polyline{{}}

	_, err := r.Render(res, 1)
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = r.Render(&flightlog.Result{}, 0)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPathRenderer_FlightOutOfRange(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(testResult(), 2)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPath)
}

func TestNewPathRenderer_TooSmall(t *testing.T) {
	_, err := NewPathRenderer(RenderConfig{Width: 30, Height: 30})
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	r := newTestRenderer(t)

	img, err := r.Render(testResult(), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, FormatPNG))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, FormatJPEG))
	assert.NotZero(t, buf.Len())

	assert.Error(t, Encode(&buf, img, "gif"))
}

func TestPathColor(t *testing.T) {
	assert.NotEqual(t, pathColor(0), pathColor(1))
	assert.Equal(t, pathColor(1), pathColor(2))
}

func TestFormatMeters(t *testing.T) {
	assert.Equal(t, "840 m", formatMeters(840))
	assert.Equal(t, "1.5 km", formatMeters(1500))
}
