package resync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markers(t *testing.T, names ...string) []time.Time {
	t.Helper()

	var out []time.Time
	for _, n := range names {
		ts, err := ParseMarker(n)
		require.NoError(t, err)
		out = append(out, ts)
	}
	return out
}

func TestClock_TwoFiles(t *testing.T) {
	c := New(markers(t,
		"20230101100000-X-FC.bin",
		"20230101100100-X-FC.bin",
	))
	assert.Equal(t, 1, c.Remaining())

	var got []string
	for _, elapsed := range []uint64{500_000, 1_000_000, 250_000} {
		got = append(got, c.Next(elapsed).Format("15:04:05.000"))
	}

	assert.Equal(t, []string{"10:00:00.500", "10:00:01.000", "10:01:00.250"}, got)
	assert.Equal(t, 0, c.Remaining())
}

func TestClock_PopsExactlyOneMarker(t *testing.T) {
	c := New(markers(t,
		"20230101100000-X-FC.bin",
		"20230101100100-X-FC.bin",
		"20230101100200-X-FC.bin",
	))

	c.Next(2_000_000)
	require.Equal(t, 2, c.Remaining())

	ts := c.Next(1_000_000)
	assert.Equal(t, 1, c.Remaining())
	assert.Equal(t, "10:01:01", ts.Format("15:04:05"))
}

func TestClock_SkipsSeveralMarkers(t *testing.T) {
	c := New(markers(t,
		"20230101100000-X-FC.bin",
		"20230101100001-X-FC.bin",
		"20230101100500-X-FC.bin",
	))

	c.Next(120_000_000) // 10:02:00

	ts := c.Next(1_000)
	assert.Equal(t, "10:05:00.001", ts.Format("15:04:05.000"))
	assert.Equal(t, 0, c.Remaining())
}

func TestClock_ClampsWhenExhausted(t *testing.T) {
	c := New(markers(t, "20230101100000-X-FC.bin"))

	first := c.Next(3_000_000)
	second := c.Next(1_000_000)

	assert.Equal(t, first, second)
	assert.Equal(t, first, c.Previous())
}

func TestClock_TruncatesToMilliseconds(t *testing.T) {
	c := New(markers(t, "20230101100000-X-FC.bin"))

	ts := c.Next(1_234_999)
	assert.Equal(t, 234*time.Millisecond, ts.Sub(ts.Truncate(time.Second)))
}

func TestClock_PreviousStartsAtFirstMarker(t *testing.T) {
	m := markers(t, "20230101100000-X-FC.bin")
	c := New(m)

	assert.Equal(t, m[0], c.Previous())
}

func TestParseMarker(t *testing.T) {
	ts, err := ParseMarker("some/dir/20230101100000-Atom-Android-Pixel-FC.bin")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), ts)

	_, err = ParseMarker("short-FC.bin")
	assert.Error(t, err)

	_, err = ParseMarker("2023010110xxxx-X-FC.bin")
	assert.Error(t, err)
}
