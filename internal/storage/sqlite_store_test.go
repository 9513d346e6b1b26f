package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/archive"
	"github.com/roman-kulish/flightlog/internal/flightlog"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "flightlog.sqlite"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

func testImport(ref, model string, date time.Time) *Import {
	return &Import{
		Ref:        ref,
		Model:      model,
		Date:       date,
		ImportedOn: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Files: []archive.File{
			{Name: ref + "-20230101100000-FC.bin", Type: archive.FileBIN},
			{Name: ref + "-20230101100000-FPV.bin", Type: archive.FileFPV},
		},
	}
}

func TestSqliteStore_ImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	imp := testImport("20230101-Atom-Drone.zip", "Atom", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	imported, err := s.IsImported(ctx, imp.Ref)
	require.NoError(t, err)
	assert.False(t, imported)

	require.NoError(t, s.CreateImport(ctx, imp))

	imported, err = s.IsImported(ctx, imp.Ref)
	require.NoError(t, err)
	assert.True(t, imported)

	err = s.CreateImport(ctx, imp)
	assert.ErrorIs(t, err, ErrAlreadyImported)

	imports, err := s.Imports(ctx)
	require.NoError(t, err)
	require.Len(t, imports, 1)

	got := imports[0]
	assert.Equal(t, imp.Ref, got.Ref)
	assert.Equal(t, imp.Model, got.Model)
	assert.True(t, imp.Date.Equal(got.Date), "date %s", got.Date)
	assert.True(t, imp.ImportedOn.Equal(got.ImportedOn), "imported on %s", got.ImportedOn)
	assert.Equal(t, imp.Files, got.Files)
}

func TestSqliteStore_FlightStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	imp := testImport("20230101-Atom-Drone.zip", "Atom", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.CreateImport(ctx, imp))

	summaries := []flightlog.FlightSummary{
		{MaxDistance: 999, Duration: time.Hour}, // overall, not stored
		{MaxDistance: 120.5, MaxAltitude: 30, MaxHSpeed: 12.25, MaxVSpeedAbs: 3, Duration: 95500 * time.Millisecond, Traveled: 840},
		{MaxDistance: 60, MaxAltitude: 15, MaxHSpeed: 8, MaxVSpeedAbs: 2.5, Duration: 42 * time.Second, Traveled: 310.75},
	}
	require.NoError(t, s.StoreFlightStats(ctx, imp.Ref, summaries))

	got, err := s.FlightStats(ctx, imp.Ref)
	require.NoError(t, err)

	want := []*FlightStat{
		{ImportRef: imp.Ref, FlightNumber: 1, Duration: 95500 * time.Millisecond, MaxDistance: 120.5, MaxAltitude: 30, MaxHSpeed: 12.25, MaxVSpeed: 3, Traveled: 840},
		{ImportRef: imp.Ref, FlightNumber: 2, Duration: 42 * time.Second, MaxDistance: 60, MaxAltitude: 15, MaxHSpeed: 8, MaxVSpeed: 2.5, Traveled: 310.75},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FlightStats() mismatch (-want +got):\n%s", diff)
	}

	// storing again replaces the rows
	require.NoError(t, s.StoreFlightStats(ctx, imp.Ref, summaries))
	got, err = s.FlightStats(ctx, imp.Ref)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSqliteStore_FlightStatsRequireImport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.StoreFlightStats(ctx, "missing.zip", []flightlog.FlightSummary{{}, {MaxDistance: 1}})
	assert.Error(t, err)
}

func TestSqliteStore_ImportsFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateImport(ctx, testImport("a.zip", "Atom", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, s.CreateImport(ctx, testImport("b.zip", "Atom", time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, s.CreateImport(ctx, testImport("c.zip", "P1A", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))))

	refs := func(imports []*Import) []string {
		var out []string
		for _, imp := range imports {
			out = append(out, imp.Ref)
		}
		return out
	}

	all, err := s.Imports(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.zip", "c.zip", "b.zip"}, refs(all))

	atom, err := s.Imports(ctx, WithModel("Atom"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.zip", "b.zip"}, refs(atom))

	feb, err := s.Imports(ctx, WithDateRange(
		time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"c.zip", "b.zip"}, refs(feb))
}

func TestSqliteStore_DeleteImport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	imp := testImport("20230101-Atom-Drone.zip", "Atom", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.CreateImport(ctx, imp))
	require.NoError(t, s.StoreFlightStats(ctx, imp.Ref, []flightlog.FlightSummary{{}, {MaxDistance: 10}}))

	require.NoError(t, s.DeleteImport(ctx, imp.Ref))

	imported, err := s.IsImported(ctx, imp.Ref)
	require.NoError(t, err)
	assert.False(t, imported)

	stats, err := s.FlightStats(ctx, imp.Ref)
	require.NoError(t, err)
	assert.Empty(t, stats)

	assert.ErrorIs(t, s.DeleteImport(ctx, imp.Ref), ErrNotFound)

	// the archive can be imported again
	require.NoError(t, s.CreateImport(ctx, imp))
}

func TestSqliteStore_CloseTwice(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "flightlog.sqlite"))

	_, err := s.IsImported(context.Background(), "x.zip")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
