package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/archive"
	"github.com/roman-kulish/flightlog/internal/codec"
	"github.com/roman-kulish/flightlog/internal/render"
	"github.com/roman-kulish/flightlog/internal/storage"
)

const (
	homeLat = 47.3977
	homeLon = 8.5456
)

func frame(elapsed uint64, motor, action uint8, lat float64) codec.Frame {
	return codec.Frame{
		Elapsed:      elapsed,
		Satellites:   12,
		DroneLat:     lat,
		DroneLon:     homeLon,
		HomeLat:      homeLat,
		HomeLon:      homeLon,
		CtrlLat:      homeLat,
		CtrlLon:      homeLon,
		Motors:       [4]uint8{motor, motor, motor, motor},
		Action:       action,
		PositionCode: 3,
		FlightCode:   8,
		GPSStatus:    1,
		Connected:    1,
		Battery:      90,
	}
}

func writeArchive(t *testing.T, dir string) string {
	t.Helper()

	var fc bytes.Buffer
	for _, fr := range []codec.Frame{
		frame(1_000_000, 3, 0, homeLat),
		frame(2_000_000, 4, 1, homeLat),
		frame(3_000_000, 5, 2, homeLat+0.0001),
		frame(4_000_000, 5, 2, homeLat+0.0002),
		frame(5_000_000, 3, 0, homeLat+0.0002),
	} {
		fc.Write(codec.EncodeAtom(fr))
	}

	path := filepath.Join(dir, "20230101-Atom-Drone.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("logs/20230101100000-Atom-Android-Pixel-FC.bin")
	require.NoError(t, err)
	_, err = w.Write(fc.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return path
}

func testConfig(t *testing.T, archives ...string) *Config {
	t.Helper()

	dir := t.TempDir()
	return &Config{
		Storage: StorageConfig{DataDirectory: filepath.Join(dir, "data"), Database: defaultDatabase},
		Import:  ImportConfig{WorkDirectory: filepath.Join(dir, "work"), Archives: archives},
		Render: RenderConfig{
			Enabled:         true,
			OutputDirectory: filepath.Join(dir, "previews"),
			Format:          render.FormatPNG,
			Width:           320,
			Height:          240,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	archivePath := writeArchive(t, t.TempDir())
	config := testConfig(t, archivePath)

	require.NoError(t, Run(ctx, config, discardLogger()))

	store := storage.NewSqliteStore(config.Storage.DatabasePath())
	defer store.Close()

	imports, err := store.Imports(ctx)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "20230101-Atom-Drone.zip", imports[0].Ref)
	assert.Equal(t, "Atom", imports[0].Model)
	assert.Equal(t, []archive.File{{Name: "20230101100000-Atom-Android-Pixel-FC.bin", Type: archive.FileBIN}}, imports[0].Files)

	stats, err := store.FlightStats(ctx, imports[0].Ref)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].FlightNumber)
	assert.InDelta(t, 11.11, stats[0].Traveled, 0.01)

	for _, name := range []string{"20230101-Atom-Drone.png", "20230101-Atom-Drone-flight-1.png"} {
		assert.FileExists(t, filepath.Join(config.Render.OutputDirectory, name))
	}

	// the work directory holds no leftovers
	entries, err := os.ReadDir(config.Import.WorkDirectory)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// a second run skips the imported archive
	require.NoError(t, Run(ctx, config, discardLogger()))
}

func TestRun_JoinsErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeArchive(t, dir)
	missing := filepath.Join(dir, "20230102-Atom-Drone.zip")
	invalid := filepath.Join(dir, "notes.zip")

	config := testConfig(t, missing, good, invalid)
	config.Render.Enabled = false

	err := Run(context.Background(), config, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrInvalidArchive)
	assert.Contains(t, err.Error(), missing)
	assert.Contains(t, err.Error(), invalid)

	store := storage.NewSqliteStore(config.Storage.DatabasePath())
	defer store.Close()

	imported, err := store.IsImported(context.Background(), "20230101-Atom-Drone.zip")
	require.NoError(t, err)
	assert.True(t, imported)
}

func TestRun_NoArchives(t *testing.T) {
	config := testConfig(t)

	err := Run(context.Background(), config, discardLogger())
	assert.ErrorContains(t, err, "no archives")
}

func TestList(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t, writeArchive(t, t.TempDir()))
	config.Render.Enabled = false

	assert.Error(t, List(ctx, config, discardLogger()), "database does not exist yet")

	require.NoError(t, Run(ctx, config, discardLogger()))

	var out bytes.Buffer
	require.NoError(t, List(ctx, config, slog.New(slog.NewTextHandler(&out, nil))))

	assert.Contains(t, out.String(), "archive=20230101-Atom-Drone.zip")
	assert.Contains(t, out.String(), "model=Atom")
	assert.Contains(t, out.String(), "flights=1")
	assert.Contains(t, out.String(), "count=1")
}
