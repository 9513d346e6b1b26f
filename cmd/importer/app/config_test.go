package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/render"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
storage:
  dataDirectory: /var/lib/flightlog
  database: logs.sqlite
import:
  workDirectory: /tmp/work
  archives:
    - 20230101-Atom-Drone.zip
render:
  enabled: true
  outputDirectory: out
  format: JPEG
  width: 800
  height: 600
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, c.Settings.LogLevel.Level())
	assert.Equal(t, filepath.Join("/var/lib/flightlog", "logs.sqlite"), c.Storage.DatabasePath())
	assert.Equal(t, "/tmp/work", c.Import.WorkDirectory)
	assert.Equal(t, []string{"20230101-Atom-Drone.zip"}, c.Import.Archives)
	assert.Equal(t, RenderConfig{
		Enabled:         true,
		OutputDirectory: "out",
		Format:          render.FormatJPEG,
		Width:           800,
		Height:          600,
	}, c.Render)
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "import:\n  archives: [a.zip]\n"))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, c.Settings.LogLevel.Level())
	assert.Equal(t, filepath.Join(defaultDataDirectory, defaultDatabase), c.Storage.DatabasePath())
	assert.Equal(t, os.TempDir(), c.Import.WorkDirectory)
	assert.False(t, c.Render.Enabled)
	assert.Equal(t, render.FormatPNG, c.Render.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "settings:\n  logLevel: loud\nimport:\n  archives: [a.zip]\n"},
		{"bad format", "import:\n  archives: [a.zip]\nrender:\n  format: gif\n"},
		{"bad size", "import:\n  archives: [a.zip]\nrender:\n  width: -1\n"},
		{"not yaml", "import: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestArchivePaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20230101-Atom-Drone.zip", "20230102-Atom-Drone.zip"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	c := ImportConfig{Archives: []string{
		filepath.Join(dir, "*.zip"),
		filepath.Join(dir, "missing.zip"),
	}}

	paths, err := c.ArchivePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "20230101-Atom-Drone.zip"),
		filepath.Join(dir, "20230102-Atom-Drone.zip"),
		filepath.Join(dir, "missing.zip"),
	}, paths)
}
