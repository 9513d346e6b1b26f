package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/flightlog/internal/render"
)

const (
	defaultDataDirectory = "data"
	defaultDatabase      = "flightlog.sqlite"
	defaultOutputDir     = "previews"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Storage  StorageConfig `yaml:"storage"`
	Import   ImportConfig  `yaml:"import"`
	Render   RenderConfig  `yaml:"render"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel LogLevel `yaml:"logLevel"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	Database      string `yaml:"database"`
}

// ImportConfig lists the archives to import. Entries may be glob patterns.
type ImportConfig struct {
	WorkDirectory string   `yaml:"workDirectory"`
	Archives      []string `yaml:"archives"`
}

// RenderConfig represents flight path preview settings
type RenderConfig struct {
	Enabled         bool               `yaml:"enabled"`
	OutputDirectory string             `yaml:"outputDirectory"`
	Format          render.ImageFormat `yaml:"format"`
	Width           int                `yaml:"width"`
	Height          int                `yaml:"height"`
}

// LogLevel is a slog level written as its name, e.g. "debug" or "WARN".
type LogLevel slog.Level

func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", s, err)
	}

	*l = LogLevel(level)
	return nil
}

func (l LogLevel) Level() slog.Level {
	return slog.Level(l)
}

// LoadConfig reads the YAML configuration at path and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	c := Config{
		Settings: Settings{LogLevel: LogLevel(slog.LevelInfo)},
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if c.Storage.DataDirectory == "" {
		c.Storage.DataDirectory = defaultDataDirectory
	}
	if c.Storage.Database == "" {
		c.Storage.Database = defaultDatabase
	}
	if c.Import.WorkDirectory == "" {
		c.Import.WorkDirectory = os.TempDir()
	}
	if c.Render.OutputDirectory == "" {
		c.Render.OutputDirectory = defaultOutputDir
	}
	c.Render.Format = render.ImageFormat(strings.ToLower(string(c.Render.Format)))
	if c.Render.Format == "" {
		c.Render.Format = render.FormatPNG
	}

	if err = c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) validate() error {
	switch c.Render.Format {
	case render.FormatPNG, render.FormatJPEG:
	default:
		return fmt.Errorf("invalid image format: %s", c.Render.Format)
	}
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("invalid image size %dx%d", c.Render.Width, c.Render.Height)
	}
	return nil
}

// DatabasePath returns the path of the database file.
func (c *StorageConfig) DatabasePath() string {
	return filepath.Join(c.DataDirectory, c.Database)
}

// ArchivePaths expands the configured archives. Patterns matching nothing
// are kept as is so that the import reports them as missing.
func (c *ImportConfig) ArchivePaths() ([]string, error) {
	var paths []string
	for _, pattern := range c.Archives {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
