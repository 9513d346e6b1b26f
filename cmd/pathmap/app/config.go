package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/roman-kulish/flightlog/internal/render"
)

type Config struct {
	ArchivePath   string
	OutputFile    string
	Format        render.ImageFormat
	Flight        int
	Width         int
	Height        int
	WorkDirectory string
	Verbose       bool
}

var validImageFormats = map[render.ImageFormat]struct{}{
	render.FormatPNG:  {},
	render.FormatJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:        render.FormatPNG,
		WorkDirectory: os.TempDir(),
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat string
	var width, height int
	fs.StringVar(&c.ArchivePath, "a", "", "Path to the flight log archive")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(render.FormatPNG), "Output image format. [png, jpeg]")
	fs.IntVar(&c.Flight, "flight", 0, "Flight to render, 0 renders all flights")
	fs.IntVar(&width, "width", 0, "Image width in pixels")
	fs.IntVar(&height, "height", 0, "Image height in pixels")
	fs.StringVar(&c.WorkDirectory, "work-dir", c.WorkDirectory, "Directory to extract the archive to")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			c.Width = width
		case "height":
			c.Height = height
		}
	})

	if c.ArchivePath == "" {
		err = errors.New("archive path is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.Flight < 0 {
		err = fmt.Errorf("invalid flight: %d", c.Flight)
	} else if c.Width < 0 || c.Height < 0 {
		err = fmt.Errorf("invalid image size %dx%d", c.Width, c.Height)
	} else if _, ok := validImageFormats[render.ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = render.ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
