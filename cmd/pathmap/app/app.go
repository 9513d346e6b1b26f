package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flightlog/internal/archive"
	"github.com/roman-kulish/flightlog/internal/decoder"
	"github.com/roman-kulish/flightlog/internal/render"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	ws, err := archive.Extract(ctx, config.ArchivePath, config.WorkDirectory, archive.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ws.Close())
	}()

	result, err := decoder.New(decoder.WithLogger(logger)).Decode(ctx, ws.FS(), ws.Info)
	if err != nil {
		return fmt.Errorf("decoding archive: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Warn(w.Error())
	}

	logger.Info("finished decoding",
		slog.Group("stats",
			slog.String("rows", humanize.Comma(int64(len(result.Rows)))),
			slog.Int("flights", result.Flights()),
		))

	renderer, err := render.NewPathRenderer(render.RenderConfig{
		Width:    config.Width,
		Height:   config.Height,
		Location: time.Local,
	})
	if err != nil {
		return fmt.Errorf("creating path renderer: %w", err)
	}
	defer renderer.Close()

	logger.Info("rendering path",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("flight", config.Flight),
		))

	img, err := renderer.Render(result, config.Flight)
	if err != nil {
		return fmt.Errorf("rendering path: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	return render.Encode(out, img, config.Format)
}
