package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flightlog/internal/archive"
	"github.com/roman-kulish/flightlog/internal/decoder"
	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/render"
	"github.com/roman-kulish/flightlog/internal/storage"
)

// Run imports every configured archive. An archive that fails does not stop
// the others; all failures are returned together.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if len(config.Import.Archives) == 0 {
		return errors.New("no archives specified in configuration")
	}

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	var renderer *render.PathRenderer
	if config.Render.Enabled {
		if renderer, err = createRenderer(&config.Render); err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		defer renderer.Close()
	}

	paths, err := config.Import.ArchivePaths()
	if err != nil {
		return err
	}

	imp := &importer{
		store:    store,
		decoder:  decoder.New(decoder.WithLogger(logger)),
		renderer: renderer,
		config:   config,
		logger:   logger,
	}

	var errs []error
	for _, p := range paths {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err = imp.importArchive(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("importing %s: %w", p, err))
		}
	}

	return errors.Join(errs...)
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	if err := os.MkdirAll(config.DataDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory '%s': %w", config.DataDirectory, err)
	}

	return storage.NewSqliteStore(config.DatabasePath()), nil
}

func createRenderer(config *RenderConfig) (*render.PathRenderer, error) {
	if err := os.MkdirAll(config.OutputDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory '%s': %w", config.OutputDirectory, err)
	}

	return render.NewPathRenderer(render.RenderConfig{
		Width:    config.Width,
		Height:   config.Height,
		Location: time.Local,
	})
}

type importer struct {
	store    storage.Store
	decoder  *decoder.Decoder
	renderer *render.PathRenderer
	config   *Config
	logger   *slog.Logger
}

func (i *importer) importArchive(ctx context.Context, archivePath string) (err error) {
	info, err := archive.ParseName(archivePath)
	if err != nil {
		return err
	}

	logger := i.logger.With(slog.String("archive", info.Name))

	imported, err := i.store.IsImported(ctx, info.Name)
	if err != nil {
		return err
	}
	if imported {
		logger.Warn("archive already imported, skipping")
		return nil
	}

	ws, err := archive.Extract(ctx, archivePath, i.config.Import.WorkDirectory, archive.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ws.Close())
	}()

	result, err := i.decoder.Decode(ctx, ws.FS(), ws.Info)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn(w.Error())
	}

	if err = i.store.CreateImport(ctx, &storage.Import{
		Ref:        info.Name,
		Model:      info.Model,
		Date:       info.Date,
		ImportedOn: time.Now().UTC(),
		Files:      ws.Listing.Files,
	}); err != nil {
		if errors.Is(err, storage.ErrAlreadyImported) {
			logger.Warn("archive already imported, skipping")
			return nil
		}
		return err
	}

	if err = i.store.StoreFlightStats(ctx, info.Name, result.Stats); err != nil {
		return err
	}

	if i.renderer != nil {
		if err = i.renderPreviews(result, info, logger); err != nil {
			return err
		}
	}

	i.logSummary(archivePath, result, logger)
	return nil
}

// renderPreviews writes one image with all flights and one per flight.
func (i *importer) renderPreviews(result *flightlog.Result, info archive.Info, logger *slog.Logger) error {
	base := strings.TrimSuffix(info.Name, filepath.Ext(info.Name))

	for flight := 0; flight <= result.Flights(); flight++ {
		name := base
		if flight > 0 {
			name = fmt.Sprintf("%s-flight-%d", base, flight)
		}
		dst := filepath.Join(i.config.Render.OutputDirectory, fmt.Sprintf("%s.%s", name, i.config.Render.Format))

		if err := writePreview(i.renderer, result, flight, dst, i.config.Render.Format); err != nil {
			if errors.Is(err, render.ErrNoPath) {
				logger.Debug("no path to render", slog.Int("flight", flight))
				continue
			}
			return fmt.Errorf("rendering flight %d: %w", flight, err)
		}

		logger.Debug("preview written", slog.Int("flight", flight), slog.String("destination", dst))
	}

	return nil
}

func writePreview(r *render.PathRenderer, result *flightlog.Result, flight int, dst string, format render.ImageFormat) (err error) {
	img, err := r.Render(result, flight)
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	return render.Encode(out, img, format)
}

func (i *importer) logSummary(archivePath string, result *flightlog.Result, logger *slog.Logger) {
	attrs := []any{
		slog.String("rows", humanize.Comma(int64(len(result.Rows)))),
		slog.Int("flights", result.Flights()),
	}
	if stat, err := os.Stat(archivePath); err == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(stat.Size()))))
	}
	if len(result.Stats) > 0 {
		overall := result.Stats[0]
		value, prefix := humanize.ComputeSI(overall.Traveled)
		attrs = append(attrs,
			slog.String("traveled", humanize.FtoaWithDigits(value, 2)+" "+prefix+"m"),
			slog.Duration("flightTime", overall.Duration),
		)
	}

	logger.Info("archive imported", attrs...)
}
