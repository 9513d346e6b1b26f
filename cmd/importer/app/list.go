package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flightlog/internal/storage"
)

// List logs the stored imports together with the statistics of their
// flights.
func List(ctx context.Context, config *Config, logger *slog.Logger) error {
	dbPath := config.Storage.DatabasePath()
	if _, err := os.Stat(dbPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", dbPath, err)
	}

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	imports, err := store.Imports(ctx)
	if err != nil {
		return fmt.Errorf("listing imports: %w", err)
	}

	for _, imp := range imports {
		stats, err := store.FlightStats(ctx, imp.Ref)
		if err != nil {
			return fmt.Errorf("listing flights of %s: %w", imp.Ref, err)
		}

		var duration time.Duration
		var traveled float64
		for _, s := range stats {
			duration += s.Duration
			traveled += s.Traveled
		}

		value, prefix := humanize.ComputeSI(traveled)
		logger.Info("import",
			slog.String("archive", imp.Ref),
			slog.String("model", imp.Model),
			slog.String("date", imp.Date.Format(time.DateOnly)),
			slog.String("importedOn", humanize.Time(imp.ImportedOn)),
			slog.Int("files", len(imp.Files)),
			slog.Int("flights", len(stats)),
			slog.Duration("flightTime", duration),
			slog.String("traveled", humanize.FtoaWithDigits(value, 2)+" "+prefix+"m"),
		)
	}

	logger.Info("stored imports", slog.Int("count", len(imports)))
	return nil
}
