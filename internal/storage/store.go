package storage

import (
	"context"
	"errors"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// ErrAlreadyImported is returned when an archive reference is already stored.
var ErrAlreadyImported = errors.New("archive already imported")

// ErrNotFound is returned when an import does not exist.
var ErrNotFound = errors.New("import not found")

// Store provides an interface for persisting imported flight log archives and
// the statistics of their flights.
type Store interface {
	// IsImported reports whether an archive reference is already stored.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - importRef: Archive file name
	IsImported(ctx context.Context, importRef string) (bool, error)

	// CreateImport stores an archive together with its drone model and its
	// telemetry files in a single transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - imp: Archive to store
	//
	// Returns:
	//   - error: ErrAlreadyImported if the archive is present, or if storage fails
	CreateImport(ctx context.Context, imp *Import) error

	// StoreFlightStats stores the summaries of flights 1..N of an import, one
	// transaction per flight. The overall summary at index 0 is not stored.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - importRef: Archive the flights belong to
	//   - stats: Summaries as returned by the decoder
	StoreFlightStats(ctx context.Context, importRef string, stats []flightlog.FlightSummary) error

	// Imports returns the stored archives ordered by date and reference.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - options: Optional filters (WithModel, WithDateRange)
	Imports(ctx context.Context, options ...func(q *ImportQuery)) ([]*Import, error)

	// FlightStats returns the stored flights of an import ordered by flight
	// number.
	FlightStats(ctx context.Context, importRef string) ([]*FlightStat, error)

	// DeleteImport removes an import, its files and its flight statistics in a
	// single transaction.
	//
	// Returns:
	//   - error: ErrNotFound if the import does not exist, or if deletion fails
	DeleteImport(ctx context.Context, importRef string) error

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
