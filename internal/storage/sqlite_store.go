package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roman-kulish/flightlog/internal/archive"
	"github.com/roman-kulish/flightlog/internal/flightlog"
)

var _ Store = (*SqliteStore)(nil)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened and the schema is migrated on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = migrateUp(db); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

// getReadDB opens the read-only connection. The write connection is opened
// first so that the database file and its schema exist.
func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	if _, err := s.getWriteDB(); err != nil {
		return nil, err
	}

	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) IsImported(ctx context.Context, importRef string) (exists bool, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	if err = db.QueryRowContext(ctx, selectImportExistsSQL, importRef).Scan(&exists); err != nil {
		err = fmt.Errorf("checking import: %w", err)
	}
	return
}

func (s *SqliteStore) CreateImport(ctx context.Context, imp *Import) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	var exists bool
	if err = tx.QueryRowContext(ctx, selectImportExistsSQL, imp.Ref).Scan(&exists); err != nil {
		return fmt.Errorf("checking import: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyImported, imp.Ref)
	}

	if _, err = tx.ExecContext(ctx, insertModelSQL, imp.Model); err != nil {
		return fmt.Errorf("inserting model: %w", err)
	}

	if _, err = tx.ExecContext(ctx, insertImportSQL, imp.Ref, imp.Model, imp.Date.UTC(), imp.ImportedOn.UTC()); err != nil {
		return fmt.Errorf("inserting import: %w", err)
	}

	if len(imp.Files) > 0 {
		var stmt *sql.Stmt
		if stmt, err = tx.PrepareContext(ctx, insertLogFileSQL); err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer closeWithError(stmt, &err)

		for _, f := range imp.Files {
			if _, err = stmt.ExecContext(ctx, f.Name, imp.Ref, f.Type.String()); err != nil {
				return fmt.Errorf("inserting log file %s: %w", f.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) StoreFlightStats(ctx context.Context, importRef string, stats []flightlog.FlightSummary) error {
	if len(stats) < 2 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	for flight := 1; flight < len(stats); flight++ {
		if err = s.storeFlightStat(ctx, db, toFlightStatData(importRef, flight, &stats[flight])); err != nil {
			return fmt.Errorf("storing flight %d: %w", flight, err)
		}
	}

	return nil
}

func (s *SqliteStore) storeFlightStat(ctx context.Context, db *sql.DB, data *flightStatData) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	if _, err = tx.ExecContext(
		ctx,
		insertFlightStatSQL,
		data.ImportRef,
		data.FlightNumber,
		data.DurationSeconds,
		data.MaxDistanceM,
		data.MaxAltitudeM,
		data.MaxHSpeedMPS,
		data.MaxVSpeedMPS,
		data.TraveledM,
	); err != nil {
		return fmt.Errorf("inserting flight stats: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) Imports(ctx context.Context, options ...func(q *ImportQuery)) (imports []*Import, err error) {
	var q ImportQuery
	for _, option := range options {
		option(&q)
	}

	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	query, args := q.build()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		err = fmt.Errorf("querying imports: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var imp Import
		if err = rows.Scan(&imp.Ref, &imp.Model, &imp.Date, &imp.ImportedOn); err != nil {
			err = fmt.Errorf("scanning import: %w", err)
			return
		}
		imports = append(imports, &imp)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating imports: %w", err)
		return
	}

	for _, imp := range imports {
		if imp.Files, err = s.logFiles(ctx, db, imp.Ref); err != nil {
			return
		}
	}
	return
}

func (q *ImportQuery) build() (string, []any) {
	var where []string
	var args []any

	if q.model != nil {
		where = append(where, "modelref = ?")
		args = append(args, *q.model)
	}
	if q.dateFrom != nil {
		where = append(where, "dateref >= ?")
		args = append(args, q.dateFrom.UTC())
	}
	if q.dateTo != nil {
		where = append(where, "dateref <= ?")
		args = append(args, q.dateTo.UTC())
	}

	var sb strings.Builder
	sb.WriteString(selectImportsSQL)
	if len(where) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString("\nORDER BY dateref, importref")

	return sb.String(), args
}

func (s *SqliteStore) logFiles(ctx context.Context, db *sql.DB, importRef string) (files []archive.File, err error) {
	rows, err := db.QueryContext(ctx, selectLogFilesSQL, importRef)
	if err != nil {
		err = fmt.Errorf("querying log files: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var f archive.File
		var t string
		if err = rows.Scan(&f.Name, &t); err != nil {
			err = fmt.Errorf("scanning log file: %w", err)
			return
		}
		f.Type = archive.FileType(t)
		files = append(files, f)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) FlightStats(ctx context.Context, importRef string) (stats []*FlightStat, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectFlightStatsSQL, importRef)
	if err != nil {
		err = fmt.Errorf("querying flight stats: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d flightStatData
		if err = rows.Scan(
			&d.ImportRef,
			&d.FlightNumber,
			&d.DurationSeconds,
			&d.MaxDistanceM,
			&d.MaxAltitudeM,
			&d.MaxHSpeedMPS,
			&d.MaxVSpeedMPS,
			&d.TraveledM,
		); err != nil {
			err = fmt.Errorf("scanning flight stats: %w", err)
			return
		}
		stats = append(stats, d.toFlightStat())
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) DeleteImport(ctx context.Context, importRef string) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for _, q := range []string{deleteFlightStatsSQL, deleteLogFilesSQL} {
		if _, err = tx.ExecContext(ctx, q, importRef); err != nil {
			return fmt.Errorf("deleting import %s: %w", importRef, err)
		}
	}

	res, err := tx.ExecContext(ctx, deleteImportSQL, importRef)
	if err != nil {
		return fmt.Errorf("deleting import %s: %w", importRef, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting import %s: %w", importRef, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, importRef)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if err := errors.Join(writeErr, readErr); err != nil {
			s.closeErr = fmt.Errorf("closing store: %w", err)
		}
	})

	return s.closeErr
}
