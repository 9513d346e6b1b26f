package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// Workspace is the temporary directory an archive was extracted to.
type Workspace struct {
	Info    Info
	Dir     string
	Listing Listing
}

// FS returns the extracted files.
func (w *Workspace) FS() fs.FS {
	return os.DirFS(w.Dir)
}

// Close deletes the extracted files.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.Dir, err)
	}
	return nil
}

type ExtractOption func(*extractor)

type extractor struct {
	logger *slog.Logger
}

// WithLogger sets the logger for extraction progress.
func WithLogger(logger *slog.Logger) ExtractOption {
	return func(e *extractor) {
		e.logger = logger
	}
}

// Extract unpacks the telemetry files of the archive into a new directory
// under root. Member paths are flattened to their base names; other members
// are skipped. The directory is removed again if extraction fails, otherwise
// the caller removes it with Workspace.Close.
func Extract(ctx context.Context, archivePath, root string, opts ...ExtractOption) (ws *Workspace, err error) {
	e := &extractor{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}

	info, err := ParseName(archivePath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(root, uuid.NewString())
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	ws = &Workspace{Info: info, Dir: dir}
	defer func() {
		if err != nil {
			err = errors.Join(err, ws.Close())
			ws = nil
		}
	}()

	logger := e.logger.With(slog.String("archive", info.Name), slog.String("dir", dir))

	// the zip reader is closed before the deferred cleanup above inspects err
	if err = unpack(ctx, archivePath, dir, logger); err != nil {
		return ws, err
	}

	if ws.Listing, err = Files(ws.FS()); err != nil {
		return ws, err
	}

	logger.Info("archive extracted",
		slog.Int("fc", len(ws.Listing.FC)), slog.Int("fpv", len(ws.Listing.FPV)))

	return ws, nil
}

// unpack writes the recognized members of the archive to dir.
func unpack(ctx context.Context, archivePath, dir string, logger *slog.Logger) (err error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrInvalidArchive, archivePath, err)
	}
	defer closeWithError(zr, &err)

	for _, f := range zr.File {
		if err = ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		name := path.Base(f.Name)
		if _, ok := Classify(name); !ok {
			logger.Debug("skipping archive member", slog.String("member", f.Name))
			continue
		}

		if err = extractFile(f, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
	}

	return nil
}

func extractFile(f *zip.File, dst string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening member %s: %w", f.Name, err)
	}
	defer closeWithError(rc, &err)

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer closeWithError(out, &err)

	if _, err = io.Copy(out, rc); err != nil {
		return fmt.Errorf("extracting member %s: %w", f.Name, err)
	}
	return nil
}

func closeWithError(cl io.Closer, err *error) {
	if cerr := cl.Close(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}
