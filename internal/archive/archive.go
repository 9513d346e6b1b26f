package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/roman-kulish/flightlog/internal/codec"
)

const (
	FileFC  FileType = "FC"  // flight controller frames, *-FC.fc
	FileBIN FileType = "BIN" // flight controller frames, *-FC.bin
	FileFPV FileType = "FPV" // controller side stream, *-FPV.bin
)

const (
	dateLayout   = "20060102"
	markerLength = len("20060102150405")
)

// ErrInvalidArchive is returned when an archive is missing, unreadable or
// does not follow the naming convention.
var ErrInvalidArchive = errors.New("invalid archive")

var (
	modelPattern    = regexp.MustCompile(`^\d+-(.*)-Drone.*$`)
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// FileType is the kind of a telemetry file, as persisted.
type FileType string

func (t FileType) String() string {
	return string(t)
}

// Telemetry reports whether the file holds flight controller frames.
func (t FileType) Telemetry() bool {
	return t == FileFC || t == FileBIN
}

// Info describes an archive by its name.
type Info struct {
	Name        string        // Base name of the archive, the import reference
	Model       string        // Drone model label
	Date        time.Time     // Calendar date of the archive
	Dialect     codec.Dialect // Frame layout family selected by the model label
	Unsupported bool          // Model matches no dialect, Atom is assumed
}

// ParseName extracts the drone model and date from an archive path.
func ParseName(p string) (Info, error) {
	name := path.Base(strings.ReplaceAll(p, `\`, "/"))

	m := modelPattern.FindStringSubmatch(name)
	if m == nil {
		return Info{}, fmt.Errorf("%w: %q does not name a drone model", ErrInvalidArchive, name)
	}
	if len(name) < len(dateLayout) {
		return Info{}, fmt.Errorf("%w: %q has no date", ErrInvalidArchive, name)
	}

	date, err := time.Parse(dateLayout, name[:len(dateLayout)])
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q: parsing date: %v", ErrInvalidArchive, name, err)
	}

	model := strings.TrimSpace(nonAlphanumeric.ReplaceAllString(m[1], " "))
	dialect, known := codec.DialectOf(model)

	return Info{
		Name:        name,
		Model:       model,
		Date:        date,
		Dialect:     dialect,
		Unsupported: !known,
	}, nil
}

// Classify returns the type of an archive member by its name. The second
// result is false for members that are not telemetry files.
func Classify(name string) (FileType, bool) {
	base := path.Base(name)

	var t FileType
	switch {
	case strings.HasSuffix(base, "-FC.bin"):
		t = FileBIN
	case strings.HasSuffix(base, "-FC.fc"):
		t = FileFC
	case strings.HasSuffix(base, "-FPV.bin"):
		t = FileFPV
	default:
		return "", false
	}

	if t.Telemetry() && !hasMarker(base) {
		return "", false
	}
	return t, true
}

func hasMarker(name string) bool {
	if len(name) < markerLength {
		return false
	}
	for _, c := range name[:markerLength] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// File is a recognised telemetry file.
type File struct {
	Name string
	Type FileType
}

// Listing holds the telemetry files of an extracted archive.
type Listing struct {
	Files []File   // All recognised files, sorted by name
	FC    []string // Flight controller files, sorted by name
	FPV   []string // FPV files, sorted by name
}

// Files lists the telemetry files at the root of fsys.
func Files(fsys fs.FS) (Listing, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return Listing{}, fmt.Errorf("listing telemetry files: %w", err)
	}

	var l Listing
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		t, ok := Classify(e.Name())
		if !ok {
			continue
		}

		l.Files = append(l.Files, File{Name: e.Name(), Type: t})
		if t.Telemetry() {
			l.FC = append(l.FC, e.Name())
		} else {
			l.FPV = append(l.FPV, e.Name())
		}
	}

	sort.Slice(l.Files, func(i, j int) bool { return l.Files[i].Name < l.Files[j].Name })
	sort.Strings(l.FC)
	sort.Strings(l.FPV)

	return l, nil
}
