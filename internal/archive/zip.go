// Package archive reads exported conversation bundles: zip files holding
// the conversations document plus binary attachment entries.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

// ErrEntryMissing is returned when a named entry is not in the archive.
var ErrEntryMissing = errors.New("entry not found in archive")

// Archive is a read-only handle on an export bundle. Entry reads are
// independent of one another; no cursor state is shared between lookups.
type Archive struct {
	path string
	zr   *zip.ReadCloser
}

// Open opens the archive at path for reading.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	return &Archive{path: path, zr: zr}, nil
}

// Path returns the archive's file path.
func (a *Archive) Path() string { return a.path }

// Len returns the number of entries in the archive.
func (a *Archive) Len() int { return len(a.zr.File) }

// Entries returns all entry names in archive index order.
func (a *Archive) Entries() []string {
	names := make([]string, len(a.zr.File))
	for i, f := range a.zr.File {
		names[i] = f.Name
	}
	return names
}

// ReadEntry reads the full payload of the named entry.
// Returns ErrEntryMissing (wrapped) when no entry has that name.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	for _, f := range a.zr.File {
		if f.Name == name {
			return readFile(f)
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrEntryMissing)
}

// ReadEntryAt reads the entry at the given index, returning its name and
// full payload.
func (a *Archive) ReadEntryAt(i int) (string, []byte, error) {
	if i < 0 || i >= len(a.zr.File) {
		return "", nil, fmt.Errorf("entry index %d out of range: %w", i, ErrEntryMissing)
	}
	f := a.zr.File[i]
	data, err := readFile(f)
	if err != nil {
		return "", nil, err
	}
	return f.Name, data, nil
}

// Close releases the underlying archive file.
func (a *Archive) Close() error {
	return a.zr.Close()
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading entry %s: %w", f.Name, err)
	}
	return data, nil
}
