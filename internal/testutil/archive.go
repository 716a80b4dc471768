package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ArchiveEntry is one named payload inside a test archive.
type ArchiveEntry struct {
	Name string
	Data []byte
}

// WriteTestArchive writes a zip file with the given entries, in order,
// into a temp directory and returns its path. The file is cleaned up with
// the test.
func WriteTestArchive(t *testing.T, entries []ArchiveEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test archive: %v", err)
	}

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("failed to create archive entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("failed to write archive entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize test archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close test archive: %v", err)
	}

	return path
}

// MemoryArchive implements the importer's archive collaborator from an
// in-memory entry list, preserving index order.
type MemoryArchive struct {
	entries []ArchiveEntry
}

// NewMemoryArchive creates a MemoryArchive holding the given entries.
func NewMemoryArchive(entries ...ArchiveEntry) *MemoryArchive {
	return &MemoryArchive{entries: entries}
}

func (a *MemoryArchive) Entries() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.Name
	}
	return names
}

func (a *MemoryArchive) ReadEntryAt(i int) (string, []byte, error) {
	if i < 0 || i >= len(a.entries) {
		return "", nil, fmt.Errorf("entry index %d out of range", i)
	}
	return a.entries[i].Name, a.entries[i].Data, nil
}
