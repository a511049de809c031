package positions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/1broseidon/deskgrid/internal/layout"
)

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "positions.dat"), nil)

	got := s.Load()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty map, got %v", got)
	}
}

func TestStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "positions.dat")
	s := NewStore(path, nil)

	if !s.Save([]layout.Placement{
		{Key: "a", Point: layout.Point{X: 1, Y: 2}},
		{Key: "b", Point: layout.Point{X: 3, Y: 4}},
	}) {
		t.Fatalf("expected save to succeed")
	}
	got := s.Load()
	if len(got) != 2 || got["b"] != (layout.Point{X: 3, Y: 4}) {
		t.Fatalf("unexpected positions %v", got)
	}
}

func TestStore_SaveReplacesPreviousContents(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "positions.dat"), nil)

	s.Save([]layout.Placement{{Key: "old", Point: layout.Point{X: 1, Y: 1}}})
	s.Save([]layout.Placement{{Key: "new", Point: layout.Point{X: 2, Y: 2}}})

	got := s.Load()
	if _, ok := got["old"]; ok {
		t.Fatalf("expected old record to be gone, got %v", got)
	}
	if got["new"] != (layout.Point{X: 2, Y: 2}) {
		t.Fatalf("expected new record, got %v", got)
	}
}

func TestStore_LoadTruncatedFileKeepsReadableRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.dat")
	s := NewStore(path, nil)
	s.Save([]layout.Placement{
		{Key: "a", Point: layout.Point{X: 5, Y: 6}},
		{Key: "b", Point: layout.Point{X: 7, Y: 8}},
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-1], 0644); err != nil {
		t.Fatalf("failed to truncate file: %v", err)
	}

	got := s.Load()
	if len(got) != 1 || got["a"] != (layout.Point{X: 5, Y: 6}) {
		t.Fatalf("expected only a, got %v", got)
	}
}

func TestStore_SaveFailureReportsFalse(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the open fail.
	path := filepath.Join(dir, "positions.dat")
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	s := NewStore(path, nil)
	if s.Save(nil) {
		t.Fatalf("expected save to fail")
	}
}
