package positions

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/1broseidon/deskgrid/internal/layout"
)

// DefaultFileName is the position file name used when no path is configured.
const DefaultFileName = "positions.dat"

// Store reads and writes the position file. Failures never propagate: a
// missing or unreadable file means "no saved layout", and a failed write is
// logged and dropped.
type Store struct {
	Path   string
	logger *slog.Logger
}

// NewStore creates a store for path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Path: path, logger: logger}
}

// DefaultPath returns positions.dat next to the running executable, or in
// the working directory if the executable cannot be located.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// Load returns the saved placements, or an empty map.
func (s *Store) Load() map[string]layout.Point {
	fh, err := os.Open(s.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to open position file", "path", s.Path, "error", err)
		}
		return map[string]layout.Point{}
	}
	defer fh.Close()

	out, err := Decode(fh)
	if err != nil {
		s.logger.Warn("position file damaged, keeping readable records", "path", s.Path, "records", len(out), "error", err)
	}
	if out == nil {
		out = map[string]layout.Point{}
	}
	return out
}

// Save replaces the file with records. It reports whether the write
// succeeded; errors are logged.
func (s *Store) Save(records []layout.Placement) bool {
	if err := s.write(records); err != nil {
		s.logger.Warn("failed to save positions", "path", s.Path, "error", err)
		return false
	}
	s.logger.Debug("positions saved", "path", s.Path, "records", len(records))
	return true
}

func (s *Store) write(records []layout.Placement) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create position directory: %w", err)
		}
	}
	fh, err := os.OpenFile(s.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open position file: %w", err)
	}
	if err := Encode(fh, records); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("failed to close position file: %w", err)
	}
	return nil
}
