package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Geometry is the single record remembered between runs.
type Geometry struct {
	Window  Rect      `json:"window"`
	Frame   Rect      `json:"frame"`
	Source  string    `json:"source,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// Store persists Geometry as one JSON document.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

func (s *Store) Path() string { return s.path }

// Load returns the saved record. A missing file is not an error; ok is
// false in that case.
func (s *Store) Load() (g Geometry, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Geometry{}, false, nil
	}
	if err != nil {
		return Geometry{}, false, fmt.Errorf("read geometry: %w", err)
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return Geometry{}, false, fmt.Errorf("decode geometry %s: %w", s.path, err)
	}
	return g, true, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// truncated record behind.
func (s *Store) Save(g Geometry) error {
	if g.SavedAt.IsZero() {
		g.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encode geometry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create geometry dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".geometry-*.json")
	if err != nil {
		return fmt.Errorf("create temp geometry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write geometry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close geometry: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace geometry: %w", err)
	}
	return nil
}
