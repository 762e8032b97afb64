// Package jsonfile persists the whiteboard document as a pretty-printed JSON file.
package jsonfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/domain"
)

// Store implements app.DocumentRepository on a single JSON file.
type Store struct {
	path string
}

// New returns a Store for the file at path. The file and its directory are
// created on the first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Load implements app.DocumentRepository. It returns app.ErrNoDocument when the
// file does not exist.
func (s *Store) Load() (domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Document{}, app.ErrNoDocument
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return doc, nil
}

// Save implements app.DocumentRepository. The whole file is overwritten through
// a temp file in the same directory and a rename.
func (s *Store) Save(doc domain.Document) error {
	body, err := doc.Indent()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
