package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/domain"
)

// documentName is the row holding the shared whiteboard.
const documentName = "whiteboard"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store implements app.DocumentRepository using SQLite.
type Store struct {
	db *sql.DB
}

// New opens the SQLite database at path (creating parent dirs and schema).
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection. Call on shutdown for clean exit.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Load implements app.DocumentRepository.
func (s *Store) Load() (domain.Document, error) {
	var body string
	err := s.db.QueryRow("SELECT body FROM documents WHERE name = ?", documentName).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, app.ErrNoDocument
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("documents: %w", err)
	}
	doc, err := domain.ParseDocument([]byte(body))
	if err != nil {
		return domain.Document{}, fmt.Errorf("documents %s: %w", documentName, err)
	}
	return doc, nil
}

// Save implements app.DocumentRepository.
func (s *Store) Save(doc domain.Document) error {
	_, err := s.db.Exec(`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		documentName, string(doc.Bytes()), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	return nil
}

// UpdatedAt returns when the document was last saved. ok is false when nothing is stored.
func (s *Store) UpdatedAt() (t time.Time, ok bool, err error) {
	var ts string
	err = s.db.QueryRow("SELECT updated_at FROM documents WHERE name = ?", documentName).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("documents: %w", err)
	}
	t, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("documents: parse timestamp %q: %w", ts, err)
	}
	return t, true, nil
}
