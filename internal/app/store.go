package app

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jaakkos/whiteboard/internal/domain"
)

// DocumentStore is the single source of truth for the shared whiteboard document.
// It is built once at startup and handed to every handler.
//
// Reads only take the read lock on the document slot. Replace holds writeMu for
// the whole assign+persist sequence, so persisted order matches assignment order.
type DocumentStore struct {
	repo   DocumentRepository
	logger *log.Logger

	mu  sync.RWMutex
	doc domain.Document

	writeMu   sync.Mutex
	lastSaved domain.Document // what this process last wrote or loaded; guarded by writeMu
	loaded    bool            // lastSaved mirrors storage; guarded by writeMu
}

// NewDocumentStore returns a store holding the empty document. Call Load to read storage.
func NewDocumentStore(repo DocumentRepository, logger *log.Logger) *DocumentStore {
	return &DocumentStore{repo: repo, logger: logger, doc: domain.EmptyDocument()}
}

// Load reads persisted state once at startup. A missing document starts empty;
// a document that cannot be read or parsed is logged and also starts empty.
func (s *DocumentStore) Load() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.repo.Load()
	switch {
	case errors.Is(err, ErrNoDocument):
		s.logf("No saved whiteboard data, starting empty.")
		doc = domain.EmptyDocument()
	case err != nil:
		s.logf("Failed to read JSON data: %v", err)
		doc = domain.EmptyDocument()
	default:
		s.logf("Loaded whiteboard data from file.")
		s.lastSaved = doc
		s.loaded = true
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

// Get returns the current document. It never fails and has no side effects.
func (s *DocumentStore) Get() domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Replace makes doc the current document and synchronously persists it.
// The in-memory document is updated before the write, so on a persist error
// memory and storage disagree until the next successful Replace.
func (s *DocumentStore) Replace(doc domain.Document) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	if err := s.repo.Save(doc); err != nil {
		s.loaded = false
		return fmt.Errorf("persist whiteboard: %w", err)
	}
	s.lastSaved = doc
	s.loaded = true
	return nil
}

// Reload re-reads storage and adopts the persisted document when it differs from
// what this process last wrote. It reports whether the in-memory document changed.
// A missing or unparseable document leaves memory untouched.
func (s *DocumentStore) Reload() (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.repo.Load()
	if errors.Is(err, ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload whiteboard: %w", err)
	}
	if s.loaded && doc.Equal(s.lastSaved) {
		return false, nil
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	s.lastSaved = doc
	s.loaded = true
	return true, nil
}

// Elements returns the typed elements of the current document.
func (s *DocumentStore) Elements() ([]domain.Element, error) {
	b, err := s.Get().Board()
	if err != nil {
		return nil, err
	}
	return b.Elements, nil
}

// ElementCount returns the number of elements, or 0 when the document
// does not follow the element contract.
func (s *DocumentStore) ElementCount() int {
	elements, err := s.Elements()
	if err != nil {
		return 0
	}
	return len(elements)
}

func (s *DocumentStore) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
