// Package app implements the whiteboard use cases and defines ports (repository interfaces).
package app

import (
	"errors"

	"github.com/jaakkos/whiteboard/internal/domain"
)

// ErrNoDocument is returned by DocumentRepository.Load when nothing has been persisted yet.
var ErrNoDocument = errors.New("no persisted document")

// DocumentRepository loads and saves the whole whiteboard document.
// Implementations: internal/repository/jsonfile, internal/repository/sqlite.
type DocumentRepository interface {
	Load() (domain.Document, error)
	Save(domain.Document) error
}
