package repository

import (
	"fmt"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/repository/jsonfile"
	"github.com/jaakkos/whiteboard/internal/repository/sqlite"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// NewDocumentRepository returns the DocumentRepository for backend at path.
// The path is typically from policy.DataFile() (default ./whiteboardData.json).
func NewDocumentRepository(backend, path string) (app.DocumentRepository, error) {
	switch backend {
	case "", BackendJSON:
		return jsonfile.New(path), nil
	case BackendSQLite:
		st, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
