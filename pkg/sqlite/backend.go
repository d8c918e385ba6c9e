// Package sqlite exposes the SQLite storage backend to code outside this
// module while keeping its implementation internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/sqlite"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// Store is a Cupboard that can also reorder categories and fields and
// move all data to and from JSONL files.
type Store interface {
	types.Cupboard
	MoveCategory(id int64, up bool) (bool, error)
	MoveField(id int64, up bool) (bool, error)
	Export(dir string) error
	Import(dir string) error
}

// NewBackend creates a new SQLite backend instance. A nil log discards
// diagnostics. The backend is not attached; call Attach with a Config to
// initialize.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".profilefields-db",
//	})
//	defer backend.Detach()
func NewBackend(log *zap.Logger) Store {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}
