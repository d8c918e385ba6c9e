// Package sqlite implements the SQLite storage backend for profile
// categories, field definitions and field data.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// DatabaseFile is the SQLite file created inside Config.DataDir.
const DatabaseFile = "profilefields.db"

var _ types.Cupboard = (*Backend)(nil)

// Backend implements the Cupboard interface on a SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
	tables   map[string]types.Table
	log      *zap.Logger

	// defaultCategory names the category seeded for an object type that
	// has none.
	defaultCategory string
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for storage diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// WithDefaultCategory sets the name of the seeded default category.
func WithDefaultCategory(name string) Option {
	return func(b *Backend) {
		if name != "" {
			b.defaultCategory = name
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables:          make(map[string]types.Table),
		log:             zap.NewNop(),
		defaultCategory: DefaultCategoryName,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns a Table interface for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrCupboardDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCupboardDetached
	}

	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, opens the database file, applies
// the schema and seeds the default user category.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// One connection keeps SQLite writers from contending for the file lock.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return err
	}

	if err := seedDefaultCategory(db, types.ObjectUser, b.defaultCategory); err != nil {
		db.Close()
		return fmt.Errorf("seeding default category: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true

	b.tables[types.TableCategories] = &categoriesTable{backend: b}
	b.tables[types.TableFields] = &fieldsTable{backend: b}
	b.tables[types.TableFieldData] = &fieldDataTable{backend: b}

	b.log.Debug("backend attached", zap.String("path", dbPath))
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrCupboardDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]types.Table)
	b.log.Debug("backend detached")
	return nil
}

// conn returns the open database or ErrCupboardDetached.
func (b *Backend) conn() (*sqlx.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrCupboardDetached
	}
	return b.db, nil
}

// SignupFields returns signup-eligible visible fields with their category,
// ordered by category sort order then field sort order.
func (b *Backend) SignupFields(objectName string) ([]types.SignupField, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	var out []types.SignupField
	err = db.Select(&out, `SELECT f.id AS field_id, c.id AS category_id, c.name AS category_name, f.datatype
		FROM fields f
		JOIN categories c ON f.category_id = c.id
		WHERE c.object_name = ? AND f.signup = 1 AND f.visible <> 0
		ORDER BY c.sort_order ASC, f.sort_order ASC`, objectName)
	if err != nil {
		return nil, fmt.Errorf("fetching signup fields: %w", err)
	}
	if out == nil {
		out = []types.SignupField{}
	}
	return out, nil
}

func applySchema(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying index: %w", err)
		}
	}
	return nil
}
