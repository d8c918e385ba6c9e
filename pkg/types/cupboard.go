package types

import "errors"

// Cupboard defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by name, and detach when done.
type Cupboard interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// SignupFields returns the signup-eligible, not hidden fields of
	// objectName joined with their category, ordered by category sort
	// order then field sort order.
	SignupFields(objectName string) ([]SignupField, error)

	// Attach connects the Cupboard to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrCupboardDetached.
	Detach() error
}

// SignupField is one row of the signup join query.
type SignupField struct {
	FieldID      int64  `db:"field_id"`
	CategoryID   int64  `db:"category_id"`
	CategoryName string `db:"category_name"`
	Datatype     string `db:"datatype"`
}

// Cupboard lifecycle errors.
var (
	ErrCupboardDetached = errors.New("cupboard is detached")
	ErrAlreadyAttached  = errors.New("cupboard is already attached")
	ErrTableNotFound    = errors.New("table not found")
)
