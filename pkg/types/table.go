package types

import "errors"

// Table provides uniform CRUD operations for a single entity type.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id int64) (any, error)

	// Set creates or updates an entity. When id is zero a new row is
	// inserted. Returns the actual ID used (generated or provided).
	Set(id int64, data any) (int64, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(id int64) error

	// Fetch returns all entities matching the filter. An empty filter
	// returns every entity in the table.
	Fetch(filter Filter) ([]any, error)
}

// Filter selects rows by column name. Each table documents the keys it
// accepts; an unknown key or a value of the wrong type is ErrInvalidFilter.
type Filter map[string]any

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter value type")
)

// Entity errors.
var (
	ErrInvalidName        = errors.New("invalid name")
	ErrDuplicateName      = errors.New("name already in use")
	ErrDuplicateShortName = errors.New("short name already in use")
	ErrUnknownDatatype    = errors.New("unknown field datatype")
	ErrInvalidVisibility  = errors.New("invalid visibility")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrLastCategory       = errors.New("cannot delete the only category")
)
