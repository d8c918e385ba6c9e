package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

var _ types.Table = (*fieldDataTable)(nil)

type fieldDataTable struct {
	backend *Backend
}

// compareTextLength is how many leading characters the data filter compares.
const compareTextLength = 255

var fieldDataFilters = []filterColumn{
	{key: "object_name", kind: "string", cond: "object_name = ?"},
	{key: "object_id", kind: "int", cond: "object_id = ?"},
	{key: "field_id", kind: "int", cond: "field_id = ?"},
	{key: "data", kind: "string", cond: fmt.Sprintf("substr(data, 1, %d) = substr(?, 1, %d)", compareTextLength, compareTextLength)},
}

// Get retrieves a field data row by ID.
func (dt *fieldDataTable) Get(id int64) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, err := dt.backend.conn()
	if err != nil {
		return nil, err
	}

	var d types.FieldData
	err = db.Get(&d, "SELECT "+fieldDataColumns+" FROM field_data WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting field data %d: %w", id, err)
	}
	return &d, nil
}

// Set inserts (id zero) or updates a single field data row. It does not
// look for an existing row for the same object and field; callers that
// need one row per pair look it up first.
func (dt *fieldDataTable) Set(id int64, data any) (int64, error) {
	d, ok := data.(*types.FieldData)
	if !ok {
		return 0, types.ErrInvalidData
	}
	if d.FieldID <= 0 || d.ObjectID < 0 {
		return 0, types.ErrInvalidData
	}
	if d.ObjectName == "" {
		d.ObjectName = types.ObjectUser
	}
	db, err := dt.backend.conn()
	if err != nil {
		return 0, err
	}

	if id == 0 {
		res, err := db.NamedExec(
			"INSERT INTO field_data (object_name, object_id, field_id, data, data_format) VALUES (:object_name, :object_id, :field_id, :data, :data_format)",
			d,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting field data: %w", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading field data id: %w", err)
		}
		d.ID = newID
		return newID, nil
	}

	d.ID = id
	res, err := db.NamedExec(
		"UPDATE field_data SET object_name = :object_name, object_id = :object_id, field_id = :field_id, data = :data, data_format = :data_format WHERE id = :id",
		d,
	)
	if err != nil {
		return 0, fmt.Errorf("updating field data: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, types.ErrNotFound
	}
	return id, nil
}

// Delete removes a field data row.
func (dt *fieldDataTable) Delete(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, err := dt.backend.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec("DELETE FROM field_data WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting field data: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns field data rows matching the filter ordered by id.
// Accepted keys: object_name, object_id, field_id and data. The data key
// compares only the first 255 characters, so long text values can be
// matched without comparing whole blobs.
func (dt *fieldDataTable) Fetch(filter types.Filter) ([]any, error) {
	where, err := buildWhere(filter, fieldDataFilters)
	if err != nil {
		return nil, err
	}
	db, err := dt.backend.conn()
	if err != nil {
		return nil, err
	}

	var rows []types.FieldData
	query := "SELECT " + fieldDataColumns + " FROM field_data" + where.String() + " ORDER BY id ASC"
	if err := db.Select(&rows, query, where.args...); err != nil {
		return nil, fmt.Errorf("fetching field data: %w", err)
	}
	return toAny(rows), nil
}
