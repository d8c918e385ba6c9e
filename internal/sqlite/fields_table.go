package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

var _ types.Table = (*fieldsTable)(nil)

type fieldsTable struct {
	backend *Backend
}

var fieldFilters = []filterColumn{
	{key: "object_name", kind: "string", cond: "object_name = ?"},
	{key: "category_id", kind: "int", cond: "category_id = ?"},
	{key: "short_name", kind: "string", cond: "short_name = ?"},
	{key: "datatype", kind: "string", cond: "datatype = ?"},
	{key: "signup", kind: "bool", cond: "signup = ?"},
}

// Get retrieves a field definition by ID.
func (ft *fieldsTable) Get(id int64) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, err := ft.backend.conn()
	if err != nil {
		return nil, err
	}

	var f types.Field
	err = db.Get(&f, "SELECT "+fieldColumns+" FROM fields WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting field %d: %w", id, err)
	}
	return &f, nil
}

// Set persists a field definition. The category must exist and belong to
// the same object type; the short name must be unique within the object
// type. New fields are appended to their category unless SortOrder is set.
func (ft *fieldsTable) Set(id int64, data any) (int64, error) {
	f, ok := data.(*types.Field)
	if !ok {
		return 0, types.ErrInvalidData
	}
	if err := types.ValidateField(f); err != nil {
		return 0, err
	}
	db, err := ft.backend.conn()
	if err != nil {
		return 0, err
	}

	var catObject string
	err = db.Get(&catObject, "SELECT object_name FROM categories WHERE id = ?", f.CategoryID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && catObject != f.ObjectName) {
		return 0, types.ErrCategoryNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("checking field category: %w", err)
	}

	var previous types.Field
	if id != 0 {
		err := db.Get(&previous, "SELECT "+fieldColumns+" FROM fields WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, types.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("checking field existence: %w", err)
		}
	}

	var dupID int64
	err = db.Get(&dupID,
		"SELECT id FROM fields WHERE object_name = ? AND short_name = ? AND id != ?",
		f.ObjectName, f.ShortName, id,
	)
	if err == nil {
		return 0, types.ErrDuplicateShortName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking field short name uniqueness: %w", err)
	}

	moved := id != 0 && previous.CategoryID != f.CategoryID
	if (id == 0 || moved) && f.SortOrder == 0 {
		var max sql.NullInt64
		if err := db.Get(&max, "SELECT MAX(sort_order) FROM fields WHERE category_id = ?", f.CategoryID); err != nil {
			return 0, fmt.Errorf("reading field sort order: %w", err)
		}
		f.SortOrder = int(max.Int64) + 1
	}

	if id == 0 {
		res, err := db.NamedExec(`INSERT INTO fields (category_id, object_name, datatype, short_name, name, description,
			visible, required, is_unique, locked, default_data, default_data_format, signup, sort_order, param1, param2, param3)
			VALUES (:category_id, :object_name, :datatype, :short_name, :name, :description,
			:visible, :required, :is_unique, :locked, :default_data, :default_data_format, :signup, :sort_order, :param1, :param2, :param3)`,
			f,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting field: %w", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading field id: %w", err)
		}
		f.ID = newID
		return newID, nil
	}

	f.ID = id
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`UPDATE fields SET category_id = :category_id, object_name = :object_name,
		datatype = :datatype, short_name = :short_name, name = :name, description = :description,
		visible = :visible, required = :required, is_unique = :is_unique, locked = :locked,
		default_data = :default_data, default_data_format = :default_data_format, signup = :signup,
		sort_order = :sort_order, param1 = :param1, param2 = :param2, param3 = :param3
		WHERE id = :id`, f); err != nil {
		return 0, fmt.Errorf("updating field: %w", err)
	}
	if moved {
		if err := renumber(tx, "fields", "category_id = ?", previous.CategoryID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing field: %w", err)
	}
	return id, nil
}

// Delete removes a field definition together with all stored data for it.
func (ft *fieldsTable) Delete(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, err := ft.backend.conn()
	if err != nil {
		return err
	}

	var categoryID int64
	err = db.Get(&categoryID, "SELECT category_id FROM fields WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking field existence: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM field_data WHERE field_id = ?", id); err != nil {
		return fmt.Errorf("deleting field data: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM fields WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting field: %w", err)
	}
	if err := renumber(tx, "fields", "category_id = ?", categoryID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing field deletion: %w", err)
	}
	return nil
}

// Fetch returns field definitions matching the filter, ordered by sort
// order within their category. Accepted keys: object_name, category_id,
// short_name, datatype, signup.
func (ft *fieldsTable) Fetch(filter types.Filter) ([]any, error) {
	where, err := buildWhere(filter, fieldFilters)
	if err != nil {
		return nil, err
	}
	db, err := ft.backend.conn()
	if err != nil {
		return nil, err
	}

	var fields []types.Field
	query := "SELECT " + fieldColumns + " FROM fields" + where.String() + " ORDER BY category_id ASC, sort_order ASC, id ASC"
	if err := db.Select(&fields, query, where.args...); err != nil {
		return nil, fmt.Errorf("fetching fields: %w", err)
	}
	return toAny(fields), nil
}
