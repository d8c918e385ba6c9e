package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

var _ types.Table = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

var categoryFilters = []filterColumn{
	{key: "object_name", kind: "string", cond: "object_name = ?"},
	{key: "name", kind: "string", cond: "name = ?"},
}

// Get retrieves a category by ID.
func (ct *categoriesTable) Get(id int64) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	var cat types.Category
	err = db.Get(&cat, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	return &cat, nil
}

// Set persists a category. A zero id creates it, appending it after the
// existing categories of the same object type unless SortOrder is set.
// The name must be unique within the object type.
func (ct *categoriesTable) Set(id int64, data any) (int64, error) {
	cat, ok := data.(*types.Category)
	if !ok {
		return 0, types.ErrInvalidData
	}
	if err := types.ValidateCategory(cat); err != nil {
		return 0, err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return 0, err
	}

	if id != 0 {
		var exists int
		err := db.Get(&exists, "SELECT 1 FROM categories WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, types.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("checking category existence: %w", err)
		}
	}

	var dupID int64
	err = db.Get(&dupID,
		"SELECT id FROM categories WHERE object_name = ? AND name = ? AND id != ?",
		cat.ObjectName, cat.Name, id,
	)
	if err == nil {
		return 0, types.ErrDuplicateName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking category name uniqueness: %w", err)
	}

	if id == 0 {
		if cat.SortOrder == 0 {
			var max sql.NullInt64
			if err := db.Get(&max, "SELECT MAX(sort_order) FROM categories WHERE object_name = ?", cat.ObjectName); err != nil {
				return 0, fmt.Errorf("reading category sort order: %w", err)
			}
			cat.SortOrder = int(max.Int64) + 1
		}
		res, err := db.NamedExec(
			"INSERT INTO categories (object_name, name, sort_order) VALUES (:object_name, :name, :sort_order)",
			cat,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting category: %w", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading category id: %w", err)
		}
		cat.ID = newID
		return newID, nil
	}

	cat.ID = id
	if _, err := db.NamedExec(
		"UPDATE categories SET object_name = :object_name, name = :name, sort_order = :sort_order WHERE id = :id",
		cat,
	); err != nil {
		return 0, fmt.Errorf("updating category: %w", err)
	}
	return id, nil
}

// Delete removes a category. Its fields move to the category sorting just
// before it, or just after it when it is the first one. The only category
// of an object type cannot be deleted.
func (ct *categoriesTable) Delete(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return err
	}

	var cat types.Category
	err = db.Get(&cat, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting category %d: %w", id, err)
	}

	var siblings []types.Category
	if err := db.Select(&siblings,
		"SELECT "+categoryColumns+" FROM categories WHERE object_name = ? ORDER BY sort_order ASC, id ASC",
		cat.ObjectName,
	); err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	if len(siblings) <= 1 {
		return types.ErrLastCategory
	}

	var target int64
	for i, s := range siblings {
		if s.ID != id {
			continue
		}
		if i > 0 {
			target = siblings[i-1].ID
		} else {
			target = siblings[i+1].ID
		}
		break
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var moving []int64
	if err := tx.Select(&moving, "SELECT id FROM fields WHERE category_id = ? ORDER BY sort_order ASC, id ASC", id); err != nil {
		return fmt.Errorf("listing fields to move: %w", err)
	}
	if len(moving) > 0 {
		var max sql.NullInt64
		if err := tx.Get(&max, "SELECT MAX(sort_order) FROM fields WHERE category_id = ?", target); err != nil {
			return fmt.Errorf("reading target sort order: %w", err)
		}
		next := int(max.Int64)
		for _, fid := range moving {
			next++
			if _, err := tx.Exec("UPDATE fields SET category_id = ?, sort_order = ? WHERE id = ?", target, next, fid); err != nil {
				return fmt.Errorf("moving field %d: %w", fid, err)
			}
		}
	}

	if _, err := tx.Exec("DELETE FROM categories WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if err := renumber(tx, "categories", "object_name = ?", cat.ObjectName); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing category deletion: %w", err)
	}
	ct.backend.log.Debug("category deleted")
	return nil
}

// Fetch returns categories matching the filter ordered by sort order.
// Accepted keys: object_name, name.
func (ct *categoriesTable) Fetch(filter types.Filter) ([]any, error) {
	where, err := buildWhere(filter, categoryFilters)
	if err != nil {
		return nil, err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	var cats []types.Category
	query := "SELECT " + categoryColumns + " FROM categories" + where.String() + " ORDER BY sort_order ASC, id ASC"
	if err := db.Select(&cats, query, where.args...); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return toAny(cats), nil
}
