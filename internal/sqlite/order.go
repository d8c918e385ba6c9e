package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// renumber rewrites sort_order as 1..n for the rows of table matching
// where, keeping their current relative order.
func renumber(tx *sqlx.Tx, table, where string, arg any) error {
	var ids []int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s ORDER BY sort_order ASC, id ASC", table, where)
	if err := tx.Select(&ids, query, arg); err != nil {
		return fmt.Errorf("listing %s for renumbering: %w", table, err)
	}
	update := fmt.Sprintf("UPDATE %s SET sort_order = ? WHERE id = ?", table)
	for i, id := range ids {
		if _, err := tx.Exec(update, i+1, id); err != nil {
			return fmt.Errorf("renumbering %s %d: %w", table, id, err)
		}
	}
	return nil
}

// MoveCategory swaps a category with its neighbour among the categories of
// the same object type. It reports false when the category is already
// first (up) or last (down).
func (b *Backend) MoveCategory(id int64, up bool) (bool, error) {
	return b.move("categories", "object_name", id, up)
}

// MoveField swaps a field with its neighbour inside its category. It
// reports false when the field is already at that end.
func (b *Backend) MoveField(id int64, up bool) (bool, error) {
	return b.move("fields", "category_id", id, up)
}

func (b *Backend) move(table, groupColumn string, id int64, up bool) (bool, error) {
	if id <= 0 {
		return false, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return false, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var group any
	err = tx.Get(&group, fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", groupColumn, table), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, types.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("reading %s %d: %w", table, id, err)
	}

	// Normalise first so neighbours differ by exactly one.
	if err := renumber(tx, table, groupColumn+" = ?", group); err != nil {
		return false, err
	}

	var ids []int64
	if err := tx.Select(&ids,
		fmt.Sprintf("SELECT id FROM %s WHERE %s = ? ORDER BY sort_order ASC, id ASC", table, groupColumn),
		group,
	); err != nil {
		return false, fmt.Errorf("listing %s: %w", table, err)
	}

	pos := -1
	for i, v := range ids {
		if v == id {
			pos = i
			break
		}
	}
	other := pos + 1
	if up {
		other = pos - 1
	}
	if pos < 0 || other < 0 || other >= len(ids) {
		return false, nil
	}

	update := fmt.Sprintf("UPDATE %s SET sort_order = ? WHERE id = ?", table)
	if _, err := tx.Exec(update, other+1, ids[pos]); err != nil {
		return false, fmt.Errorf("moving %s %d: %w", table, id, err)
	}
	if _, err := tx.Exec(update, pos+1, ids[other]); err != nil {
		return false, fmt.Errorf("moving %s %d: %w", table, ids[other], err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing move: %w", err)
	}
	return true, nil
}
