package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DefaultCategoryName is the category created for an object type that has
// no categories yet, so new fields always have somewhere to go.
const DefaultCategoryName = "Other fields"

// seedDefaultCategory creates the default category for objectName when it
// has none. Seeding is idempotent.
func seedDefaultCategory(db *sqlx.DB, objectName, name string) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM categories WHERE object_name = ?", objectName); err != nil {
		return fmt.Errorf("counting categories: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.Exec(
		"INSERT INTO categories (object_name, name, sort_order) VALUES (?, ?, 1)",
		objectName, name,
	); err != nil {
		return fmt.Errorf("inserting default category: %w", err)
	}
	return nil
}
