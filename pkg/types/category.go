package types

// Category is a named grouping of custom fields for one owning entity type.
// Name is unique within ObjectName.
type Category struct {
	ID         int64  `db:"id" json:"id"`
	ObjectName string `db:"object_name" json:"object_name" validate:"required,max=100"`
	Name       string `db:"name" json:"name" validate:"required,max=255"`
	SortOrder  int    `db:"sort_order" json:"sort_order" validate:"gte=0"`
}
