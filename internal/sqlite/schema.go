package sqlite

// Schema DDL for all tables. Statements are idempotent so Attach can run
// them against an existing database file.
const (
	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    object_name TEXT NOT NULL,
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);`

	createFields = `CREATE TABLE IF NOT EXISTS fields (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    category_id INTEGER NOT NULL,
    object_name TEXT NOT NULL,
    datatype TEXT NOT NULL,
    short_name TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    visible INTEGER NOT NULL DEFAULT 0,
    required INTEGER NOT NULL DEFAULT 0,
    is_unique INTEGER NOT NULL DEFAULT 0,
    locked INTEGER NOT NULL DEFAULT 0,
    default_data TEXT NOT NULL DEFAULT '',
    default_data_format INTEGER NOT NULL DEFAULT 0,
    signup INTEGER NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0,
    param1 TEXT NOT NULL DEFAULT '',
    param2 TEXT NOT NULL DEFAULT '',
    param3 TEXT NOT NULL DEFAULT ''
);`

	// field_data deliberately has no unique (object_id, field_id) index;
	// the profile layer keeps one row per pair by looking up first.
	createFieldData = `CREATE TABLE IF NOT EXISTS field_data (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    object_name TEXT NOT NULL DEFAULT 'user',
    object_id INTEGER NOT NULL,
    field_id INTEGER NOT NULL,
    data TEXT NOT NULL DEFAULT '',
    data_format INTEGER NOT NULL DEFAULT 0
);`
)

// Index DDL for common queries.
const (
	idxCategoriesObject   = `CREATE INDEX IF NOT EXISTS idx_categories_object ON categories(object_name, sort_order);`
	idxFieldsCategory     = `CREATE INDEX IF NOT EXISTS idx_fields_category ON fields(category_id, sort_order);`
	idxFieldsObject       = `CREATE INDEX IF NOT EXISTS idx_fields_object ON fields(object_name);`
	idxFieldDataObject    = `CREATE INDEX IF NOT EXISTS idx_field_data_object ON field_data(object_id, field_id);`
	idxFieldDataFieldData = `CREATE INDEX IF NOT EXISTS idx_field_data_field ON field_data(field_id);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createCategories,
	createFields,
	createFieldData,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCategoriesObject,
	idxFieldsCategory,
	idxFieldsObject,
	idxFieldDataObject,
	idxFieldDataFieldData,
}

// Column lists shared by the table accessors and JSONL import.
const (
	categoryColumns  = "id, object_name, name, sort_order"
	fieldColumns     = "id, category_id, object_name, datatype, short_name, name, description, visible, required, is_unique, locked, default_data, default_data_format, signup, sort_order, param1, param2, param3"
	fieldDataColumns = "id, object_name, object_id, field_id, data, data_format"
)
