package types

// Standard table names for Cupboard.GetTable.
const (
	TableCategories = "categories"
	TableFields     = "fields"
	TableFieldData  = "field_data"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableCategories,
	TableFields,
	TableFieldData,
}

// ObjectUser is the objectname of user profile categories and fields.
const ObjectUser = "user"
