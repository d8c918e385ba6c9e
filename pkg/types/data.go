package types

// FieldData is the stored value of one field for one entity instance.
// At most one row exists per (ObjectID, FieldID); the profile layer keeps
// that true by looking up before inserting.
type FieldData struct {
	ID         int64  `db:"id" json:"id"`
	ObjectName string `db:"object_name" json:"object_name"`
	ObjectID   int64  `db:"object_id" json:"object_id"`
	FieldID    int64  `db:"field_id" json:"field_id"`
	Data       string `db:"data" json:"data"`
	DataFormat int    `db:"data_format" json:"data_format"`
}
