package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Visibility controls who may see a field's data.
type Visibility int

// Visibility levels. The numeric values are stored.
const (
	VisibleNone    Visibility = 0 // only callers holding the field capability
	VisiblePrivate Visibility = 1 // the owner and callers allowed to view all details
	VisibleAll     Visibility = 2 // everyone
)

var visibilityNames = map[Visibility]string{
	VisibleNone:    "none",
	VisiblePrivate: "private",
	VisibleAll:     "all",
}

// String returns the lowercase name of the visibility level.
func (v Visibility) String() string {
	if name, ok := visibilityNames[v]; ok {
		return name
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

// ParseVisibility accepts "all", "private", "none" or their stored
// numeric values.
func ParseVisibility(s string) (Visibility, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range visibilityNames {
		if s == name {
			return v, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err == nil {
		if _, ok := visibilityNames[Visibility(n)]; ok {
			return Visibility(n), nil
		}
	}
	return VisibleNone, ErrInvalidVisibility
}

// Text formats for stored field data.
const (
	FormatMoodle   = 0
	FormatHTML     = 1
	FormatPlain    = 2
	FormatMarkdown = 4
)

// Field describes one custom field: which datatype implementation handles
// it, who may see it and which constraints apply to its values.
// Param1..Param3 hold datatype specific settings.
type Field struct {
	ID                int64      `db:"id" json:"id"`
	CategoryID        int64      `db:"category_id" json:"category_id" validate:"required,gt=0"`
	ObjectName        string     `db:"object_name" json:"object_name" validate:"required,max=100"`
	Datatype          string     `db:"datatype" json:"datatype" validate:"required,alphanum,max=100"`
	ShortName         string     `db:"short_name" json:"short_name" validate:"required,alphanum,max=100"`
	Name              string     `db:"name" json:"name" validate:"required,max=255"`
	Description       string     `db:"description" json:"description,omitempty"`
	Visible           Visibility `db:"visible" json:"visible" validate:"gte=0,lte=2"`
	Required          bool       `db:"required" json:"required"`
	Unique            bool       `db:"is_unique" json:"unique"`
	Locked            bool       `db:"locked" json:"locked"`
	DefaultData       string     `db:"default_data" json:"default_data,omitempty"`
	DefaultDataFormat int        `db:"default_data_format" json:"default_data_format"`
	Signup            bool       `db:"signup" json:"signup"`
	SortOrder         int        `db:"sort_order" json:"sort_order" validate:"gte=0"`
	Param1            string     `db:"param1" json:"param1,omitempty"`
	Param2            string     `db:"param2" json:"param2,omitempty"`
	Param3            string     `db:"param3" json:"param3,omitempty"`
}
