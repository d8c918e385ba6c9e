package profile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// Field is implemented by every datatype. Base provides a default for
// each method except EditFieldAdd, which datatypes must supply.
type Field interface {
	// FieldBase returns the shared state and fixed behaviours.
	FieldBase() *Base

	// EditFieldAdd adds the datatype's widget to the form.
	EditFieldAdd(f *form.Form) error
	// EditFieldSetDefault sets the widget default.
	EditFieldSetDefault(f *form.Form)
	// EditFieldSetRequired attaches the required rule.
	EditFieldSetRequired(f *form.Form)
	// EditFieldSetLocked freezes the widget for callers who may not
	// change it.
	EditFieldSetLocked(f *form.Form)
	// DisplayData returns the stored value as HTML.
	DisplayData() string
	// EditSaveDataPreprocess converts a submitted value to its stored
	// form. It may adjust rec, for example its format.
	EditSaveDataPreprocess(value string, rec *types.FieldData) string
	// EditLoadUserData copies the stored value into form values.
	EditLoadUserData(values form.Submission)
	// IsUserObjectData reports whether the value belongs in the user
	// record's profile mapping.
	IsUserObjectData() bool
	// IsEmpty reports whether there is no value to display.
	IsEmpty() bool
}

// Base is embedded by every datatype.
type Base struct {
	FieldID    int64
	ObjectID   int64
	Field      *types.Field
	InputName  string
	Data       string
	HasData    bool
	DataFormat int

	page       *Page
	capability string
}

func newBase(page *Page, fieldID, objectID int64) *Base {
	return &Base{
		FieldID:    fieldID,
		ObjectID:   objectID,
		page:       page,
		capability: access.CapUserUpdate,
	}
}

// FieldBase implements Field.
func (b *Base) FieldBase() *Base { return b }

// Page returns the collaborators the field was created with.
func (b *Base) Page() *Page { return b.page }

// LoadData reads the field definition and the object's stored value. A
// missing field, or one belonging to another object type, leaves Field
// nil. Without a stored value Data falls back to the field default.
func (b *Base) LoadData() error {
	b.Field = nil
	b.InputName = ""
	b.Data = ""
	b.HasData = false

	if b.FieldID != 0 {
		fields, err := b.page.table(types.TableFields)
		if err != nil {
			return err
		}
		row, err := fields.Get(b.FieldID)
		switch {
		case err == nil:
			if f := row.(*types.Field); f.ObjectName == types.ObjectUser {
				b.Field = f
				b.InputName = InputPrefix + f.ShortName
			}
		case !isNotFound(err):
			return fmt.Errorf("loading field %d: %w", b.FieldID, err)
		}
	}
	if b.Field == nil {
		return nil
	}

	data, err := b.page.table(types.TableFieldData)
	if err != nil {
		return err
	}
	rows, err := data.Fetch(types.Filter{"object_id": b.ObjectID, "field_id": b.FieldID})
	if err != nil {
		return fmt.Errorf("loading data for field %d: %w", b.FieldID, err)
	}
	if len(rows) > 0 {
		d := rows[0].(*types.FieldData)
		b.Data = d.Data
		b.DataFormat = d.DataFormat
	} else {
		b.Data = b.Field.DefaultData
		b.DataFormat = types.FormatHTML
	}
	b.HasData = true
	return nil
}

// IsVisible reports whether the caller may see this field's data.
func (b *Base) IsVisible() bool {
	if b.Field == nil {
		return false
	}
	p := b.page
	switch b.Field.Visible {
	case types.VisibleAll:
		return true
	case types.VisiblePrivate:
		if b.ObjectID == p.Caller.UserID {
			return true
		}
		return p.can(access.CapViewAllDetails, access.UserScope(b.ObjectID))
	default:
		return p.can(b.capability, access.UserScope(b.ObjectID))
	}
}

func (b *Base) IsRequired() bool { return b.Field != nil && b.Field.Required }
func (b *Base) IsLocked() bool   { return b.Field != nil && b.Field.Locked }
func (b *Base) IsUnique() bool   { return b.Field != nil && b.Field.Unique }

// EditFieldAdd is the fallback for datatypes that do not add a widget.
func (b *Base) EditFieldAdd(f *form.Form) error {
	b.page.logger().Debug("datatype does not add a form widget",
		zap.Int64("field_id", b.FieldID))
	return ErrMustBeOverridden
}

// EditFieldSetDefault sets the field default when one is configured.
func (b *Base) EditFieldSetDefault(f *form.Form) {
	if b.Field.DefaultData != "" {
		f.SetDefault(b.InputName, b.Field.DefaultData)
	}
}

// EditFieldSetRequired adds the required rule when the field is required
// and callers are editing their own profile.
func (b *Base) EditFieldSetRequired(f *form.Form) {
	if b.IsRequired() && b.ObjectID == b.page.Caller.UserID {
		f.AddRule(b.InputName, b.page.str("required"), form.RuleRequired, "")
	}
}

// EditFieldSetLocked hard-freezes a locked field to its stored value for
// callers without the update capability.
func (b *Base) EditFieldSetLocked(f *form.Form) {
	if !f.ElementExists(b.InputName) {
		return
	}
	if b.IsLocked() && !b.page.can(access.CapUserUpdate, access.SystemScope()) {
		f.HardFreeze(b.InputName)
		f.SetConstant(b.InputName, b.Data)
	}
}

// DisplayData formats the stored value without paragraph wrapping.
func (b *Base) DisplayData() string {
	return FormatText(b.Data, types.FormatMoodle)
}

// EditSaveDataPreprocess returns value unchanged.
func (b *Base) EditSaveDataPreprocess(value string, rec *types.FieldData) string {
	return value
}

// EditLoadUserData copies the stored value into values.
func (b *Base) EditLoadUserData(values form.Submission) {
	if b.HasData {
		values[b.InputName] = b.Data
	}
}

// IsUserObjectData reports true; datatypes holding large values override it.
func (b *Base) IsUserObjectData() bool { return true }

// IsEmpty reports whether there is no value. "0" counts as a value.
func (b *Base) IsEmpty() bool { return b.Data == "" }

// EditField adds the field's widget, default and required rule when the
// field is visible to someone or the caller may update users. It reports
// whether the widget was added.
func EditField(fl Field, f *form.Form) (bool, error) {
	b := fl.FieldBase()
	if b.Field == nil {
		return false, nil
	}
	if b.Field.Visible == types.VisibleNone && !b.page.can(access.CapUserUpdate, access.SystemScope()) {
		return false, nil
	}
	if err := fl.EditFieldAdd(f); err != nil {
		return false, fmt.Errorf("field %s: %w", b.Field.ShortName, err)
	}
	fl.EditFieldSetDefault(f)
	fl.EditFieldSetRequired(f)
	return true, nil
}

// EditAfterData applies the lock once form data is loaded. It reports
// whether the field was considered.
func EditAfterData(fl Field, f *form.Form) bool {
	b := fl.FieldBase()
	if b.Field == nil {
		return false
	}
	if b.Field.Visible == types.VisibleNone && !b.page.can(access.CapUserUpdate, access.SystemScope()) {
		return false
	}
	fl.EditFieldSetLocked(f)
	return true
}

// EditSaveData stores the submitted value, updating the object's existing
// row for the field or inserting one. Fields absent from the submission
// are skipped.
func EditSaveData(fl Field, sub form.Submission) error {
	b := fl.FieldBase()
	if b.Field == nil {
		return nil
	}
	value, ok := sub.Lookup(b.InputName)
	if !ok {
		return nil
	}

	rec := &types.FieldData{
		ObjectName: types.ObjectUser,
		ObjectID:   b.ObjectID,
		FieldID:    b.Field.ID,
	}
	value = fl.EditSaveDataPreprocess(value, rec)
	sub[b.InputName] = value
	rec.Data = value

	data, err := b.page.table(types.TableFieldData)
	if err != nil {
		return err
	}
	rows, err := data.Fetch(types.Filter{"object_id": rec.ObjectID, "field_id": rec.FieldID})
	if err != nil {
		return fmt.Errorf("looking up data for field %s: %w", b.Field.ShortName, err)
	}
	var id int64
	if len(rows) > 0 {
		id = rows[0].(*types.FieldData).ID
	}
	if _, err := data.Set(id, rec); err != nil {
		return fmt.Errorf("saving field %s: %w", b.Field.ShortName, err)
	}
	b.page.logger().Debug("saved profile field",
		zap.String("field", b.Field.ShortName),
		zap.Int64("object_id", rec.ObjectID),
		zap.Bool("update", id != 0))
	return nil
}

// EditValidateField checks uniqueness. A unique field rejects a value
// already stored for another object; an object re-submitting its own
// value passes. The check runs for non-empty values, and for empty ones
// when the field is required.
func EditValidateField(fl Field, sub form.Submission) (map[string]string, error) {
	b := fl.FieldBase()
	errs := make(map[string]string)
	if b.Field == nil || !b.IsUnique() {
		return errs, nil
	}
	value := sub[b.InputName]
	if value == "" && !b.IsRequired() {
		return errs, nil
	}
	if value != "" {
		value = fl.EditSaveDataPreprocess(value, &types.FieldData{})
	}

	data, err := b.page.table(types.TableFieldData)
	if err != nil {
		return nil, err
	}
	rows, err := data.Fetch(types.Filter{"field_id": b.Field.ID, "data": value})
	if err != nil {
		return nil, fmt.Errorf("checking uniqueness of %s: %w", b.Field.ShortName, err)
	}
	if len(rows) == 0 {
		return errs, nil
	}
	for _, row := range rows {
		if row.(*types.FieldData).ObjectID == b.ObjectID {
			return errs, nil
		}
	}
	errs[b.InputName] = b.page.str("valuealreadyused")
	return errs, nil
}
