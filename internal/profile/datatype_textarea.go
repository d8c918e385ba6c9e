package profile

import (
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func init() {
	Register("textarea", func(b *Base) Field { return &textareaField{Base: b} })
}

// textareaField holds long formatted text. Its value stays out of the
// user record because it may be large.
type textareaField struct {
	*Base
}

func (t *textareaField) EditFieldAdd(f *form.Form) error {
	f.AddElement(form.KindTextarea, t.InputName, t.Field.Name,
		form.WithAttr("rows", "10"))
	f.SetType(t.InputName, form.ParamRaw)
	return nil
}

func (t *textareaField) EditSaveDataPreprocess(value string, rec *types.FieldData) string {
	rec.DataFormat = types.FormatHTML
	return value
}

func (t *textareaField) DisplayData() string {
	return FormatText(t.Data, t.DataFormat)
}

func (t *textareaField) IsUserObjectData() bool { return false }
