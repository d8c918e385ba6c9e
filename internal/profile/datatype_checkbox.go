package profile

import (
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func init() {
	Register("checkbox", func(b *Base) Field { return &checkboxField{Base: b} })
}

// checkboxField stores "1" when checked and "0" otherwise.
type checkboxField struct {
	*Base
}

func (c *checkboxField) EditFieldAdd(f *form.Form) error {
	f.AddElement(form.KindCheckbox, c.InputName, c.Field.Name)
	f.SetType(c.InputName, form.ParamBool)
	if c.Data == "1" {
		f.SetDefault(c.InputName, "1")
	}
	return nil
}

func (c *checkboxField) EditSaveDataPreprocess(value string, rec *types.FieldData) string {
	return form.Clean(value, form.ParamBool)
}

func (c *checkboxField) DisplayData() string {
	if c.Data == "1" {
		return c.page.str("yes")
	}
	return c.page.str("no")
}
