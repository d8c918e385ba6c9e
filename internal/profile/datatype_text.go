package profile

import (
	"html"
	"strconv"

	"github.com/mesh-intelligence/profilefields/internal/form"
)

func init() {
	Register("text", func(b *Base) Field { return &textField{Base: b} })
}

const (
	defaultTextSize      = 30
	defaultTextMaxLength = 2048
)

// textField is a single-line input. Param1 is the display size and
// Param2 the maximum length.
type textField struct {
	*Base
}

func (t *textField) EditFieldAdd(f *form.Form) error {
	size := paramInt(t.Field.Param1, defaultTextSize)
	maxLength := paramInt(t.Field.Param2, defaultTextMaxLength)

	f.AddElement(form.KindText, t.InputName, t.Field.Name,
		form.WithAttr("size", strconv.Itoa(size)),
		form.WithAttr("maxlength", strconv.Itoa(maxLength)))
	f.SetType(t.InputName, form.ParamText)
	f.AddRule(t.InputName, t.page.str("maximumchars", maxLength), form.RuleMaxLength, strconv.Itoa(maxLength))
	return nil
}

func (t *textField) DisplayData() string {
	return html.EscapeString(t.Data)
}

func paramInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
