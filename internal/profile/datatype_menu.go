package profile

import (
	"html"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func init() {
	Register("menu", func(b *Base) Field { return &menuField{Base: b} })
}

// menuField offers the newline separated options in Param1. The form
// works with option indexes; the stored value is the option text.
type menuField struct {
	*Base
}

func (m *menuField) options() []string {
	var out []string
	for _, line := range strings.Split(m.Field.Param1, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// key returns the option index of text, or "" when it is not an option.
func (m *menuField) key(text string) string {
	for i, opt := range m.options() {
		if opt == text {
			return strconv.Itoa(i)
		}
	}
	return ""
}

func (m *menuField) EditFieldAdd(f *form.Form) error {
	var opts []form.Option
	if !m.Field.Required {
		opts = append(opts, form.Option{Value: "", Label: m.page.str("choose")})
	}
	for i, opt := range m.options() {
		opts = append(opts, form.Option{Value: strconv.Itoa(i), Label: opt})
	}
	f.AddElement(form.KindSelect, m.InputName, m.Field.Name, form.WithOptions(opts))
	f.SetType(m.InputName, form.ParamRaw)
	f.AddRule(m.InputName, m.page.str("invalidoption"), form.RuleOption, "")
	return nil
}

func (m *menuField) EditFieldSetDefault(f *form.Form) {
	f.SetDefault(m.InputName, m.key(m.Field.DefaultData))
}

func (m *menuField) EditFieldSetLocked(f *form.Form) {
	if !f.ElementExists(m.InputName) {
		return
	}
	if m.IsLocked() && !m.page.can(access.CapUserUpdate, access.SystemScope()) {
		f.HardFreeze(m.InputName)
		if k := m.key(m.Data); k != "" || m.Data == "" {
			f.SetConstant(m.InputName, k)
		} else {
			// The stored text is no longer an option.
			f.SetConstant(m.InputName, m.Data)
		}
	}
}

func (m *menuField) EditLoadUserData(values form.Submission) {
	if m.HasData {
		values[m.InputName] = m.key(m.Data)
	}
}

// EditSaveDataPreprocess maps an option index to its text. An empty value
// clears the field; anything else that is not an index keeps what is
// stored.
func (m *menuField) EditSaveDataPreprocess(value string, rec *types.FieldData) string {
	if value == "" {
		return ""
	}
	opts := m.options()
	if i, err := strconv.Atoi(value); err == nil && i >= 0 && i < len(opts) {
		return opts[i]
	}
	return m.Data
}

func (m *menuField) DisplayData() string {
	return html.EscapeString(m.Data)
}
