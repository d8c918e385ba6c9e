package category

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/internal/i18n"
	"github.com/mesh-intelligence/profilefields/internal/sqlite"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func newCupboard(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func translator(t *testing.T) *i18n.Printer {
	t.Helper()
	bundle, err := i18n.Load()
	require.NoError(t, err)
	return bundle.Printer("en-US")
}

func TestDefinition(t *testing.T) {
	f := form.New("/admin/categories/edit")
	Definition(f, translator(t))

	require.True(t, f.ElementExists("id"))
	require.True(t, f.ElementExists("action"))
	require.True(t, f.ElementExists("name"))
	assert.Equal(t, form.KindHidden, f.Element("id").Kind)
	assert.Equal(t, form.ParamInt, f.Element("id").Type())
	assert.Equal(t, ActionEdit, f.Value("action"))
	assert.Equal(t, form.ParamAlphaNumExt, f.Element("action").Type())
	assert.Equal(t, "255", f.Element("name").Attrs["maxlength"])
	assert.True(t, f.Required("name"))

	sub := f.Bind(url.Values{"id": {"0"}, "action": {"editcategory"}, "name": {""}})
	assert.Equal(t, map[string]string{"name": "Required"}, f.Validate(sub))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *sqlite.Backend, tr Translator)
	}{
		{
			name: "new category with unused name passes",
			check: func(t *testing.T, b *sqlite.Backend, tr Translator) {
				errs, err := Validate(b, types.ObjectUser, form.Submission{"name": "Contact"}, tr)
				require.NoError(t, err)
				assert.Empty(t, errs)
			},
		},
		{
			name: "new category with duplicate name fails",
			check: func(t *testing.T, b *sqlite.Backend, tr Translator) {
				errs, err := Validate(b, types.ObjectUser, form.Submission{"name": sqlite.DefaultCategoryName}, tr)
				require.NoError(t, err)
				assert.Equal(t, "This category name is already in use", errs["name"])
			},
		},
		{
			name: "duplicate in another object type is allowed",
			check: func(t *testing.T, b *sqlite.Backend, tr Translator) {
				errs, err := Validate(b, "course", form.Submission{"name": sqlite.DefaultCategoryName}, tr)
				require.NoError(t, err)
				assert.Empty(t, errs)
			},
		},
		{
			name: "rename to own name passes",
			check: func(t *testing.T, b *sqlite.Backend, tr Translator) {
				c, err := Save(b, types.ObjectUser, form.Submission{"name": "Contact"})
				require.NoError(t, err)
				errs, err := Validate(b, types.ObjectUser, form.Submission{"id": idString(c.ID), "name": "Contact"}, tr)
				require.NoError(t, err)
				assert.Empty(t, errs)
			},
		},
		{
			name: "rename to another category's name fails",
			check: func(t *testing.T, b *sqlite.Backend, tr Translator) {
				c, err := Save(b, types.ObjectUser, form.Submission{"name": "Contact"})
				require.NoError(t, err)
				errs, err := Validate(b, types.ObjectUser, form.Submission{"id": idString(c.ID), "name": sqlite.DefaultCategoryName}, tr)
				require.NoError(t, err)
				assert.Contains(t, errs, "name")
			},
		},
		{
			name: "editing a missing category is not found",
			check: func(t *testing.T, b *sqlite.Backend, tr Translator) {
				_, err := Validate(b, types.ObjectUser, form.Submission{"id": "999", "name": "X"}, tr)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newCupboard(t), translator(t))
		})
	}
}

func TestSave(t *testing.T) {
	b := newCupboard(t)

	created, err := Save(b, types.ObjectUser, form.Submission{"id": "0", "name": "Contact"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 2, created.SortOrder)

	renamed, err := Save(b, types.ObjectUser, form.Submission{"id": idString(created.ID), "name": "Contact details"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, 2, renamed.SortOrder)

	list, err := List(b, types.ObjectUser)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Contact details", list[1].Name)

	_, err = Save(b, "course", form.Submission{"id": idString(created.ID), "name": "Elsewhere"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLoad(t *testing.T) {
	f := form.New("/admin/categories/edit")
	Definition(f, translator(t))
	Load(f, &types.Category{ID: 5, Name: "Contact"})
	assert.Equal(t, "5", f.Value("id"))
	assert.Equal(t, "Contact", f.Value("name"))
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
