package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func TestFieldsTable(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "create assigns id and appends within category",
			check: func(t *testing.T, b *Backend) {
				cat := defaultCategory(t, b)
				a := addField(t, b, cat.ID, "a")
				c := addField(t, b, cat.ID, "c")
				assert.NotZero(t, a.ID)
				assert.Equal(t, 1, a.SortOrder)
				assert.Equal(t, 2, c.SortOrder)
			},
		},
		{
			name: "get round trips every column",
			check: func(t *testing.T, b *Backend) {
				cat := defaultCategory(t, b)
				f := addField(t, b, cat.ID, "colour", func(f *types.Field) {
					f.Datatype = "menu"
					f.Description = "Favourite colour"
					f.Visible = types.VisiblePrivate
					f.Required = true
					f.Unique = true
					f.Locked = true
					f.DefaultData = "Blue"
					f.DefaultDataFormat = types.FormatHTML
					f.Signup = true
					f.Param1 = "Red\nBlue"
					f.Param2 = "x"
					f.Param3 = "y"
				})
				got, err := table(t, b, types.TableFields).Get(f.ID)
				require.NoError(t, err)
				assert.Equal(t, f, got.(*types.Field))
			},
		},
		{
			name: "duplicate short name is rejected",
			check: func(t *testing.T, b *Backend) {
				cat := defaultCategory(t, b)
				addField(t, b, cat.ID, "nickname")
				_, err := table(t, b, types.TableFields).Set(0, &types.Field{
					CategoryID: cat.ID, ObjectName: types.ObjectUser, Datatype: "text", ShortName: "nickname", Name: "Again",
				})
				assert.ErrorIs(t, err, types.ErrDuplicateShortName)
			},
		},
		{
			name: "missing category is rejected",
			check: func(t *testing.T, b *Backend) {
				_, err := table(t, b, types.TableFields).Set(0, &types.Field{
					CategoryID: 999, ObjectName: types.ObjectUser, Datatype: "text", ShortName: "x", Name: "X",
				})
				assert.ErrorIs(t, err, types.ErrCategoryNotFound)
			},
		},
		{
			name: "category of another object type is rejected",
			check: func(t *testing.T, b *Backend) {
				cat := defaultCategory(t, b)
				_, err := table(t, b, types.TableFields).Set(0, &types.Field{
					CategoryID: cat.ID, ObjectName: "course", Datatype: "text", ShortName: "x", Name: "X",
				})
				assert.ErrorIs(t, err, types.ErrCategoryNotFound)
			},
		},
		{
			name: "moving a field to another category appends it and renumbers the old one",
			check: func(t *testing.T, b *Backend) {
				first := defaultCategory(t, b)
				second := addCategory(t, b, "Second")
				a := addField(t, b, first.ID, "a")
				bField := addField(t, b, first.ID, "b")
				addField(t, b, second.ID, "z")

				a.CategoryID = second.ID
				a.SortOrder = 0
				_, err := table(t, b, types.TableFields).Set(a.ID, a)
				require.NoError(t, err)
				assert.Equal(t, 2, a.SortOrder)

				got, err := table(t, b, types.TableFields).Get(bField.ID)
				require.NoError(t, err)
				assert.Equal(t, 1, got.(*types.Field).SortOrder)
			},
		},
		{
			name: "delete removes the field and its data",
			check: func(t *testing.T, b *Backend) {
				cat := defaultCategory(t, b)
				f := addField(t, b, cat.ID, "gone")
				data := table(t, b, types.TableFieldData)
				_, err := data.Set(0, &types.FieldData{ObjectID: 7, FieldID: f.ID, Data: "x"})
				require.NoError(t, err)

				require.NoError(t, table(t, b, types.TableFields).Delete(f.ID))

				_, err = table(t, b, types.TableFields).Get(f.ID)
				assert.ErrorIs(t, err, types.ErrNotFound)
				rows, err := data.Fetch(types.Filter{"field_id": f.ID})
				require.NoError(t, err)
				assert.Empty(t, rows)
				assert.ErrorIs(t, table(t, b, types.TableFields).Delete(f.ID), types.ErrNotFound)
			},
		},
		{
			name: "fetch filters by category and signup",
			check: func(t *testing.T, b *Backend) {
				first := defaultCategory(t, b)
				second := addCategory(t, b, "Second")
				addField(t, b, first.ID, "a", func(f *types.Field) { f.Signup = true })
				addField(t, b, first.ID, "b")
				addField(t, b, second.ID, "c", func(f *types.Field) { f.Signup = true })

				res, err := table(t, b, types.TableFields).Fetch(types.Filter{"category_id": first.ID})
				require.NoError(t, err)
				assert.Len(t, res, 2)

				res, err = table(t, b, types.TableFields).Fetch(types.Filter{"signup": true})
				require.NoError(t, err)
				assert.Len(t, res, 2)

				res, err = table(t, b, types.TableFields).Fetch(types.Filter{"short_name": "c"})
				require.NoError(t, err)
				require.Len(t, res, 1)
				assert.Equal(t, second.ID, res[0].(*types.Field).CategoryID)

				_, err = table(t, b, types.TableFields).Fetch(types.Filter{"category_id": "one"})
				assert.ErrorIs(t, err, types.ErrInvalidFilter)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newTestBackend(t))
		})
	}
}

func TestMoveField(t *testing.T) {
	b := newTestBackend(t)
	cat := defaultCategory(t, b)
	a := addField(t, b, cat.ID, "a")
	c := addField(t, b, cat.ID, "c")

	moved, err := b.MoveField(c.ID, false)
	require.NoError(t, err)
	assert.False(t, moved, "last field cannot move down")

	moved, err = b.MoveField(a.ID, false)
	require.NoError(t, err)
	assert.True(t, moved)

	res, err := table(t, b, types.TableFields).Fetch(types.Filter{"category_id": cat.ID})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "c", res[0].(*types.Field).ShortName)
	assert.Equal(t, "a", res[1].(*types.Field).ShortName)
}
