package sqlite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func TestFieldDataTable(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend, field *types.Field)
	}{
		{
			name: "insert then update keeps a single row",
			check: func(t *testing.T, b *Backend, field *types.Field) {
				data := table(t, b, types.TableFieldData)
				id, err := data.Set(0, &types.FieldData{ObjectID: 3, FieldID: field.ID, Data: "first"})
				require.NoError(t, err)

				_, err = data.Set(id, &types.FieldData{ObjectID: 3, FieldID: field.ID, Data: "second", DataFormat: types.FormatPlain})
				require.NoError(t, err)

				rows, err := data.Fetch(types.Filter{"object_id": int64(3), "field_id": field.ID})
				require.NoError(t, err)
				require.Len(t, rows, 1)
				got := rows[0].(*types.FieldData)
				assert.Equal(t, "second", got.Data)
				assert.Equal(t, types.FormatPlain, got.DataFormat)
				assert.Equal(t, types.ObjectUser, got.ObjectName)
			},
		},
		{
			name: "schema does not enforce one row per object and field",
			check: func(t *testing.T, b *Backend, field *types.Field) {
				data := table(t, b, types.TableFieldData)
				_, err := data.Set(0, &types.FieldData{ObjectID: 3, FieldID: field.ID, Data: "a"})
				require.NoError(t, err)
				_, err = data.Set(0, &types.FieldData{ObjectID: 3, FieldID: field.ID, Data: "b"})
				require.NoError(t, err)

				rows, err := data.Fetch(types.Filter{"object_id": 3, "field_id": field.ID})
				require.NoError(t, err)
				assert.Len(t, rows, 2)
			},
		},
		{
			name: "data filter compares the first 255 characters",
			check: func(t *testing.T, b *Backend, field *types.Field) {
				data := table(t, b, types.TableFieldData)
				long := strings.Repeat("x", 255)
				_, err := data.Set(0, &types.FieldData{ObjectID: 1, FieldID: field.ID, Data: long + "tail-one"})
				require.NoError(t, err)
				_, err = data.Set(0, &types.FieldData{ObjectID: 2, FieldID: field.ID, Data: "short"})
				require.NoError(t, err)

				rows, err := data.Fetch(types.Filter{"field_id": field.ID, "data": long + "tail-two"})
				require.NoError(t, err)
				require.Len(t, rows, 1)
				assert.Equal(t, int64(1), rows[0].(*types.FieldData).ObjectID)

				rows, err = data.Fetch(types.Filter{"field_id": field.ID, "data": "shor"})
				require.NoError(t, err)
				assert.Empty(t, rows)
			},
		},
		{
			name: "update of missing row returns ErrNotFound",
			check: func(t *testing.T, b *Backend, field *types.Field) {
				_, err := table(t, b, types.TableFieldData).Set(42, &types.FieldData{ObjectID: 1, FieldID: field.ID})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "row without field is invalid",
			check: func(t *testing.T, b *Backend, field *types.Field) {
				_, err := table(t, b, types.TableFieldData).Set(0, &types.FieldData{ObjectID: 1})
				assert.ErrorIs(t, err, types.ErrInvalidData)
			},
		},
		{
			name: "delete removes the row",
			check: func(t *testing.T, b *Backend, field *types.Field) {
				data := table(t, b, types.TableFieldData)
				id, err := data.Set(0, &types.FieldData{ObjectID: 1, FieldID: field.ID, Data: "x"})
				require.NoError(t, err)
				require.NoError(t, data.Delete(id))
				_, err = data.Get(id)
				assert.ErrorIs(t, err, types.ErrNotFound)
				assert.ErrorIs(t, data.Delete(id), types.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t)
			field := addField(t, b, defaultCategory(t, b).ID, "nickname")
			tt.check(t, b, field)
		})
	}
}
