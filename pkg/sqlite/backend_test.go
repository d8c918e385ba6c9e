package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func TestNewBackend(t *testing.T) {
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()

	cats, err := b.GetTable(types.TableCategories)
	require.NoError(t, err)
	rows, err := cats.Fetch(types.Filter{"object_name": types.ObjectUser})
	require.NoError(t, err)
	require.Len(t, rows, 1, "a default category is seeded")

	id, err := cats.Set(0, &types.Category{ObjectName: types.ObjectUser, Name: "Contact"})
	require.NoError(t, err)
	moved, err := b.MoveCategory(id, true)
	require.NoError(t, err)
	assert.True(t, moved)

	_, err = b.GetTable("widgets")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}
