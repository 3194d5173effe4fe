package categories

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
)

func setupTestDB(t *testing.T) *Repository {
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "categories.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB)
}

func TestRepository_Create_DuplicateNameIgnoresCase(t *testing.T) {
	repo := setupTestDB(t)

	category, err := repo.Create("Electronics", "Projectors and laptops")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
	assert.Zero(t, category.ItemCount)

	_, err = repo.Create("ELECTRONICS", "")
	assert.ErrorIs(t, err, database.ErrDuplicateName)

	_, err = repo.Create(" electronics ", "")
	assert.ErrorIs(t, err, database.ErrDuplicateName)
}

func TestRepository_Update(t *testing.T) {
	repo := setupTestDB(t)

	furniture, err := repo.Create("Furniture", "")
	require.NoError(t, err)
	_, err = repo.Create("Stationery", "")
	require.NoError(t, err)

	_, err = repo.Update(furniture.ID, "stationery", "")
	assert.ErrorIs(t, err, database.ErrDuplicateName)

	updated, err := repo.Update(furniture.ID, "Furniture", "Chairs and tables")
	require.NoError(t, err)
	assert.Equal(t, "Chairs and tables", updated.Description)

	_, err = repo.Update(404, "Nope", "")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Delete_RefusesNonEmpty(t *testing.T) {
	repo := setupTestDB(t)

	category, err := repo.Create("Electronics", "")
	require.NoError(t, err)
	require.NoError(t, repo.db.Model(category).Update("item_count", 3).Error)

	err = repo.Delete(category.ID)
	assert.ErrorIs(t, err, database.ErrCategoryInUse)

	got, err := repo.GetByID(category.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ItemCount)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestDB(t)

	category, err := repo.Create("Electronics", "")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(category.ID))
	assert.ErrorIs(t, repo.Delete(category.ID), database.ErrNotFound)

	list, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
