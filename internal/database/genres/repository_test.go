package genres

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "genres.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB), db.DB
}

func TestRepository_Create(t *testing.T) {
	repo, _ := setupTestDB(t)

	genre, err := repo.Create("  Science Fiction ")
	require.NoError(t, err)
	assert.NotZero(t, genre.ID)
	assert.Equal(t, "Science Fiction", genre.Name)

	_, err = repo.Create("science fiction")
	assert.ErrorIs(t, err, database.ErrDuplicateName)
}

func TestRepository_Update(t *testing.T) {
	repo, _ := setupTestDB(t)

	poetry, err := repo.Create("Poetry")
	require.NoError(t, err)
	_, err = repo.Create("Drama")
	require.NoError(t, err)

	_, err = repo.Update(poetry.ID, "DRAMA")
	assert.ErrorIs(t, err, database.ErrDuplicateName)

	updated, err := repo.Update(poetry.ID, "poetry")
	require.NoError(t, err)
	assert.Equal(t, "poetry", updated.Name)

	_, err = repo.Update(999, "Other")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_ListWithCounts(t *testing.T) {
	repo, db := setupTestDB(t)

	fiction, err := repo.Create("Fiction")
	require.NoError(t, err)
	_, err = repo.Create("Biography")
	require.NoError(t, err)

	require.NoError(t, db.Create(&entities.Book{Title: "Dune", Author: "Herbert", GenreID: &fiction.ID}).Error)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Biography", list[0].Name)
	assert.Equal(t, int64(0), list[0].BookCount)
	assert.Equal(t, "Fiction", list[1].Name)
	assert.Equal(t, int64(1), list[1].BookCount)
}

func TestRepository_Delete(t *testing.T) {
	repo, db := setupTestDB(t)

	fiction, err := repo.Create("Fiction")
	require.NoError(t, err)
	empty, err := repo.Create("Empty")
	require.NoError(t, err)

	require.NoError(t, db.Create(&entities.Book{Title: "Dune", Author: "Herbert", GenreID: &fiction.ID}).Error)

	assert.ErrorIs(t, repo.Delete(fiction.ID), database.ErrGenreInUse)
	assert.NoError(t, repo.Delete(empty.ID))
	assert.ErrorIs(t, repo.Delete(empty.ID), database.ErrNotFound)
}
