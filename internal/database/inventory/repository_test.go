package inventory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *categories.Repository) {
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "inventory.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB), categories.NewRepository(db.DB)
}

func itemCount(t *testing.T, cats *categories.Repository, id uint) int {
	t.Helper()
	c, err := cats.GetByID(id)
	require.NoError(t, err)
	return c.ItemCount
}

func TestRepository_Create_IncrementsCategory(t *testing.T) {
	repo, cats := setupTestDB(t)

	electronics, err := cats.Create("Electronics", "")
	require.NoError(t, err)

	item := &entities.InventoryItem{Name: "Projector", CategoryID: electronics.ID, Quantity: 2}
	require.NoError(t, repo.Create(item))
	assert.NotZero(t, item.ID)
	assert.Equal(t, entities.ItemConditionGood, item.Condition)
	assert.Equal(t, 1, itemCount(t, cats, electronics.ID))

	require.NoError(t, repo.Create(&entities.InventoryItem{Name: "Laptop", CategoryID: electronics.ID, Quantity: 5}))
	assert.Equal(t, 2, itemCount(t, cats, electronics.ID))

	// the category can no longer be deleted
	assert.ErrorIs(t, cats.Delete(electronics.ID), database.ErrCategoryInUse)
}

func TestRepository_Create_UnknownCategory(t *testing.T) {
	repo, _ := setupTestDB(t)

	err := repo.Create(&entities.InventoryItem{Name: "Ghost", CategoryID: 999})
	assert.ErrorIs(t, err, database.ErrInvalidReference)

	items, err := repo.List(Filter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_Update_MovesCount(t *testing.T) {
	repo, cats := setupTestDB(t)

	a, err := cats.Create("A", "")
	require.NoError(t, err)
	b, err := cats.Create("B", "")
	require.NoError(t, err)

	item := &entities.InventoryItem{Name: "Chair", CategoryID: a.ID, Quantity: 10}
	require.NoError(t, repo.Create(item))

	updated, err := repo.Update(item.ID, entities.InventoryItem{
		Name:       "Chair",
		CategoryID: b.ID,
		Quantity:   8,
		Condition:  entities.ItemConditionDamaged,
	})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.CategoryID)
	assert.Equal(t, 8, updated.Quantity)
	assert.Equal(t, entities.ItemConditionDamaged, updated.Condition)
	assert.Equal(t, 0, itemCount(t, cats, a.ID))
	assert.Equal(t, 1, itemCount(t, cats, b.ID))

	_, err = repo.Update(item.ID, entities.InventoryItem{Name: "Chair", CategoryID: 999})
	assert.ErrorIs(t, err, database.ErrInvalidReference)
	assert.Equal(t, 1, itemCount(t, cats, b.ID))

	_, err = repo.Update(999, entities.InventoryItem{Name: "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Delete_DecrementsCategory(t *testing.T) {
	repo, cats := setupTestDB(t)

	c, err := cats.Create("Games", "")
	require.NoError(t, err)
	item := &entities.InventoryItem{Name: "Chess", CategoryID: c.ID, Quantity: 1}
	require.NoError(t, repo.Create(item))

	require.NoError(t, repo.Delete(item.ID))
	assert.Equal(t, 0, itemCount(t, cats, c.ID))
	assert.ErrorIs(t, repo.Delete(item.ID), database.ErrNotFound)
	assert.NoError(t, cats.Delete(c.ID))
}

func TestRepository_ListAndLowStock(t *testing.T) {
	repo, cats := setupTestDB(t)

	c, err := cats.Create("Stationery", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(&entities.InventoryItem{Name: "Pens", CategoryID: c.ID, Quantity: 1, Location: "Shelf A"}))
	require.NoError(t, repo.Create(&entities.InventoryItem{Name: "Paper", CategoryID: c.ID, Quantity: 40}))
	require.NoError(t, repo.Create(&entities.InventoryItem{Name: "Stapler", CategoryID: c.ID, Quantity: 0, Condition: entities.ItemConditionLost}))

	items, err := repo.List(Filter{Query: "pen"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pens", items[0].Name)
	assert.Equal(t, "Stationery", items[0].Category.Name)

	items, err = repo.List(Filter{Condition: entities.ItemConditionLost})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Stapler", items[0].Name)

	low, err := repo.LowStock(2)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Pens", low[0].Name)
}
