package shifts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
)

func TestRepository_List(t *testing.T) {
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "shifts.db"),
	})
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.DB)

	shifts, err := repo.List()
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, []string{"Morning", "Afternoon", "Evening"},
		[]string{shifts[0].Name, shifts[1].Name, shifts[2].Name})

	got, err := repo.GetByID(shifts[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "13:00", got.StartTime)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
