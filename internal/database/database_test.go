package database

import (
	"errors"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(config.Database{Driver: config.DriverSQLite, Path: dbPath})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_SeedsShifts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var shifts []entities.Shift
	require.NoError(t, db.DB.Order("id").Find(&shifts).Error)
	require.Len(t, shifts, 3)
	assert.Equal(t, "Morning", shifts[0].Name)
	assert.Equal(t, "09:00", shifts[0].StartTime)
	assert.Equal(t, "12:00", shifts[0].EndTime)
	assert.Equal(t, "Evening", shifts[2].Name)
	assert.Equal(t, config.DriverSQLite, db.DriverName())
}

func TestMigrate_IsRerunnable(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	var count int64
	require.NoError(t, db.DB.Model(&entities.Shift{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tables := db.Tables()
	assert.Contains(t, tables, "session_bookings")
	assert.Contains(t, tables, "loans")
	assert.Contains(t, tables, "transactions")
	assert.NotContains(t, tables, "sessions")
}

func TestPing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, db.Ping())
}

func TestIsUniqueViolation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.DB.Create(&entities.Genre{Name: "Poetry"}).Error)
	err := db.DB.Create(&entities.Genre{Name: "Poetry"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := db.DB.Create(&entities.InventoryItem{Name: "Projector", CategoryID: 999, Condition: entities.ItemConditionGood}).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	// deleting a parent guarded by OnDelete:RESTRICT
	var shift entities.Shift
	require.NoError(t, db.DB.First(&shift).Error)
	event := &entities.Event{Title: "Readings", Date: "2030-01-01", ShiftID: shift.ID, MaxCapacity: 5}
	require.NoError(t, db.DB.Omit("Shift").Create(event).Error)
	err = db.DB.Delete(&entities.Shift{}, shift.ID).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(err))

	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1062}))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, NotFound(gorm.ErrRecordNotFound), ErrNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, NotFound(other))
	assert.True(t, IsNotFound(ErrNotFound))
}
