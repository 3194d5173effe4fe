package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/users"
)

const testPassword = "correct-horse-battery"

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:  24 * time.Hour,
		TokenExpiry:      720 * time.Hour,
		BcryptCost:       4, // Low cost for faster tests
		SecureCookies:    false,
		MaxLoginAttempts: 3,
		RateLimitWindow:  15 * time.Minute,
		LockoutDuration:  30 * time.Minute,
	}
}

func setupService(t *testing.T) (*Service, *database.Database) {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "auth.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewService(db.DB, users.NewRepository(db.DB), testAuthConfig()), db
}

func setupSessionManager(t *testing.T, db *database.Database) *SessionManager {
	t.Helper()

	sqlDB, err := db.SQLDB()
	require.NoError(t, err)

	sm, err := NewSessionManager(sqlDB, config.DriverSQLite, testAuthConfig())
	require.NoError(t, err)
	return sm
}
