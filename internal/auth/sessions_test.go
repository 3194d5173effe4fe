package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

func TestNewSessionManager_CookieSettings(t *testing.T) {
	_, db := setupService(t)
	sm := setupSessionManager(t, db)

	assert.Equal(t, "session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, sm.Cookie.SameSite)
	assert.Equal(t, testAuthConfig().SessionLifetime/2, sm.IdleTimeout)
	assert.Contains(t, db.Tables(), "users")
}

func TestNewSessionManager_MemoryStoreForServerDatabases(t *testing.T) {
	sm, err := NewSessionManager(nil, config.DriverPostgres, testAuthConfig())
	require.NoError(t, err)

	_, ok := sm.Store.(*memstore.MemStore)
	assert.True(t, ok)
}

func TestSessionManager_CreateAndRetrieveSession(t *testing.T) {
	_, db := setupService(t)
	sm := setupSessionManager(t, db)

	identity := &Identity{
		User: &entities.User{ID: 123, Username: "reader"},
		Role: entities.RoleVisitor,
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, sm.IsAuthenticated(r))
		assert.Nil(t, sm.GetSessionData(r))

		require.NoError(t, sm.CreateSession(r, identity))

		data := sm.GetSessionData(r)
		require.NotNil(t, data)
		assert.Equal(t, uint(123), data.UserID)
		assert.Equal(t, "reader", data.Username)
		assert.Equal(t, entities.RoleVisitor, data.Role)
		assert.False(t, data.LoginAt.IsZero())

		require.NoError(t, sm.DestroySession(r))
		assert.False(t, sm.IsAuthenticated(r))
	}))
	handler.ServeHTTP(rr, req)
}

func TestSessionData_Stale(t *testing.T) {
	data := &SessionData{UserID: 1, Role: entities.RoleStaff}

	assert.False(t, data.Stale(&Identity{Role: entities.RoleStaff}))
	assert.True(t, data.Stale(&Identity{Role: entities.RoleVisitor}))
	assert.False(t, (&SessionData{UserID: 1}).Stale(&Identity{Role: entities.RoleOwner}))
}
