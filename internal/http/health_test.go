package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/shifts"
	"github.com/mrlokans/librarium/internal/entities"
)

func setupHealthTestDB(t *testing.T) *database.Database {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "health.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

type emptyShifts struct{}

func (emptyShifts) List() ([]entities.Shift, error) { return nil, nil }
func (emptyShifts) GetByID(uint) (*entities.Shift, error) { return nil, errors.New("missing") }

func TestHealthController_Status(t *testing.T) {
	t.Run("healthy with a migrated database", func(t *testing.T) {
		db := setupHealthTestDB(t)
		controller := NewHealthController("1.0.0",
			databaseCheck(db), shiftsCheck(shifts.NewRepository(db.DB)))

		code, response := getHealth(t, controller)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok", response.Checks["shifts"])
		assert.Contains(t, response.Time, "T")
		assert.NotEmpty(t, response.Uptime)
	})

	t.Run("missing collaborators are not configured", func(t *testing.T) {
		controller := NewHealthController("", databaseCheck(nil), shiftsCheck(nil))

		code, response := getHealth(t, controller)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.Equal(t, "not configured", response.Checks["shifts"])
		assert.Empty(t, response.Version)
	})

	t.Run("closed database is unhealthy", func(t *testing.T) {
		db := setupHealthTestDB(t)
		require.NoError(t, db.Close())

		code, response := getHealth(t, NewHealthController("1.0.0", databaseCheck(db)))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("unseeded shifts are unhealthy", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController("1.0.0", shiftsCheck(emptyShifts{})))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "error: no shifts seeded", response.Checks["shifts"])
	})
}

type stoppedQueue struct{ fakeQueue }

func (stoppedQueue) Running() bool { return false }

func TestHealthController_TasksCheck(t *testing.T) {
	_, response := getHealth(t, NewHealthController("1.0.0", tasksCheck(&fakeQueue{})))
	assert.Equal(t, "not configured", response.Checks["tasks"])

	code, response := getHealth(t, NewHealthController("1.0.0", tasksCheck(&stoppedQueue{})))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error: workers stopped", response.Checks["tasks"])
}

func TestHealthResponse_OmitsEmptyVersion(t *testing.T) {
	raw, err := json.Marshal(HealthResponse{Status: "healthy", Checks: map[string]string{}})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "version")
}
