package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/entities"
)

var csrfSecret = []byte("test-secret-key-32-bytes-long!!!")

func csrfRouter(authService *Service) *gin.Engine {
	router := gin.New()
	opts := CSRFOptions{Secret: csrfSecret, Exempt: []string{PaymentNotificationsPath}}
	if authService != nil {
		opts.Tokens = authService
	}
	router.Use(CSRFMiddleware(opts))
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/api/loans", handler)
	router.POST("/api/loans", handler)
	router.POST(PaymentNotificationsPath, handler)
	return router
}

func TestCSRFMiddleware_AllowsSafeMethods(t *testing.T) {
	router := csrfRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/loans", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(CSRFTokenHeader))
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	router := csrfRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/loans", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "csrf_failed")
}

func TestCSRFMiddleware_SkipsWebhook(t *testing.T) {
	router := csrfRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, PaymentNotificationsPath, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCSRFMiddleware_BearerTokens(t *testing.T) {
	svc, _ := setupService(t)
	router := csrfRouter(svc)

	identity, err := svc.CreateAccount("staffer", "staff@example.com", testPassword, entities.RoleStaff, Profile{FullName: "Sam"})
	require.NoError(t, err)
	token, err := svc.GenerateToken(identity.User.ID)
	require.NoError(t, err)

	t.Run("valid token skips the check", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/loans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("invalid token is checked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/loans", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
