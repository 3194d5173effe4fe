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

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()

	svc, db := setupService(t)
	sm := setupSessionManager(t, db)
	mw := NewMiddleware(svc, sm)
	ac := NewAuthController(svc, sm, testAuthConfig(), nil)
	t.Cleanup(ac.Stop)

	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    GetUserID(c),
			"role":       GetUserRole(c),
			"profile_id": GetProfileID(c),
			"auth_type":  GetAuthType(c),
		})
	}

	router := gin.New()
	router.Use(sm.SessionLoadSave(), mw.Handler())
	ac.RegisterRoutes(router)
	router.GET("/health", ok)
	router.GET("/api/books", ok)
	router.POST("/api/books", mw.RequireRole(entities.RoleStaff), ok)
	router.GET("/api/staff-only", mw.RequireRole(entities.RoleStaff, entities.RoleOwner), ok)
	router.GET("/dashboard", mw.DashboardRedirect)
	for _, prefix := range RoleHome {
		router.GET(prefix+"/*page", mw.RolePrefixGuard(), ok)
	}

	return router, svc
}

func bearerFor(t *testing.T, svc *Service, username string, role entities.Role) string {
	t.Helper()
	identity, err := svc.CreateAccount(username, username+"@example.com", testPassword, role, Profile{FullName: username})
	require.NoError(t, err)
	token, err := svc.GenerateToken(identity.User.ID)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_PublicPaths(t *testing.T) {
	router, _ := setupRouter(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/books", "").Code)

	// Public reads do not cover writes
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/api/books", "").Code)
}

func TestMiddleware_Unauthenticated(t *testing.T) {
	router, _ := setupRouter(t)

	t.Run("api request gets 401", func(t *testing.T) {
		rr := do(router, http.MethodGet, "/api/staff-only", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "authentication required")
	})

	t.Run("page request is redirected to login", func(t *testing.T) {
		rr := do(router, http.MethodGet, "/staff/loans", "")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login?next=%2Fstaff%2Floans", rr.Header().Get("Location"))
	})

	t.Run("invalid bearer token", func(t *testing.T) {
		rr := do(router, http.MethodGet, "/api/staff-only", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMiddleware_BearerAuth(t *testing.T) {
	router, svc := setupRouter(t)
	staff := bearerFor(t, svc, "staffer", entities.RoleStaff)

	rr := do(router, http.MethodGet, "/api/staff-only", staff)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"staff"`)
	assert.Contains(t, rr.Body.String(), `"auth_type":"bearer"`)
}

func TestMiddleware_RequireRole(t *testing.T) {
	router, svc := setupRouter(t)
	visitor := bearerFor(t, svc, "visitor1", entities.RoleVisitor)
	owner := bearerFor(t, svc, "owner1", entities.RoleOwner)

	rr := do(router, http.MethodGet, "/api/staff-only", visitor)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "insufficient permissions")

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/staff-only", owner).Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/api/books", owner).Code)
}

func TestMiddleware_InactiveStaffIsUnauthenticated(t *testing.T) {
	router, svc := setupRouter(t)
	staff := bearerFor(t, svc, "staffer", entities.RoleStaff)

	require.NoError(t, svc.db.Model(&entities.Staff{}).Where("full_name = ?", "staffer").Update("active", false).Error)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/staff-only", staff).Code)
}

func TestMiddleware_RolePrefixGuard(t *testing.T) {
	router, svc := setupRouter(t)
	visitor := bearerFor(t, svc, "visitor1", entities.RoleVisitor)
	staff := bearerFor(t, svc, "staffer", entities.RoleStaff)

	tests := []struct {
		name         string
		token        string
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"visitor in own prefix", visitor, "/visitor/sessions", http.StatusOK, ""},
		{"visitor in staff prefix", visitor, "/staff/loans", http.StatusFound, "/visitor"},
		{"visitor in owner prefix", visitor, "/owner/reports", http.StatusFound, "/visitor"},
		{"staff in own prefix", staff, "/staff/loans", http.StatusOK, ""},
		{"staff in visitor prefix", staff, "/visitor/sessions", http.StatusFound, "/staff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", tt.token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			}
		})
	}
}

func TestMiddleware_DashboardRedirect(t *testing.T) {
	router, svc := setupRouter(t)

	for _, role := range []entities.Role{entities.RoleVisitor, entities.RoleStaff, entities.RoleOwner} {
		token := bearerFor(t, svc, "user_"+string(role), role)
		rr := do(router, http.MethodGet, "/dashboard", token)
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, RoleHome[role], rr.Header().Get("Location"))
	}
}

func TestHasPathPrefix(t *testing.T) {
	assert.True(t, hasPathPrefix("/staff", "/staff"))
	assert.True(t, hasPathPrefix("/staff/loans", "/staff"))
	assert.False(t, hasPathPrefix("/staffroom", "/staff"))
}
