package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/entities"
)

func postJSON(router *gin.Engine, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == "session" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("response did not set a session cookie")
	return nil
}

func TestSetup(t *testing.T) {
	router, _ := setupRouter(t)

	body := gin.H{
		"username":  "owner",
		"email":     "owner@example.com",
		"password":  testPassword,
		"full_name": "Olga Owner",
	}

	rr := postJSON(router, "/api/setup", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"role":"owner"`)
	assert.Contains(t, rr.Body.String(), `"home":"/owner"`)

	body["username"] = "owner2"
	body["email"] = "owner2@example.com"
	rr = postJSON(router, "/api/setup", body)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	router, _ := setupRouter(t)

	rr := postJSON(router, "/api/auth/register", gin.H{
		"username":  "visitor1",
		"email":     "visitor1@example.com",
		"password":  testPassword,
		"full_name": "Vera Visitor",
		"phone":     "0812",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"role":"visitor"`)

	t.Run("duplicate username", func(t *testing.T) {
		rr := postJSON(router, "/api/auth/register", gin.H{
			"username":  "visitor1",
			"email":     "someone@example.com",
			"password":  testPassword,
			"full_name": "Someone",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		rr := postJSON(router, "/api/auth/register", gin.H{
			"username": "visitor2",
			"email":    "visitor2@example.com",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := postJSON(router, "/api/auth/login", gin.H{"username": "visitor1", "password": "not-the-password"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("login then me", func(t *testing.T) {
		rr := postJSON(router, "/api/auth/login", gin.H{"username": "visitor1", "password": testPassword, "next": "//evil.com"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.NotContains(t, rr.Body.String(), "evil.com")
		cookie := sessionCookie(t, rr)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(cookie)
		me := httptest.NewRecorder()
		router.ServeHTTP(me, req)
		require.Equal(t, http.StatusOK, me.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(me.Body.Bytes(), &resp))
		assert.Equal(t, "visitor1", resp["username"])
		assert.Equal(t, string(entities.RoleVisitor), resp["role"])
		assert.Equal(t, "/visitor", resp["home"])
	})

	t.Run("issue token", func(t *testing.T) {
		rr := postJSON(router, "/api/auth/login", gin.H{"username": "visitor1", "password": testPassword, "issue_token": true})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		token, _ := resp["token"].(string)
		require.NotEmpty(t, token)

		me := do(router, http.MethodGet, "/api/auth/me", "Bearer "+token)
		assert.Equal(t, http.StatusOK, me.Code)
	})
}

func TestLogout(t *testing.T) {
	router, svc := setupRouter(t)
	_, err := svc.CreateAccount("visitor1", "visitor1@example.com", testPassword, entities.RoleVisitor, Profile{FullName: "Vera"})
	require.NoError(t, err)

	rr := postJSON(router, "/api/auth/login", gin.H{"username": "visitor1", "password": testPassword})
	require.Equal(t, http.StatusOK, rr.Code)
	cookie := sessionCookie(t, rr)

	rr = postJSON(router, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	router, svc := setupRouter(t)
	_, err := svc.CreateAccount("visitor1", "visitor1@example.com", testPassword, entities.RoleVisitor, Profile{FullName: "Vera"})
	require.NoError(t, err)

	// MaxLoginAttempts is 3 in the test config
	for i := 0; i < 3; i++ {
		rr := postJSON(router, "/api/auth/login", gin.H{"username": "visitor1", "password": "not-the-password"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	rr := postJSON(router, "/api/auth/login", gin.H{"username": "visitor1", "password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestSanitizeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"/visitor/loans":   "/visitor/loans",
		"":                 "",
		"//evil.com":       "",
		"https://evil.com": "",
		"/\\evil.com":      "",
		"relative/path":    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeRedirectPath(in), in)
	}
}
