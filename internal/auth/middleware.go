package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID    = "auth_user_id"
	ContextKeyUsername  = "auth_username"
	ContextKeyRole      = "auth_role"
	ContextKeyProfileID = "auth_profile_id"
	ContextKeyAuthType  = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// RoleHome maps each role to the page prefix it owns.
var RoleHome = map[entities.Role]string{
	entities.RoleVisitor: "/visitor",
	entities.RoleStaff:   "/staff",
	entities.RoleOwner:   "/owner",
}

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
	publicReads    []string
}

// PaymentNotificationsPath receives gateway webhooks. Requests are
// authenticated by signature, not by a session or token.
const PaymentNotificationsPath = "/api/payments/notifications"

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/health":                true,
		"/ping":                  true,
		"/login":                 true,
		"/api/auth/login":        true,
		"/api/auth/register":     true,
		"/api/setup":             true,
		PaymentNotificationsPath: true,
	}

	// Catalog reads that anonymous visitors may browse.
	publicReads := []string{
		"/api/shifts",
		"/api/books",
		"/api/genres",
		"/api/events",
		"/api/sessions/availability",
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
		publicReads:    publicReads,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
// Credentials are checked on every request so public routes still see the
// caller when one is logged in.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try Bearer token first (for API clients)
		if identity := m.tryBearerAuth(c); identity != nil {
			setIdentity(c, identity, AuthTypeBearer)
			c.Next()
			return
		}

		if identity := m.trySessionAuth(c); identity != nil {
			setIdentity(c, identity, AuthTypeSession)
			c.Next()
			return
		}

		if m.isPublic(c.Request.Method, c.Request.URL.Path) {
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		m.unauthenticated(c)
	}
}

func (m *Middleware) unauthenticated(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
		return
	}

	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.Path))
	c.Abort()
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *Identity {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}

	user, err := m.service.ValidateToken(parts[1])
	if err != nil {
		return nil
	}

	identity, err := m.service.Identify(user)
	if err != nil {
		return nil
	}
	return identity
}

func (m *Middleware) trySessionAuth(c *gin.Context) *Identity {
	if m.sessionManager == nil {
		return nil
	}

	data := m.sessionManager.GetSessionData(c.Request)
	if data == nil {
		return nil
	}

	user, err := m.service.GetUserByID(data.UserID)
	if err != nil {
		return nil
	}

	identity, err := m.service.Identify(user)
	if err != nil || data.Stale(identity) {
		_ = m.sessionManager.DestroySession(c.Request)
		return nil
	}
	return identity
}

func setIdentity(c *gin.Context, identity *Identity, authType AuthType) {
	c.Set(ContextKeyUserID, identity.User.ID)
	c.Set(ContextKeyUsername, identity.User.Username)
	c.Set(ContextKeyRole, identity.Role)
	c.Set(ContextKeyProfileID, identity.ProfileID)
	c.Set(ContextKeyAuthType, authType)
}

func (m *Middleware) isPublic(method, path string) bool {
	if m.publicPaths[path] {
		return true
	}

	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	for _, prefix := range m.publicReads {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches whole path segments, so "/staffroom" is not under "/staff".
func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}

	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}

	// Bearer token attempt, even if invalid
	if c.GetHeader("Authorization") != "" {
		return true
	}

	return false
}

// RequireRole returns a middleware that admits only the given roles.
// Callers without any role get 401, callers with another role get 403.
func (m *Middleware) RequireRole(roles ...entities.Role) gin.HandlerFunc {
	roleSet := make(map[entities.Role]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role := GetUserRole(c)
		if role == "" {
			m.unauthenticated(c)
			return
		}
		if !roleSet[role] {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}
		c.Next()
	}
}

// RolePrefixGuard keeps page requests inside the caller's own prefix.
// A request under another role's prefix is redirected to the caller's home.
func (m *Middleware) RolePrefixGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for role, prefix := range RoleHome {
			if !hasPathPrefix(path, prefix) {
				continue
			}
			caller := GetUserRole(c)
			if caller == "" {
				m.unauthenticated(c)
				return
			}
			if caller != role {
				c.Redirect(http.StatusFound, RoleHome[caller])
				c.Abort()
				return
			}
			break
		}
		c.Next()
	}
}

// DashboardRedirect sends the caller to the home prefix of its role.
func (m *Middleware) DashboardRedirect(c *gin.Context) {
	home, ok := RoleHome[GetUserRole(c)]
	if !ok {
		m.unauthenticated(c)
		return
	}
	c.Redirect(http.StatusFound, home)
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.Role {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.Role); ok {
			return role
		}
	}
	return ""
}

// GetProfileID returns the ID of the caller's row in its role table
// (visitors.id for visitors, staff.id for staff, owners.id for owners).
func GetProfileID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyProfileID); exists {
		if profileID, ok := id.(uint); ok {
			return profileID
		}
	}
	return 0
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// IsAuthenticated returns true if the request carries a resolved identity.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}
