package auth

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

// AuthAuditor receives login, logout and account events.
type AuthAuditor interface {
	LogAuth(userID uint, action, ipAddr string, success bool)
}

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com), schemes and backslash bypasses
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return ""
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	auditor        AuthAuditor

	// Serializes setup so two concurrent requests cannot both pass the owner check.
	setupMu sync.Mutex
}

// NewAuthController creates a new authentication controller. auditor may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth, auditor AuthAuditor) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", ac.LoginInfo)
	router.POST("/api/auth/login", ac.Login)
	router.POST("/api/auth/logout", ac.Logout)
	router.GET("/api/auth/me", ac.Me)
	router.POST("/api/auth/register", ac.Register)
	router.PUT("/api/auth/password", ac.ChangePassword)
	router.POST("/api/auth/token", ac.GenerateToken)
	router.DELETE("/api/auth/token", ac.RevokeToken)
	router.POST("/api/setup", ac.Setup)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

func (ac *AuthController) logAuth(userID uint, action string, c *gin.Context, success bool) {
	if ac.auditor != nil {
		ac.auditor.LogAuth(userID, action, c.ClientIP(), success)
	}
}

func identityResponse(identity *Identity) gin.H {
	return gin.H{
		"id":         identity.User.ID,
		"username":   identity.User.Username,
		"email":      identity.User.Email,
		"role":       identity.Role,
		"profile_id": identity.ProfileID,
		"home":       RoleHome[identity.Role],
	}
}

// LoginInfo answers the page redirect target. Pages are rendered elsewhere;
// this only tells the client where to post credentials.
func (ac *AuthController) LoginInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"login": "/api/auth/login",
		"next":  sanitizeRedirectPath(c.Query("next")),
	})
}

type loginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	IssueToken bool   `json:"issue_token"`
	Next       string `json:"next"`
}

// Login verifies credentials, starts a session and optionally issues an API token.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Username); !allowed {
		c.Header("Retry-After", retryAfter.String())
		abortJSON(c, http.StatusTooManyRequests, "rate_limited", "too many login attempts, try again later")
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, req.Username)
		ac.logAuth(0, "login", c, false)
		if errors.Is(err, ErrAccountLocked) {
			abortJSON(c, http.StatusUnauthorized, "account_locked", "account is locked, try again later")
			return
		}
		abortJSON(c, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, req.Username)

	identity, err := ac.service.Identify(user)
	if err != nil {
		ac.logAuth(user.ID, "login", c, false)
		if errors.Is(err, ErrNoRole) {
			abortJSON(c, http.StatusForbidden, "no_role", "account has no active role")
			return
		}
		abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, identity); err != nil {
			abortJSON(c, http.StatusInternalServerError, "internal_error", "failed to create session")
			return
		}
	}
	ac.logAuth(user.ID, "login", c, true)

	resp := identityResponse(identity)
	if next := sanitizeRedirectPath(req.Next); next != "" {
		resp["next"] = next
	}
	if req.IssueToken {
		token, err := ac.service.GenerateToken(user.ID)
		if err != nil {
			abortJSON(c, http.StatusInternalServerError, "internal_error", "failed to generate token")
			return
		}
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	ac.logAuth(GetUserID(c), "logout", c, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the caller's identity and role.
func (ac *AuthController) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	user, err := ac.service.GetUserByID(userID)
	if err != nil {
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	c.JSON(http.StatusOK, identityResponse(&Identity{
		User:      user,
		Role:      GetUserRole(c),
		ProfileID: GetProfileID(c),
	}))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// accountError maps account validation failures to a status and message.
func accountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserExists):
		abortJSON(c, http.StatusConflict, "conflict", "username or email is already taken")
	case errors.Is(err, ErrSetupAlreadyDone):
		abortJSON(c, http.StatusConflict, "conflict", err.Error())
	case IsValidationError(err):
		abortJSON(c, http.StatusBadRequest, "validation_error", err.Error())
	default:
		abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Register creates a visitor account and logs it in.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	identity, err := ac.service.CreateAccount(req.Username, req.Email, req.Password, entities.RoleVisitor, Profile{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		accountError(c, err)
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, identity)
	}
	ac.logAuth(identity.User.ID, "register", c, true)

	c.JSON(http.StatusCreated, identityResponse(identity))
}

// Setup creates the first owner account. Once an owner exists it answers 409.
func (ac *AuthController) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	identity, err := ac.service.CreateOwner(req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		accountError(c, err)
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, identity)
	}
	ac.logAuth(identity.User.ID, "setup", c, true)

	c.JSON(http.StatusCreated, identityResponse(identity))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword replaces the caller's password after checking the old one.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid_request", "old_password and new_password are required")
		return
	}

	err := ac.service.ChangePassword(userID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		ac.logAuth(userID, "password_change", c, true)
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	case errors.Is(err, ErrInvalidPassword):
		ac.logAuth(userID, "password_change", c, false)
		abortJSON(c, http.StatusBadRequest, "invalid_password", "current password is incorrect")
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		abortJSON(c, http.StatusBadRequest, "validation_error", err.Error())
	default:
		abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// GenerateToken creates a new API token for the authenticated user.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	token, err := ac.service.GenerateToken(userID)
	if err != nil {
		abortJSON(c, http.StatusInternalServerError, "internal_error", "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token for the authenticated user.
func (ac *AuthController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := ac.service.RevokeToken(userID); err != nil {
		abortJSON(c, http.StatusInternalServerError, "internal_error", "failed to revoke token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
