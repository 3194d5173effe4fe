package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
	SessionKeyLoginAt  = "login_at"
)

func init() {
	gob.Register(time.Time{})
}

const sqliteSessionSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

// SessionManager keeps cookie sessions for visitors, staff and owners.
//
// A session remembers the role the account had at login. The role tables stay
// authoritative: when the live role differs (staff deactivated, account
// promoted) the middleware discards the session and the user logs in again.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager stores sessions next to the application data when it is
// SQLite, and in memory for server databases.
func NewSessionManager(sqlDB *sql.DB, driver string, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	switch driver {
	case config.DriverSQLite:
		if _, err := sqlDB.Exec(sqliteSessionSchema); err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	default:
		sm.Store = memstore.New()
	}

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession starts a session for identity under a fresh token.
func (sm *SessionManager) CreateSession(r *http.Request, identity *Identity) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	// int, to match GetInt
	sm.Put(ctx, SessionKeyUserID, int(identity.User.ID))
	sm.Put(ctx, SessionKeyUsername, identity.User.Username)
	sm.Put(ctx, SessionKeyRole, string(identity.Role))
	sm.Put(ctx, SessionKeyLoginAt, time.Now().UTC())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID returns the session's user id, or 0 without a session.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// SessionData holds the session information for a request.
type SessionData struct {
	UserID   uint
	Username string
	Role     entities.Role
	LoginAt  time.Time
}

// GetSessionData returns nil when the request has no session.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	userID := sm.GetUserID(r)
	if userID == 0 {
		return nil
	}

	ctx := r.Context()
	loginAt, _ := sm.Get(ctx, SessionKeyLoginAt).(time.Time)
	return &SessionData{
		UserID:   userID,
		Username: sm.GetString(ctx, SessionKeyUsername),
		Role:     entities.Role(sm.GetString(ctx, SessionKeyRole)),
		LoginAt:  loginAt,
	}
}

// Stale reports whether the session was opened under a role the account no
// longer has.
func (d *SessionData) Stale(current *Identity) bool {
	return d.Role != "" && d.Role != current.Role
}
