// Package auth provides authentication and role-based authorization.
//
// Accounts live in the users table; the role of an account is not stored on
// it but resolved on every request from the role tables, checked in the
// order owners, staff, visitors. Staff rows with active=false resolve to no
// role, which locks the account out of every role-protected route.
//
// Clients authenticate either with a session cookie (scs, stored in the
// application database on SQLite) or with a Bearer API token. Cookie
// authenticated writes are CSRF protected; Bearer requests are not.
//
// # Usage
//
//	svc := auth.NewService(db, users.NewRepository(db), cfg.Auth)
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
//	mw := auth.NewMiddleware(svc, sm)
//	router.Use(sm.SessionLoadSave(), mw.Handler())
//	router.GET("/api/loans", mw.RequireRole(entities.RoleStaff), handler)
//
// Page prefixes belong to one role each (see RoleHome). RolePrefixGuard
// redirects a caller that strays into another role's prefix back home.
package auth
