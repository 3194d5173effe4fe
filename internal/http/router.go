package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/entities"
)

// hstsMaxAge is one year, in seconds.
const hstsMaxAge = 365 * 24 * 60 * 60

// NewRouter creates and configures the HTTP router with all endpoints.
// AuthMiddleware is required: every role-protected route is guarded by it.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.Development {
		router.Use(detailedErrors())
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		opts := auth.CSRFOptions{
			Secret: cfg.CSRFSecret,
			Secure: cfg.SecureCookies,
			Exempt: []string{auth.PaymentNotificationsPath},
		}
		if cfg.AuthService != nil {
			opts.Tokens = cfg.AuthService
		}
		router.Use(auth.CSRFMiddleware(opts))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	m := cfg.AuthMiddleware
	router.Use(m.Handler())

	router.NoRoute(func(c *gin.Context) {
		respondNotFound(c, "route")
	})

	anyone := m.RequireRole(entities.RoleVisitor, entities.RoleStaff, entities.RoleOwner)
	visitorOnly := m.RequireRole(entities.RoleVisitor)
	staffOnly := m.RequireRole(entities.RoleStaff, entities.RoleOwner)
	ownerOnly := m.RequireRole(entities.RoleOwner)

	// Health endpoints
	health := NewHealthController(cfg.Version,
		databaseCheck(cfg.Database), shiftsCheck(cfg.Shifts), tasksCheck(cfg.TaskQueue))
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	// Page prefixes: pages are rendered by the client, the server only keeps
	// each role inside its own prefix.
	router.GET("/dashboard", m.DashboardRedirect)
	for _, prefix := range auth.RoleHome {
		router.GET(prefix+"/*page", m.RolePrefixGuard(), pagePlaceholder)
	}

	// Catalog
	books := NewBooksController(cfg.Books, cfg.Auditor)
	booksPath := collection("book")
	router.GET(booksPath, books.ListBooks)
	router.GET(booksPath+"/:id", books.GetBook)
	router.POST(booksPath, staffOnly, books.CreateBook)
	router.PUT(booksPath+"/:id", staffOnly, books.UpdateBook)
	router.DELETE(booksPath+"/:id", staffOnly, books.DeleteBook)

	genres := NewGenresController(cfg.Genres, cfg.Auditor)
	genresPath := collection("genre")
	router.GET(genresPath, genres.ListGenres)
	router.GET(genresPath+"/:id", genres.GetGenre)
	router.POST(genresPath, staffOnly, genres.CreateGenre)
	router.PUT(genresPath+"/:id", staffOnly, genres.UpdateGenre)
	router.DELETE(genresPath+"/:id", staffOnly, genres.DeleteGenre)

	// Loans
	loans := NewLoansController(cfg.Loans, cfg.Auditor)
	loansPath := collection("loan")
	router.GET(loansPath+"/policy", anyone, loans.LoanPolicy)
	router.GET(loansPath, staffOnly, loans.ListLoans)
	router.GET(loansPath+"/:id", staffOnly, loans.GetLoan)
	router.POST(loansPath, staffOnly, loans.CreateLoan)
	router.POST(loansPath+"/:id/return", staffOnly, loans.ReturnLoan)
	router.POST(loansPath+"/:id/extend", staffOnly, loans.ExtendLoan)

	// Inventory
	categories := NewCategoriesController(cfg.Categories, cfg.Auditor)
	categoriesPath := collection("category")
	router.GET(categoriesPath, staffOnly, categories.ListCategories)
	router.GET(categoriesPath+"/:id", staffOnly, categories.GetCategory)
	router.POST(categoriesPath, staffOnly, categories.CreateCategory)
	router.PUT(categoriesPath+"/:id", staffOnly, categories.UpdateCategory)
	router.DELETE(categoriesPath+"/:id", staffOnly, categories.DeleteCategory)

	inventory := NewInventoryController(cfg.Inventory, cfg.Auditor, cfg.LowStockThreshold)
	router.GET("/api/inventory", staffOnly, inventory.ListItems)
	router.GET("/api/inventory/low-stock", staffOnly, inventory.LowStock)
	router.GET("/api/inventory/:id", staffOnly, inventory.GetItem)
	router.POST("/api/inventory", staffOnly, inventory.CreateItem)
	router.PUT("/api/inventory/:id", staffOnly, inventory.UpdateItem)
	router.DELETE("/api/inventory/:id", staffOnly, inventory.DeleteItem)

	// Reservations
	shifts := NewShiftsController(cfg.Shifts)
	router.GET(collection("shift"), shifts.ListShifts)
	router.GET(collection("shift")+"/:id", shifts.GetShift)

	sessions := NewSessionsController(cfg.Sessions, cfg.Availability, cfg.Auditor)
	sessionsPath := collection("session")
	router.GET(sessionsPath+"/availability", sessions.Availability)
	router.POST(sessionsPath, visitorOnly, sessions.CreateSession)
	router.GET(sessionsPath, staffOnly, sessions.ListSessions)
	router.GET(sessionsPath+"/:id", anyone, sessions.GetSession)
	router.POST(sessionsPath+"/:id/cancel", anyone, sessions.CancelSession)
	router.POST(sessionsPath+"/:id/attend", staffOnly, sessions.AttendSession)

	events := NewEventsController(cfg.Events, cfg.Availability, cfg.Auditor)
	eventsPath := collection("event")
	router.GET(eventsPath, events.ListEvents)
	router.GET(eventsPath+"/:id", events.GetEvent)
	router.GET(eventsPath+"/:id/availability", events.Availability)
	router.POST(eventsPath, staffOnly, events.CreateEvent)
	router.PUT(eventsPath+"/:id", staffOnly, events.UpdateEvent)
	router.DELETE(eventsPath+"/:id", staffOnly, events.DeleteEvent)
	router.POST(eventsPath+"/:id/bookings", visitorOnly, events.BookEvent)
	router.GET(eventsPath+"/:id/bookings", staffOnly, events.ListBookings)
	router.POST("/api/event-bookings/:id/cancel", anyone, events.CancelBooking)

	// Memberships
	memberships := NewMembershipsController(cfg.Memberships, cfg.Auditor)
	membershipsPath := collection("membership")
	router.POST(membershipsPath, visitorOnly, memberships.Apply)
	router.GET(membershipsPath, staffOnly, memberships.ListApplications)
	router.GET(membershipsPath+"/:id", staffOnly, memberships.GetApplication)
	router.POST(membershipsPath+"/:id/verify", staffOnly, memberships.Verify)
	router.POST(membershipsPath+"/:id/reject", staffOnly, memberships.Reject)

	// Payments
	if cfg.Payments != nil {
		payments := NewPaymentsController(cfg.Payments, cfg.Transactions, cfg.Auditor)
		paymentsPath := collection("payment")
		router.POST(paymentsPath+"/checkout", visitorOnly, payments.Checkout)
		router.POST(auth.PaymentNotificationsPath, payments.Notification)
		router.GET(paymentsPath, ownerOnly, payments.ListTransactions)
		router.GET(paymentsPath+"/:order_id", anyone, payments.GetTransaction)
		router.POST(paymentsPath+"/:order_id/sync", anyone, payments.SyncTransaction)
	}

	// Visitors
	visitors := NewVisitorsController(cfg.Visitors)
	router.GET(collection("visitor"), staffOnly, visitors.ListVisitors)
	router.GET(collection("visitor")+"/:id", staffOnly, visitors.GetVisitor)

	me := router.Group("/api/me", visitorOnly)
	me.GET("/profile", visitors.MyProfile)
	me.PUT("/profile", visitors.UpdateMyProfile)
	me.GET("/loans", loans.MyLoans)
	me.GET("/sessions", sessions.MySessions)
	me.GET("/event-bookings", events.MyBookings)
	me.GET("/memberships", memberships.MyApplications)

	// Dashboards
	if cfg.Dashboard != nil {
		dashboard := NewDashboardController(cfg.Dashboard)
		router.GET("/api/staff/dashboard", staffOnly, dashboard.StaffDashboard)
		router.GET("/api/owner/dashboard", ownerOnly, dashboard.OwnerDashboard)
	}

	// Owner administration
	owner := router.Group("/api/owner", ownerOnly)

	staff := NewStaffController(cfg.Staff, cfg.Accounts, cfg.Auditor)
	owner.GET("/staff", staff.ListStaff)
	owner.GET("/staff/:id", staff.GetStaff)
	owner.POST("/staff", staff.CreateStaff)
	owner.PUT("/staff/:id", staff.UpdateStaff)
	owner.DELETE("/staff/:id", staff.DeleteStaff)

	auditLog := NewAuditController(cfg.AuditLog)
	owner.GET("/audit", auditLog.ListEvents)

	setup := NewSetupController(cfg.Migrator, cfg.Auditor)
	owner.POST("/setup/schema", setup.Schema)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasks := NewTasksController(cfg.TaskQueue, cfg.Scheduler, cfg.Auditor, cfg.AuditRetentionDays)
		owner.GET("/tasks/types", tasks.ListTaskTypes)
		owner.GET("/tasks/:id", tasks.GetTaskStatus)
		owner.POST("/tasks/:type/run", tasks.RunTask)
		owner.GET("/scheduler", tasks.Schedule)
	}

	return router
}

// pagePlaceholder answers page requests that passed the prefix guard.
func pagePlaceholder(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page": c.Request.URL.Path,
		"role": auth.GetUserRole(c),
	})
}
