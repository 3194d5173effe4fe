package http

import (
	"github.com/mrlokans/librarium/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Application info
	Version     string
	Development bool // error details are returned to clients

	// Resource stores
	Categories   CategoryStore
	Genres       GenreStore
	Books        BookStore
	Loans        LoanStore
	Inventory    InventoryStore
	Shifts       ShiftStore
	Sessions     SessionStore
	Events       EventStore
	Memberships  MembershipStore
	Transactions TransactionReader
	Staff        StaffStore
	Visitors     VisitorStore

	// Services
	Availability AvailabilityChecker
	Accounts     AccountService
	Payments     PaymentService   // optional
	Dashboard    DashboardService // optional
	AuditLog     AuditReader
	Auditor      Auditor
	Database     Pinger
	Migrator     Migrator

	// Library rules
	LowStockThreshold  int
	AuditRetentionDays int

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue (optional)
	TaskQueue TaskQueue
	Scheduler SchedulerInfo
}
