package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/availability"
	"github.com/mrlokans/librarium/internal/dashboard"
	"github.com/mrlokans/librarium/internal/database"
	auditRepo "github.com/mrlokans/librarium/internal/database/audit"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/database/events"
	"github.com/mrlokans/librarium/internal/database/genres"
	"github.com/mrlokans/librarium/internal/database/inventory"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/database/memberships"
	txstore "github.com/mrlokans/librarium/internal/database/payments"
	"github.com/mrlokans/librarium/internal/database/sessions"
	"github.com/mrlokans/librarium/internal/database/shifts"
	"github.com/mrlokans/librarium/internal/database/staff"
	"github.com/mrlokans/librarium/internal/database/users"
	"github.com/mrlokans/librarium/internal/http"
	"github.com/mrlokans/librarium/internal/payments"
	"github.com/mrlokans/librarium/internal/scheduler"
	"github.com/mrlokans/librarium/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.GenreStore = (*genres.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.LoanStore = (*loans.Repository)(nil)
var _ http.InventoryStore = (*inventory.Repository)(nil)
var _ http.ShiftStore = (*shifts.Repository)(nil)
var _ http.SessionStore = (*sessions.Repository)(nil)
var _ http.EventStore = (*events.Repository)(nil)
var _ http.MembershipStore = (*memberships.Repository)(nil)
var _ http.TransactionReader = (*txstore.Repository)(nil)
var _ http.StaffStore = (*staff.Repository)(nil)
var _ http.VisitorStore = (*users.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ http.Migrator = (*database.Database)(nil)

// Role tables behind the account service
var _ auth.AccountStore = (*users.Repository)(nil)

// Capacity sources
var _ availability.SessionSource = (*sessions.Repository)(nil)
var _ availability.EventSource = (*events.Repository)(nil)

// =============================================================================
// Services
// =============================================================================

var _ http.AvailabilityChecker = (*availability.Checker)(nil)
var _ http.AccountService = (*auth.Service)(nil)
var _ auth.TokenValidator = (*auth.Service)(nil)
var _ http.PaymentService = (*payments.Service)(nil)
var _ http.DashboardService = (*dashboard.Service)(nil)

// Audit log
var _ http.Auditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.AuditReader = (*auditRepo.Repository)(nil)
var _ auth.AuthAuditor = (*audit.Service)(nil)

// =============================================================================
// Payment Gateway
// =============================================================================

var _ payments.Gateway = (*payments.Client)(nil)
var _ payments.TransactionStore = (*txstore.Repository)(nil)
var _ payments.MembershipStore = (*memberships.Repository)(nil)
var _ payments.EventBookingStore = (*events.Repository)(nil)
var _ payments.VisitorStore = (*users.Repository)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.SchedulerInfo = (*scheduler.Scheduler)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
var _ tasks.OverdueMarker = (*loans.Repository)(nil)
var _ tasks.PaymentExpirer = (*payments.Service)(nil)
var _ tasks.PaymentSyncer = (*payments.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
