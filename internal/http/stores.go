package http

import (
	"context"
	"time"

	"github.com/mrlokans/librarium/internal/availability"
	auditRepo "github.com/mrlokans/librarium/internal/database/audit"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/events"
	"github.com/mrlokans/librarium/internal/database/genres"
	"github.com/mrlokans/librarium/internal/database/inventory"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/database/memberships"
	txstore "github.com/mrlokans/librarium/internal/database/payments"
	"github.com/mrlokans/librarium/internal/database/sessions"
	"github.com/mrlokans/librarium/internal/database/staff"
	"github.com/mrlokans/librarium/internal/database/users"
	"github.com/mrlokans/librarium/internal/dashboard"
	"github.com/mrlokans/librarium/internal/entities"
	"github.com/mrlokans/librarium/internal/payments"
)

// Each controller depends on the narrowest store it needs. The database
// repositories satisfy these interfaces directly.

// CategoryStore manages inventory categories.
type CategoryStore interface {
	List() ([]entities.Category, error)
	GetByID(id uint) (*entities.Category, error)
	Create(name, description string) (*entities.Category, error)
	Update(id uint, name, description string) (*entities.Category, error)
	Delete(id uint) error
}

// GenreStore manages book genres.
type GenreStore interface {
	List() ([]genres.GenreWithCount, error)
	GetByID(id uint) (*entities.Genre, error)
	Create(name string) (*entities.Genre, error)
	Update(id uint, name string) (*entities.Genre, error)
	Delete(id uint) error
}

// BookStore manages the catalog.
type BookStore interface {
	List(filter books.Filter) ([]entities.Book, error)
	GetByID(id uint) (*entities.Book, error)
	Create(book *entities.Book) error
	Update(id uint, book entities.Book) (*entities.Book, error)
	Delete(id uint) error
}

// LoanStore records loans and returns.
type LoanStore interface {
	Create(req loans.CreateRequest) (*entities.Loan, error)
	List(filter loans.Filter) ([]entities.Loan, error)
	GetByID(id uint) (*entities.Loan, error)
	Return(id uint, returnedAt time.Time, handledByID *uint) (*entities.Loan, error)
	Extend(id uint) (*entities.Loan, error)
	Policy() loans.Policy
}

// InventoryStore manages inventory items.
type InventoryStore interface {
	List(filter inventory.Filter) ([]entities.InventoryItem, error)
	GetByID(id uint) (*entities.InventoryItem, error)
	LowStock(threshold int) ([]entities.InventoryItem, error)
	Create(item *entities.InventoryItem) error
	Update(id uint, item entities.InventoryItem) (*entities.InventoryItem, error)
	Delete(id uint) error
}

// ShiftStore reads the fixed shifts.
type ShiftStore interface {
	List() ([]entities.Shift, error)
	GetByID(id uint) (*entities.Shift, error)
}

// SessionStore manages facility session bookings.
type SessionStore interface {
	Create(booking *entities.SessionBooking, capacity int) (availability.Result, error)
	List(filter sessions.Filter) ([]entities.SessionBooking, error)
	GetByID(id uint) (*entities.SessionBooking, error)
	Cancel(id uint) (*entities.SessionBooking, error)
	MarkAttended(id uint) (*entities.SessionBooking, error)
}

// EventStore manages events and their bookings.
type EventStore interface {
	List(filter events.Filter) ([]entities.Event, error)
	GetByID(id uint) (*entities.Event, error)
	Create(event *entities.Event) error
	Update(id uint, event entities.Event) (*entities.Event, error)
	Delete(id uint) error
	Book(booking *entities.EventBooking) (availability.Result, error)
	ListBookings(filter events.BookingFilter) ([]entities.EventBooking, error)
	GetBooking(id uint) (*entities.EventBooking, error)
	CancelBooking(id uint) (*entities.EventBooking, error)
}

// AvailabilityChecker answers capacity queries.
type AvailabilityChecker interface {
	CheckSession(date string, shiftID uint, requested int) (availability.Result, error)
	CheckEvent(eventID uint, requested int) (availability.Result, error)
	SessionCapacity() int
}

// MembershipStore manages membership applications.
type MembershipStore interface {
	Apply(app *entities.MembershipApplication) error
	List(filter memberships.Filter) ([]entities.MembershipApplication, error)
	GetByID(id uint) (*entities.MembershipApplication, error)
	Verify(id uint, reviewerID *uint, note string) (*entities.MembershipApplication, error)
	Reject(id uint, reviewerID *uint, note string) (*entities.MembershipApplication, error)
}

// PaymentService drives checkouts and gateway notifications.
type PaymentService interface {
	Checkout(ctx context.Context, visitorID uint, purpose entities.PaymentPurpose, referenceID uint) (*entities.Transaction, error)
	HandleNotification(ctx context.Context, n *payments.StatusResponse) (*entities.Transaction, error)
	Sync(ctx context.Context, orderID string) (*entities.Transaction, error)
}

// TransactionReader reads stored transactions.
type TransactionReader interface {
	GetByOrderID(orderID string) (*entities.Transaction, error)
	List(filter txstore.Filter, limit, offset int) ([]entities.Transaction, int64, error)
}

// StaffStore manages staff profiles.
type StaffStore interface {
	List(activeOnly bool) ([]entities.Staff, error)
	GetByID(id uint) (*entities.Staff, error)
	Update(id uint, upd staff.Update) (*entities.Staff, error)
}

// VisitorStore reads and edits visitor profiles.
type VisitorStore interface {
	GetVisitorByID(id uint) (*entities.Visitor, error)
	ListVisitors(q string, membersOnly bool, limit, offset int) ([]entities.Visitor, int64, error)
	UpdateVisitor(id uint, upd users.VisitorUpdate) (*entities.Visitor, error)
}

// DashboardService builds the role dashboards.
type DashboardService interface {
	Staff(ctx context.Context) (*dashboard.StaffSummary, error)
	Owner(ctx context.Context) (*dashboard.OwnerSummary, error)
}

// AuditReader pages through the audit log.
type AuditReader interface {
	GetEvents(filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// Migrator re-runs schema migration and seeding.
type Migrator interface {
	Migrate() error
	Tables() []string
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}
