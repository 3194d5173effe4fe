// Package interfaces documents the core abstractions used throughout the application.
//
// Controllers in internal/http depend on narrow interfaces rather than on
// repositories, so every handler can be exercised with a fake. The database
// repositories and services satisfy them directly; checks.go proves it at
// compile time.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CategoryStore, GenreStore, BookStore: catalog and inventory reference data (internal/http/stores.go)
//   - LoanStore: lending and returns, plus the active loan policy
//   - InventoryStore: items and low-stock queries
//   - SessionStore, EventStore: facility sessions, events and event bookings
//   - MembershipStore: membership applications and their review
//   - StaffStore, VisitorStore: role profiles
//   - AccountStore: user rows together with their role row (internal/auth/service.go)
//   - TokenValidator: bearer tokens that bypass CSRF (internal/auth/csrf.go)
//
// ## Capacity
//
//   - SessionSource, EventSource: bookings counted by the availability checker (internal/availability/checker.go)
//   - AvailabilityChecker: capacity answers used by the booking handlers
//
// ## Payments
//
//   - Gateway: the hosted payment page API (internal/payments/service.go)
//   - TransactionStore, MembershipStore, EventBookingStore: records settled by a payment
//
// ## Background Work
//
//   - TaskQueue, SchedulerInfo: queue access for the owner endpoints (internal/http/tasks.go)
//   - OverdueMarker, PaymentExpirer, PaymentSyncer, AuditEventCleaner: task processors (internal/tasks)
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/lockers/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the store the controller needs in internal/http/stores.go
//
//  4. Add compile-time check:
//
//     var _ http.LockerStore = (*lockers.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
