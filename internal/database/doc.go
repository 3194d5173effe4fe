// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, shift seeding
//	├── errors.go        # Repository errors and driver error classification
//	├── users/           # Role resolution and visitor profiles
//	├── staff/           # Staff profiles
//	├── genres/          # Book genres
//	├── books/           # Book catalog
//	├── loans/           # Book loans, returns and fines
//	├── categories/      # Inventory categories
//	├── inventory/       # Inventory items
//	├── shifts/          # Facility shifts
//	├── sessions/        # Facility session bookings
//	├── events/          # Events and event bookings
//	├── memberships/     # Membership applications
//	├── payments/        # Payment transactions
//	└── audit/           # Audit log
//
// # Drivers
//
// SQLite is the default. PostgreSQL and MySQL are selected with DATABASE_DRIVER
// and DATABASE_DSN. Repositories only use portable SQL so they run unchanged
// on all three.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	loansRepo := loans.NewRepository(db.DB)
//	loan, err := loansRepo.GetByID(42)
//	if errors.Is(err, database.ErrNotFound) {
//		// 404
//	}
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in migratedModels
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
