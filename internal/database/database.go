package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

var defaultShifts = []entities.Shift{
	{Name: "Morning", StartTime: "09:00", EndTime: "12:00"},
	{Name: "Afternoon", StartTime: "13:00", EndTime: "16:00"},
	{Name: "Evening", StartTime: "16:00", EndTime: "19:00"},
}

// migratedModels is the full schema, in dependency order.
var migratedModels = []any{
	&entities.User{},
	&entities.Visitor{},
	&entities.Staff{},
	&entities.Owner{},
	&entities.Genre{},
	&entities.Book{},
	&entities.Loan{},
	&entities.Category{},
	&entities.InventoryItem{},
	&entities.Shift{},
	&entities.SessionBooking{},
	&entities.Event{},
	&entities.EventBooking{},
	&entities.MembershipApplication{},
	&entities.Transaction{},
	&entities.AuditEvent{},
}

type Database struct {
	DB     *gorm.DB
	driver string
}

func dialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", config.DriverSQLite:
		// foreign keys are off by default in SQLite
		return sqlite.Open(cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewDatabase(cfg config.Database) (*Database, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.LogSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		// SQLite compares timestamps as text, so every stored time is UTC
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}
	database := &Database{DB: db, driver: driver}

	if err := database.Migrate(); err != nil {
		return nil, err
	}

	log.Printf("Database initialized successfully (%s)", driver)

	return database, nil
}

// Migrate creates or updates every table and seeds the fixed shifts.
// Safe to run repeatedly.
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(migratedModels...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := d.seedShifts(); err != nil {
		return fmt.Errorf("failed to seed shifts: %w", err)
	}
	return nil
}

func (d *Database) seedShifts() error {
	for _, shift := range defaultShifts {
		var existing entities.Shift
		result := d.DB.Where("name = ?", shift.Name).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			continue
		}
		s := shift
		if err := d.DB.Create(&s).Error; err != nil {
			return fmt.Errorf("failed to create shift %s: %w", shift.Name, err)
		}
		log.Printf("Created shift: %s (%s-%s)", s.Name, s.StartTime, s.EndTime)
	}
	return nil
}

// Tables lists the table names managed by Migrate.
func (d *Database) Tables() []string {
	names := make([]string, 0, len(migratedModels))
	for _, m := range migratedModels {
		stmt := &gorm.Statement{DB: d.DB}
		if err := stmt.Parse(m); err == nil {
			names = append(names, stmt.Schema.Table)
		}
	}
	return names
}

// DriverName returns the configured driver (sqlite, postgres or mysql).
func (d *Database) DriverName() string {
	return d.driver
}

func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
