package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main SQLite database
	DefaultDatabasePath = "./librarium.db"

	// DefaultTasksDatabasePath is the default path for the task queue database
	DefaultTasksDatabasePath = "./librarium-tasks.db"
)

// Supported DATABASE_DRIVER values
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)
