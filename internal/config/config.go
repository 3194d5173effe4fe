package config

import (
	"time"

	"github.com/spf13/viper"
)

// Environment names accepted in APP_ENV.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Library
		Payment
		Audit
		Tasks
		Scheduler
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		Env                      string
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver string // sqlite, postgres or mysql
		DSN    string // Used by postgres and mysql
		Path   string // Used by sqlite
		LogSQL bool
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Library struct {
		LoanDurationDays   int
		LoanMaxBooks       int
		LoanFinePerDay     int64
		SessionMaxCapacity int
		LowStockThreshold  int
		MembershipFee      int64
	}
	Payment struct {
		ServerKey  string
		ClientKey  string
		Production bool
		Expiry     time.Duration // Pending transactions older than this are expired
	}
	Audit struct {
		RetentionDays int
	}
	Tasks struct {
		Enabled         bool
		DBPath          string // Dedicated SQLite database for the queue
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		Enabled        bool
		OverdueLoans   string // Cron format: "0 * * * *" = hourly
		ExpirePayments string
		AuditCleanup   string
	}
)

// IsDevelopment reports whether detailed error messages may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c.Global.Env == EnvDevelopment
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("app_env", EnvProduction)
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_sql", false)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Library rules
	v.SetDefault("loan_duration_days", 7)
	v.SetDefault("loan_max_books", 2)
	v.SetDefault("loan_fine_per_day", 1000)
	v.SetDefault("session_max_capacity", 20)
	v.SetDefault("inventory_low_stock_threshold", 2)
	v.SetDefault("membership_fee", 50000)

	// Payment gateway
	v.SetDefault("payment_server_key", "")
	v.SetDefault("payment_client_key", "")
	v.SetDefault("payment_production", false)
	v.SetDefault("payment_expiry", "24h")

	v.SetDefault("audit_retention_days", 90)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Scheduler defaults
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("schedule_overdue_loans", "0 * * * *")      // Hourly at :00
	v.SetDefault("schedule_expire_payments", "*/15 * * * *") // Every 15 minutes
	v.SetDefault("schedule_audit_cleanup", "30 3 * * *")     // Daily at 03:30

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			Env:                      v.GetString("APP_ENV"),
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
			Path:   v.GetString("DATABASE_PATH"),
			LogSQL: v.GetBool("DATABASE_LOG_SQL"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Library: Library{
			LoanDurationDays:   v.GetInt("LOAN_DURATION_DAYS"),
			LoanMaxBooks:       v.GetInt("LOAN_MAX_BOOKS"),
			LoanFinePerDay:     v.GetInt64("LOAN_FINE_PER_DAY"),
			SessionMaxCapacity: v.GetInt("SESSION_MAX_CAPACITY"),
			LowStockThreshold:  v.GetInt("INVENTORY_LOW_STOCK_THRESHOLD"),
			MembershipFee:      v.GetInt64("MEMBERSHIP_FEE"),
		},
		Payment: Payment{
			ServerKey:  v.GetString("PAYMENT_SERVER_KEY"),
			ClientKey:  v.GetString("PAYMENT_CLIENT_KEY"),
			Production: v.GetBool("PAYMENT_PRODUCTION"),
			Expiry:     v.GetDuration("PAYMENT_EXPIRY"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			DBPath:          v.GetString("TASKS_DB_PATH"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			Enabled:        v.GetBool("SCHEDULER_ENABLED"),
			OverdueLoans:   v.GetString("SCHEDULE_OVERDUE_LOANS"),
			ExpirePayments: v.GetString("SCHEDULE_EXPIRE_PAYMENTS"),
			AuditCleanup:   v.GetString("SCHEDULE_AUDIT_CLEANUP"),
		},
	}
}
