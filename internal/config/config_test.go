package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 7, cfg.Library.LoanDurationDays)
	assert.Equal(t, 2, cfg.Library.LoanMaxBooks)
	assert.Equal(t, 20, cfg.Library.SessionMaxCapacity)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.OverdueLoans)
	assert.False(t, cfg.IsDevelopment())
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/librarium")
	t.Setenv("SESSION_MAX_CAPACITY", "35")
	t.Setenv("PAYMENT_EXPIRY", "2h")

	cfg := NewConfig()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/librarium", cfg.Database.DSN)
	assert.Equal(t, 35, cfg.Library.SessionMaxCapacity)
	assert.Equal(t, 2*time.Hour, cfg.Payment.Expiry)
}
