package audit

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/librarium/internal/database/audit"
	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// One connection so every goroutine sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))

	return NewService(auditRepo.NewRepository(db)), db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventLoan,
		Action:    "loan_create",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, svc.Log(event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "loan_create", saved.Action)
}

func TestService_Record(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful mutation", func(t *testing.T) {
		svc.Record(Entry{
			UserID:      7,
			Type:        entities.AuditEventMembership,
			Action:      "membership_verify",
			Description: "Verified application #3",
			EntityType:  "membership_application",
			EntityID:    3,
			Metadata:    map[string]any{"visitor_id": 11},
		})
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "membership_verify").First(&event).Error)
		assert.Equal(t, uint(7), event.UserID)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		require.NotNil(t, event.EntityID)
		assert.Equal(t, uint(3), *event.EntityID)
		assert.JSONEq(t, `{"visitor_id": 11}`, event.Metadata)
	})

	t.Run("failed mutation keeps the error", func(t *testing.T) {
		svc.Record(Entry{
			UserID: 7,
			Type:   entities.AuditEventPayment,
			Action: "payment_checkout",
			Err:    errors.New(strings.Repeat("x", 600)),
		})
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "payment_checkout").First(&event).Error)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Len(t, event.ErrorMsg, 500)
		assert.True(t, strings.HasSuffix(event.ErrorMsg, "..."))
		assert.Nil(t, event.EntityID)
	})
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth(1, "login", "10.0.0.1", true)
	svc.LogAuth(0, "login", "10.0.0.2", false)
	svc.Wait()

	events, total, err := svc.GetEvents(auditRepo.Filter{EventType: entities.AuditEventAuth}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, events, 2)

	var failed int64
	db.Model(&entities.AuditEvent{}).Where("status = ?", entities.AuditStatusFailed).Count(&failed)
	assert.Equal(t, int64(1), failed)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	old := &entities.AuditEvent{Action: "old", EventType: entities.AuditEventLoan, CreatedAt: time.Now().UTC().Add(-100 * 24 * time.Hour)}
	recent := &entities.AuditEvent{Action: "recent", EventType: entities.AuditEventLoan}
	require.NoError(t, svc.Log(old))
	require.NoError(t, svc.Log(recent))

	deleted, err := svc.DeleteOldEvents(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := svc.GetEvents(auditRepo.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "recent", events[0].Action)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
