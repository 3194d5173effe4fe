package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a cleanup task carries no retention.
const DefaultAuditRetentionDays = 90

// OverdueMarker flags loans that are past their due date.
type OverdueMarker interface {
	MarkOverdue(now time.Time) (int64, error)
}

// AuditEventCleaner deletes audit events older than a retention window.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// MarkOverdueLoansTask moves every On Going loan past its due date to Overdue.
type MarkOverdueLoansTask struct{}

func (MarkOverdueLoansTask) Config() backlite.QueueConfig {
	return queueConfig(QueueMarkOverdueLoans, 3, time.Minute, time.Minute)
}

// MarkOverdueLoansProcessor flags overdue loans as of the time the task runs.
func MarkOverdueLoansProcessor(marker OverdueMarker) backlite.QueueProcessor[MarkOverdueLoansTask] {
	return func(ctx context.Context, _ MarkOverdueLoansTask) error {
		if marker == nil {
			return errors.New("loan store not configured")
		}
		flagged, err := marker.MarkOverdue(time.Now().UTC())
		if err != nil {
			return fmt.Errorf("mark overdue loans: %w", err)
		}
		log.Printf("[TASK] Marked %d loans as overdue", flagged)
		return nil
	}
}

func NewMarkOverdueLoansQueue(marker OverdueMarker) backlite.Queue {
	return backlite.NewQueue(MarkOverdueLoansProcessor(marker))
}

// CleanupAuditEventsTask trims the audit log. Zero RetentionDays means
// DefaultAuditRetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return queueConfig(QueueCleanupAuditEvents, 3, 5*time.Minute, 2*time.Minute)
}

func (t CleanupAuditEventsTask) retention() (int, time.Duration) {
	days := t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return days, time.Duration(days) * 24 * time.Hour
}

// CleanupAuditEventsProcessor deletes audit events older than the task's retention.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}
		days, window := task.retention()
		deleted, err := cleaner.DeleteOldEvents(window)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}
		log.Printf("[TASK] Deleted %d audit events older than %d days", deleted, days)
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
