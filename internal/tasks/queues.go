package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
)

// Queue names. They double as the task types accepted by the run endpoint.
const (
	QueueMarkOverdueLoans      = "mark_overdue_loans"
	QueueExpirePendingPayments = "expire_pending_payments"
	QueueCleanupAuditEvents    = "cleanup_audit_events"
	QueueSyncPaymentStatus     = "sync_payment_status"
)

// queueConfig keeps finished tasks for a day and payloads of failed ones only.
func queueConfig(name string, attempts int, backoff, timeout time.Duration) backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: attempts,
		Backoff:     backoff,
		Timeout:     timeout,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// TaskType describes a task that can be started by hand.
type TaskType struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// Types lists every task the queue knows how to run.
func Types() []TaskType {
	return []TaskType{
		{
			Type:        QueueMarkOverdueLoans,
			Description: "Flag On Going loans past their due date as Overdue",
			Queue:       QueueMarkOverdueLoans,
		},
		{
			Type:        QueueExpirePendingPayments,
			Description: "Expire pending payments older than the payment expiry and release their bookings",
			Queue:       QueueExpirePendingPayments,
		},
		{
			Type:        QueueCleanupAuditEvents,
			Description: "Delete audit events older than the retention period",
			Queue:       QueueCleanupAuditEvents,
		},
		{
			Type:        QueueSyncPaymentStatus,
			Description: "Pull the gateway status of one order (requires order_id)",
			Queue:       QueueSyncPaymentStatus,
		},
	}
}
