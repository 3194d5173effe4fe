package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarium/internal/entities"
)

// PaymentExpirer expires pending transactions created before a cutoff.
type PaymentExpirer interface {
	ExpireStale(ctx context.Context, before time.Time) (int, error)
}

// PaymentSyncer refreshes one transaction from the gateway.
type PaymentSyncer interface {
	Sync(ctx context.Context, orderID string) (*entities.Transaction, error)
}

// ExpirePendingPaymentsTask expires transactions that stayed pending longer
// than the configured payment expiry.
type ExpirePendingPaymentsTask struct{}

// Config returns the queue configuration for payment expiry tasks.
func (t ExpirePendingPaymentsTask) Config() backlite.QueueConfig {
	return queueConfig(QueueExpirePendingPayments, 3, time.Minute, 5*time.Minute)
}

// ExpirePendingPaymentsProcessor creates a processor function for
// ExpirePendingPaymentsTask. Transactions older than expiry are expired.
func ExpirePendingPaymentsProcessor(expirer PaymentExpirer, expiry time.Duration) backlite.QueueProcessor[ExpirePendingPaymentsTask] {
	return func(ctx context.Context, task ExpirePendingPaymentsTask) error {
		if expirer == nil {
			return fmt.Errorf("payment service not configured")
		}
		if expiry <= 0 {
			return fmt.Errorf("payment expiry must be positive, got %s", expiry)
		}

		expired, err := expirer.ExpireStale(ctx, time.Now().UTC().Add(-expiry))
		if err != nil {
			return fmt.Errorf("expire pending payments (%d done): %w", expired, err)
		}

		log.Printf("[TASK] Expired %d pending payments older than %s", expired, expiry)
		return nil
	}
}

// NewExpirePendingPaymentsQueue creates a backlite queue for payment expiry tasks.
func NewExpirePendingPaymentsQueue(expirer PaymentExpirer, expiry time.Duration) backlite.Queue {
	return backlite.NewQueue(ExpirePendingPaymentsProcessor(expirer, expiry))
}

// SyncPaymentStatusTask pulls the gateway status of a single order.
type SyncPaymentStatusTask struct {
	OrderID string `json:"order_id"`
}

// Config returns the queue configuration for payment sync tasks.
// Gateway calls are retried with a longer backoff.
func (t SyncPaymentStatusTask) Config() backlite.QueueConfig {
	return queueConfig(QueueSyncPaymentStatus, 5, 2*time.Minute, 30*time.Second)
}

// SyncPaymentStatusProcessor creates a processor function for SyncPaymentStatusTask.
func SyncPaymentStatusProcessor(syncer PaymentSyncer) backlite.QueueProcessor[SyncPaymentStatusTask] {
	return func(ctx context.Context, task SyncPaymentStatusTask) error {
		if syncer == nil {
			return fmt.Errorf("payment service not configured")
		}
		if task.OrderID == "" {
			return fmt.Errorf("order_id is required")
		}

		tx, err := syncer.Sync(ctx, task.OrderID)
		if err != nil {
			return fmt.Errorf("sync payment %s: %w", task.OrderID, err)
		}

		log.Printf("[TASK] Payment %s synced, status %s", tx.OrderID, tx.Status)
		return nil
	}
}

// NewSyncPaymentStatusQueue creates a backlite queue for payment sync tasks.
func NewSyncPaymentStatusQueue(syncer PaymentSyncer) backlite.Queue {
	return backlite.NewQueue(SyncPaymentStatusProcessor(syncer))
}
