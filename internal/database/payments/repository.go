// Package payments provides database operations for payment transactions.
//
// A transaction leaves pending exactly once. The only change allowed after
// that is paid to refunded; every status write is guarded on the current
// status so replayed gateway notifications are harmless.
package payments

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(tx *entities.Transaction) error {
	if tx.Status == "" {
		tx.Status = entities.TransactionStatusPending
	}
	return r.db.Create(tx).Error
}

func (r *Repository) GetByOrderID(orderID string) (*entities.Transaction, error) {
	var tx entities.Transaction
	if err := r.db.Where("order_id = ?", orderID).First(&tx).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &tx, nil
}

// FindPending returns the pending transaction for a purpose and reference, if any.
func (r *Repository) FindPending(purpose entities.PaymentPurpose, referenceID uint) (*entities.Transaction, error) {
	var tx entities.Transaction
	err := r.db.Where("purpose = ? AND reference_id = ? AND status = ?",
		purpose, referenceID, entities.TransactionStatusPending).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &tx, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status    entities.TransactionStatus
	Purpose   entities.PaymentPurpose
	VisitorID uint
}

func (r *Repository) List(filter Filter, limit, offset int) ([]entities.Transaction, int64, error) {
	var txs []entities.Transaction
	var total int64

	query := r.db.Model(&entities.Transaction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Purpose != "" {
		query = query.Where("purpose = ?", filter.Purpose)
	}
	if filter.VisitorID > 0 {
		query = query.Where("visitor_id = ?", filter.VisitorID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&txs).Error
	return txs, total, err
}

// SetCheckout stores the gateway token and redirect URL of a new transaction.
func (r *Repository) SetCheckout(id uint, token, redirectURL string) error {
	return r.db.Model(&entities.Transaction{}).Where("id = ?", id).Updates(map[string]any{
		"snap_token":   token,
		"redirect_url": redirectURL,
		"updated_at":   time.Now().UTC(),
	}).Error
}

// StatusUpdate is a status reported by the gateway.
type StatusUpdate struct {
	Status        entities.TransactionStatus
	GatewayStatus string
	PaymentType   string
	At            time.Time
}

// ApplyStatus moves a transaction to upd.Status when the transition is
// allowed. It reports whether the row changed; an ignored transition is not
// an error.
func (r *Repository) ApplyStatus(orderID string, upd StatusUpdate) (bool, error) {
	at := upd.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	updates := map[string]any{
		"status":         upd.Status,
		"gateway_status": upd.GatewayStatus,
		"updated_at":     at,
	}
	if upd.PaymentType != "" {
		updates["payment_type"] = upd.PaymentType
	}
	if upd.Status == entities.TransactionStatusPaid {
		updates["paid_at"] = at
	}

	query := r.db.Model(&entities.Transaction{}).Where("order_id = ?", orderID)
	switch upd.Status {
	case entities.TransactionStatusPending:
		// only refresh gateway details
		delete(updates, "status")
		query = query.Where("status = ?", entities.TransactionStatusPending)
	case entities.TransactionStatusRefunded:
		query = query.Where("status IN ?", []entities.TransactionStatus{
			entities.TransactionStatusPending, entities.TransactionStatusPaid,
		})
	default:
		query = query.Where("status = ?", entities.TransactionStatusPending)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByOrderID(orderID); err != nil {
			return false, err
		}
		return false, nil
	}
	return upd.Status != entities.TransactionStatusPending, nil
}

// ListStalePending returns pending transactions created before the cutoff.
func (r *Repository) ListStalePending(before time.Time) ([]entities.Transaction, error) {
	var txs []entities.Transaction
	err := r.db.Where("status = ? AND created_at < ?", entities.TransactionStatusPending, before).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}
