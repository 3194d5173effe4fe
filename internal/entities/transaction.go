package entities

import "time"

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusPaid     TransactionStatus = "paid"
	TransactionStatusFailed   TransactionStatus = "failed"
	TransactionStatusCanceled TransactionStatus = "canceled"
	TransactionStatusExpired  TransactionStatus = "expired"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

// IsFinal reports whether no further gateway notification can change the status.
func (s TransactionStatus) IsFinal() bool {
	switch s {
	case TransactionStatusPaid, TransactionStatusFailed, TransactionStatusCanceled,
		TransactionStatusExpired, TransactionStatusRefunded:
		return true
	}
	return false
}

type PaymentPurpose string

const (
	PaymentPurposeMembership   PaymentPurpose = "membership"
	PaymentPurposeEventBooking PaymentPurpose = "event_booking"
)

// Transaction mirrors one payment gateway order.
type Transaction struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	OrderID       string            `gorm:"uniqueIndex;size:64;not null" json:"order_id"`
	VisitorID     uint              `gorm:"index;not null" json:"visitor_id"`
	Purpose       PaymentPurpose    `gorm:"index;size:30;not null" json:"purpose"`
	ReferenceID   uint              `gorm:"index;not null" json:"reference_id"`
	Amount        int64             `gorm:"not null" json:"amount"`
	Status        TransactionStatus `gorm:"index;size:20;not null;default:'pending'" json:"status"`
	GatewayStatus string            `gorm:"size:30" json:"gateway_status,omitempty"`
	PaymentType   string            `gorm:"size:50" json:"payment_type,omitempty"`
	SnapToken     string            `gorm:"size:100" json:"snap_token,omitempty"`
	RedirectURL   string            `gorm:"size:500" json:"redirect_url,omitempty"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
