package entities

import "time"

type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "Pending"
	MembershipStatusVerified MembershipStatus = "Verified"
	MembershipStatusRejected MembershipStatus = "Rejected"
)

// MembershipApplication is a visitor's request to become a member, reviewed by staff.
type MembershipApplication struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	VisitorID    uint             `gorm:"index;not null" json:"visitor_id"`
	FullName     string           `gorm:"size:150;not null" json:"full_name"`
	IDNumber     string           `gorm:"size:50;not null" json:"id_number"`
	Phone        string           `gorm:"size:30;not null" json:"phone"`
	Address      string           `gorm:"size:300" json:"address,omitempty"`
	Reason       string           `gorm:"type:text" json:"reason,omitempty"`
	Status       MembershipStatus `gorm:"index;size:20;not null;default:'Pending'" json:"status"`
	FeePaid      bool             `gorm:"default:false" json:"fee_paid"`
	ReviewedByID *uint            `json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	ReviewNote   string           `gorm:"size:500" json:"review_note,omitempty"`
	Visitor      *Visitor         `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE" json:"visitor,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (MembershipApplication) TableName() string {
	return "membership_applications"
}
