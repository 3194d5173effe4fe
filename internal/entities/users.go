package entities

import (
	"time"

	"gorm.io/gorm"
)

// Role is derived from which role table holds a user's ID. It is never stored on the user row.
type Role string

const (
	RoleVisitor Role = "visitor"
	RoleStaff   Role = "staff"
	RoleOwner   Role = "owner"
)

// User is a login account. Profile data lives in the role tables.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email            string         `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash     string         `gorm:"size:100" json:"-"`
	TokenHash        string         `gorm:"index;size:64" json:"-"`
	TokenCreatedAt   *time.Time     `json:"-"`
	FailedLoginCount int            `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

type Visitor struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName    string     `gorm:"size:150;not null" json:"full_name"`
	Phone       string     `gorm:"size:30" json:"phone,omitempty"`
	Address     string     `gorm:"size:300" json:"address,omitempty"`
	IsMember    bool       `gorm:"default:false" json:"is_member"`
	MemberSince *time.Time `json:"member_since,omitempty"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Staff struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName  string    `gorm:"size:150;not null" json:"full_name"`
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`
	Position  string    `gorm:"size:100" json:"position,omitempty"`
	Active    bool      `gorm:"default:true" json:"active"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Owner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName  string    `gorm:"size:150;not null" json:"full_name"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (Visitor) TableName() string {
	return "visitors"
}

func (Staff) TableName() string {
	return "staff"
}

func (Owner) TableName() string {
	return "owners"
}
