package entities

import "time"

type ItemCondition string

const (
	ItemConditionGood    ItemCondition = "good"
	ItemConditionDamaged ItemCondition = "damaged"
	ItemConditionLost    ItemCondition = "lost"
)

func (c ItemCondition) Valid() bool {
	switch c {
	case ItemConditionGood, ItemConditionDamaged, ItemConditionLost:
		return true
	}
	return false
}

// Category groups inventory items. ItemCount is maintained alongside item writes.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	ItemCount   int       `gorm:"not null;default:0" json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InventoryItem struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Name       string        `gorm:"index;size:200;not null" json:"name"`
	CategoryID uint          `gorm:"index;not null" json:"category_id"`
	Category   *Category     `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Quantity   int           `gorm:"not null;default:0" json:"quantity"`
	Condition  ItemCondition `gorm:"size:20;not null;default:'good'" json:"condition"`
	Location   string        `gorm:"size:100" json:"location,omitempty"`
	Notes      string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}
