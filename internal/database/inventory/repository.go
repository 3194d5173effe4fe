// Package inventory provides database operations for inventory items.
//
// Every write that adds, removes or moves an item adjusts the owning
// category's item_count in the same transaction.
package inventory

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	CategoryID uint
	Query      string
	Condition  entities.ItemCondition
}

func (r *Repository) List(filter Filter) ([]entities.InventoryItem, error) {
	var items []entities.InventoryItem
	query := r.db.Preload("Category").Order("name ASC")
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}
	if filter.Condition != "" {
		// condition is a reserved word in MySQL; the map form lets gorm quote it
		query = query.Where(map[string]any{"condition": filter.Condition})
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *Repository) GetByID(id uint) (*entities.InventoryItem, error) {
	var item entities.InventoryItem
	if err := r.db.Preload("Category").First(&item, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &item, nil
}

// LowStock returns items whose quantity is at or below threshold, excluding lost items.
func (r *Repository) LowStock(threshold int) ([]entities.InventoryItem, error) {
	var items []entities.InventoryItem
	err := r.db.Preload("Category").
		Where("quantity <= ?", threshold).
		Not(map[string]any{"condition": entities.ItemConditionLost}).
		Order("quantity ASC, name ASC").
		Find(&items).Error
	return items, err
}

func adjustItemCount(tx *gorm.DB, categoryID uint, delta int) error {
	result := tx.Model(&entities.Category{}).Where("id = ?", categoryID).
		Update("item_count", gorm.Expr("item_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrInvalidReference
	}
	return nil
}

// Create inserts the item and increments its category's item_count atomically.
// An unknown category yields database.ErrInvalidReference.
func (r *Repository) Create(item *entities.InventoryItem) error {
	if item.Condition == "" {
		item.Condition = entities.ItemConditionGood
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := adjustItemCount(tx, item.CategoryID, 1); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(item).Error
	})
	if database.IsForeignKeyViolation(err) {
		return database.ErrInvalidReference
	}
	return err
}

// Update replaces the editable fields. Moving the item to another category
// shifts one unit of item_count between the two categories.
func (r *Repository) Update(id uint, upd entities.InventoryItem) (*entities.InventoryItem, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var current entities.InventoryItem
		if err := tx.First(&current, id).Error; err != nil {
			return database.NotFound(err)
		}
		if upd.CategoryID != 0 && upd.CategoryID != current.CategoryID {
			if err := adjustItemCount(tx, upd.CategoryID, 1); err != nil {
				return err
			}
			if err := adjustItemCount(tx, current.CategoryID, -1); err != nil {
				return err
			}
		} else {
			upd.CategoryID = current.CategoryID
		}
		if upd.Condition == "" {
			upd.Condition = current.Condition
		}
		return tx.Model(&entities.InventoryItem{}).Where("id = ?", id).Updates(map[string]any{
			"name":        upd.Name,
			"category_id": upd.CategoryID,
			"quantity":    upd.Quantity,
			"condition":   upd.Condition,
			"location":    upd.Location,
			"notes":       upd.Notes,
			"updated_at":  time.Now().UTC(),
		}).Error
	})
	if database.IsForeignKeyViolation(err) {
		return nil, database.ErrInvalidReference
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete removes the item and decrements its category's item_count atomically.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var item entities.InventoryItem
		if err := tx.First(&item, id).Error; err != nil {
			return database.NotFound(err)
		}
		if err := tx.Delete(&entities.InventoryItem{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Category{}).
			Where("id = ? AND item_count > 0", item.CategoryID).
			Update("item_count", gorm.Expr("item_count - 1")).Error
	})
}
