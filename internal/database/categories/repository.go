// Package categories provides database operations for inventory categories.
//
// A category's item_count is maintained by the inventory repository inside
// the same transaction as each item write; this package only reads it.
package categories

import (
	"strings"
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

func (r *Repository) List() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &category, nil
}

func nameTaken(db *gorm.DB, name string, excludeID uint) (bool, error) {
	var count int64
	query := db.Model(&entities.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create adds a category. Names are unique regardless of case.
func (r *Repository) Create(name, description string) (*entities.Category, error) {
	category := &entities.Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, category.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return database.ErrDuplicateName
		}
		return tx.Create(category).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, database.ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) Update(id uint, name, description string) (*entities.Category, error) {
	name = strings.TrimSpace(name)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return database.ErrDuplicateName
		}
		result := tx.Model(&entities.Category{}).Where("id = ?", id).Updates(map[string]any{
			"name":        name,
			"description": strings.TrimSpace(description),
			"updated_at":  time.Now().UTC(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if database.IsUniqueViolation(err) {
		return nil, database.ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete removes an empty category. A category with item_count > 0 is refused.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var category entities.Category
		if err := tx.First(&category, id).Error; err != nil {
			return database.NotFound(err)
		}
		if category.ItemCount > 0 {
			return database.ErrCategoryInUse
		}
		result := tx.Where("item_count = 0").Delete(&entities.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrCategoryInUse
		}
		return nil
	})
}
