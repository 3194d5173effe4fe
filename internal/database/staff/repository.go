// Package staff provides database operations for staff profiles.
// Accounts are created and removed through users.Repository.
package staff

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

// List returns staff members ordered by name. activeOnly hides deactivated staff.
func (r *Repository) List(activeOnly bool) ([]entities.Staff, error) {
	var staff []entities.Staff
	query := r.db.Preload("User").Order("full_name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	err := query.Find(&staff).Error
	return staff, err
}

func (r *Repository) GetByID(id uint) (*entities.Staff, error) {
	var s entities.Staff
	if err := r.db.Preload("User").First(&s, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &s, nil
}

func (r *Repository) GetByUserID(userID uint) (*entities.Staff, error) {
	var s entities.Staff
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &s, nil
}

// Update holds the editable staff fields. Nil fields are left untouched.
type Update struct {
	FullName *string
	Phone    *string
	Position *string
	Active   *bool
}

func (r *Repository) Update(id uint, upd Update) (*entities.Staff, error) {
	updates := map[string]any{}
	if upd.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*upd.FullName)
	}
	if upd.Phone != nil {
		updates["phone"] = *upd.Phone
	}
	if upd.Position != nil {
		updates["position"] = *upd.Position
	}
	if upd.Active != nil {
		updates["active"] = *upd.Active
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		result := r.db.Model(&entities.Staff{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, database.ErrNotFound
		}
	}
	return r.GetByID(id)
}

// CountActive returns the number of active staff members.
func (r *Repository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Staff{}).Where("active = ?", true).Count(&count).Error
	return count, err
}
