// Package shifts reads the fixed facility shifts seeded by migrations.
package shifts

import (
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

// List returns every shift ordered by start time.
func (r *Repository) List() ([]entities.Shift, error) {
	var shifts []entities.Shift
	err := r.db.Order("start_time ASC").Find(&shifts).Error
	return shifts, err
}

func (r *Repository) GetByID(id uint) (*entities.Shift, error) {
	var shift entities.Shift
	if err := r.db.First(&shift, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &shift, nil
}
