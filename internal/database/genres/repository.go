// Package genres provides database operations for book genres.
package genres

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

// GenreWithCount is a genre plus the number of books assigned to it.
type GenreWithCount struct {
	entities.Genre
	BookCount int64 `json:"book_count"`
}

func (r *Repository) List() ([]GenreWithCount, error) {
	var genres []GenreWithCount
	err := r.db.Model(&entities.Genre{}).
		Select("genres.*, COUNT(books.id) AS book_count").
		Joins("LEFT JOIN books ON books.genre_id = genres.id").
		Group("genres.id").
		Order("genres.name ASC").
		Scan(&genres).Error
	return genres, err
}

func (r *Repository) GetByID(id uint) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.First(&genre, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &genre, nil
}

// nameTaken compares names case-insensitively, ignoring excludeID.
func (r *Repository) nameTaken(db *gorm.DB, name string, excludeID uint) (bool, error) {
	var count int64
	query := db.Model(&entities.Genre{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(name string) (*entities.Genre, error) {
	name = strings.TrimSpace(name)
	genre := &entities.Genre{Name: name}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		taken, err := r.nameTaken(tx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return database.ErrDuplicateName
		}
		return tx.Create(genre).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, database.ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}
	return genre, nil
}

func (r *Repository) Update(id uint, name string) (*entities.Genre, error) {
	name = strings.TrimSpace(name)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		taken, err := r.nameTaken(tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return database.ErrDuplicateName
		}
		result := tx.Model(&entities.Genre{}).Where("id = ?", id).
			Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
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

// Delete removes a genre that no book references.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var books int64
		if err := tx.Model(&entities.Book{}).Where("genre_id = ?", id).Count(&books).Error; err != nil {
			return err
		}
		if books > 0 {
			return database.ErrGenreInUse
		}
		result := tx.Delete(&entities.Genre{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
