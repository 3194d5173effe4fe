// Package books provides database operations for the book catalog.
//
// A book is available when no On Going or Overdue loan holds it, either as
// the loan's first or second book. Availability is computed on read and
// never stored.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(123)
package books

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Query         string
	GenreID       uint
	AvailableOnly bool
}

// activeLoanBooks selects the IDs of every book held by an active loan.
func activeLoanBooks(db *gorm.DB) *gorm.DB {
	return db.Model(&entities.Loan{}).
		Select("book_id").
		Where("status IN ?", entities.ActiveLoanStatuses)
}

func activeLoanSecondBooks(db *gorm.DB) *gorm.DB {
	return db.Model(&entities.Loan{}).
		Select("second_book_id").
		Where("status IN ? AND second_book_id IS NOT NULL", entities.ActiveLoanStatuses)
}

// onLoan returns the subset of ids currently held by an active loan.
func (r *Repository) onLoan(db *gorm.DB, ids []uint) (map[uint]bool, error) {
	held := make(map[uint]bool)
	if len(ids) == 0 {
		return held, nil
	}
	var loans []entities.Loan
	err := db.Select("book_id", "second_book_id").
		Where("status IN ?", entities.ActiveLoanStatuses).
		Where("book_id IN ? OR second_book_id IN ?", ids, ids).
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	for _, l := range loans {
		for _, id := range l.BookIDs() {
			held[id] = true
		}
	}
	return held, nil
}

func (r *Repository) markAvailability(books []entities.Book) error {
	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	held, err := r.onLoan(r.db, ids)
	if err != nil {
		return err
	}
	for i := range books {
		books[i].Available = !held[books[i].ID]
	}
	return nil
}

// List returns books matching the filter, each with its availability.
func (r *Repository) List(filter Filter) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Preload("Genre").Order("title ASC")
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", like, like, like)
	}
	if filter.GenreID > 0 {
		query = query.Where("genre_id = ?", filter.GenreID)
	}
	if filter.AvailableOnly {
		query = query.
			Where("id NOT IN (?)", activeLoanBooks(r.db)).
			Where("id NOT IN (?)", activeLoanSecondBooks(r.db))
	}
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	if err := r.markAvailability(books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetByID retrieves a book with its genre and availability.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.Preload("Genre").First(&book, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	held, err := r.onLoan(r.db, []uint{id})
	if err != nil {
		return nil, err
	}
	book.Available = !held[id]
	return &book, nil
}

func normalize(book *entities.Book) {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	if book.ISBN != nil {
		isbn := strings.TrimSpace(*book.ISBN)
		if isbn == "" {
			book.ISBN = nil
		} else {
			book.ISBN = &isbn
		}
	}
}

func (r *Repository) checkGenre(db *gorm.DB, genreID *uint) error {
	if genreID == nil {
		return nil
	}
	var count int64
	if err := db.Model(&entities.Genre{}).Where("id = ?", *genreID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return database.ErrInvalidReference
	}
	return nil
}

func translateWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return database.ErrDuplicateISBN
	case database.IsForeignKeyViolation(err):
		return database.ErrInvalidReference
	}
	return err
}

// Create adds a book. A duplicate ISBN yields database.ErrDuplicateISBN and
// an unknown genre database.ErrInvalidReference.
func (r *Repository) Create(book *entities.Book) error {
	normalize(book)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkGenre(tx, book.GenreID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(book).Error
	})
	if err != nil {
		return translateWriteError(err)
	}
	book.Available = true
	return nil
}

// Update replaces the editable fields of a book.
func (r *Repository) Update(id uint, book entities.Book) (*entities.Book, error) {
	normalize(&book)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkGenre(tx, book.GenreID); err != nil {
			return err
		}
		result := tx.Model(&entities.Book{}).Where("id = ?", id).Updates(map[string]any{
			"title":          book.Title,
			"author":         book.Author,
			"isbn":           book.ISBN,
			"publisher":      book.Publisher,
			"published_year": book.PublishedYear,
			"genre_id":       book.GenreID,
			"description":    book.Description,
			"location":       book.Location,
			"updated_at":     time.Now().UTC(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err)
	}
	return r.GetByID(id)
}

// Delete removes a book that is not on an active loan. A book with loan
// history is kept by the foreign key and yields database.ErrReferenced.
func (r *Repository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		held, err := r.onLoan(tx, []uint{id})
		if err != nil {
			return err
		}
		if held[id] {
			return database.ErrBookOnLoan
		}
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if database.IsForeignKeyViolation(err) {
		return database.ErrReferenced
	}
	return err
}

// Count returns the number of books in the catalog.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
