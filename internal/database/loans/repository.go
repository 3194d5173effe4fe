// Package loans provides database operations for book loans.
//
// Status transitions are single-row guarded updates: a loan only moves to
// Returned from On Going or Overdue, and only On Going loans are extended.
// Zero affected rows mean the transition was not allowed.
package loans

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

type Repository struct {
	db     *gorm.DB
	policy Policy
}

func NewRepository(db *gorm.DB, policy Policy) *Repository {
	return &Repository{db: db, policy: policy}
}

func (r *Repository) Policy() Policy {
	return r.policy
}

// CreateRequest describes a new loan. Zero LoanDate means today; zero DueDate
// means the policy's due date.
type CreateRequest struct {
	VisitorID   uint
	BookIDs     []uint
	LoanDate    time.Time
	DueDate     time.Time
	HandledByID *uint
}

// Create records a loan after checking the visitor exists and every book
// exists and is not held by an active loan.
func (r *Repository) Create(req CreateRequest) (*entities.Loan, error) {
	if err := r.policy.ValidateBooks(req.BookIDs); err != nil {
		return nil, err
	}

	loanDate := Day(time.Now())
	if !req.LoanDate.IsZero() {
		loanDate = Day(req.LoanDate)
	}
	dueDate := r.policy.DueDate(loanDate)
	if !req.DueDate.IsZero() {
		if !Day(req.DueDate).After(loanDate) {
			return nil, ErrDueBeforeLoan
		}
		dueDate = Day(req.DueDate)
	}

	loan := &entities.Loan{
		VisitorID:   req.VisitorID,
		BookID:      req.BookIDs[0],
		LoanDate:    loanDate,
		DueDate:     dueDate,
		Status:      entities.LoanStatusOnGoing,
		HandledByID: req.HandledByID,
	}
	if len(req.BookIDs) > 1 {
		second := req.BookIDs[1]
		loan.SecondBookID = &second
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var visitors int64
		if err := tx.Model(&entities.Visitor{}).Where("id = ?", req.VisitorID).Count(&visitors).Error; err != nil {
			return err
		}
		if visitors == 0 {
			return fmt.Errorf("visitor %d: %w", req.VisitorID, database.ErrNotFound)
		}

		var books int64
		if err := tx.Model(&entities.Book{}).Where("id IN ?", req.BookIDs).Count(&books).Error; err != nil {
			return err
		}
		if int(books) != len(req.BookIDs) {
			return fmt.Errorf("book: %w", database.ErrNotFound)
		}

		var held int64
		err := tx.Model(&entities.Loan{}).
			Where("status IN ?", entities.ActiveLoanStatuses).
			Where("book_id IN ? OR second_book_id IN ?", req.BookIDs, req.BookIDs).
			Count(&held).Error
		if err != nil {
			return err
		}
		if held > 0 {
			return database.ErrBookOnLoan
		}

		return tx.Omit(clause.Associations).Create(loan).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(loan.ID)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status    entities.LoanStatus
	VisitorID uint
}

func (r *Repository) List(filter Filter) ([]entities.Loan, error) {
	var loans []entities.Loan
	query := r.db.Preload("Visitor").Preload("Book").Preload("SecondBook").
		Order("loan_date DESC, id DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VisitorID > 0 {
		query = query.Where("visitor_id = ?", filter.VisitorID)
	}
	err := query.Find(&loans).Error
	return loans, err
}

func (r *Repository) GetByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Preload("Visitor").Preload("Book").Preload("SecondBook").First(&loan, id).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &loan, nil
}

// Return closes an active loan and charges the late fine.
// A loan that is already returned yields database.ErrInvalidTransition.
func (r *Repository) Return(id uint, returnedAt time.Time, handledByID *uint) (*entities.Loan, error) {
	loan, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	returnedAt = returnedAt.UTC()
	updates := map[string]any{
		"status":      entities.LoanStatusReturned,
		"returned_at": returnedAt,
		"fine":        r.policy.Fine(loan.DueDate, returnedAt),
		"updated_at":  time.Now().UTC(),
	}
	if handledByID != nil {
		updates["handled_by_id"] = *handledByID
	}

	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND status IN ?", id, entities.ActiveLoanStatuses).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, database.ErrInvalidTransition
	}
	return r.GetByID(id)
}

// Extend pushes the due date of an On Going loan by one loan duration.
func (r *Repository) Extend(id uint) (*entities.Loan, error) {
	loan, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND status = ?", id, entities.LoanStatusOnGoing).
		Updates(map[string]any{
			"due_date":   loan.DueDate.AddDate(0, 0, r.policy.DurationDays),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, database.ErrInvalidTransition
	}
	return r.GetByID(id)
}

// MarkOverdue flags every On Going loan whose due date is before now's day.
// Returns the number of loans flagged.
func (r *Repository) MarkOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&entities.Loan{}).
		Where("status = ? AND due_date < ?", entities.LoanStatusOnGoing, Day(now)).
		Updates(map[string]any{
			"status":     entities.LoanStatusOverdue,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
