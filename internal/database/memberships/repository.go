// Package memberships provides database operations for membership applications.
package memberships

import (
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

// Apply files a Pending application. A visitor who is already a member, or
// who has a Pending or Verified application, cannot apply again.
func (r *Repository) Apply(app *entities.MembershipApplication) error {
	app.Status = entities.MembershipStatusPending
	return r.db.Transaction(func(tx *gorm.DB) error {
		var visitor entities.Visitor
		if err := tx.First(&visitor, app.VisitorID).Error; err != nil {
			return database.NotFound(err)
		}
		if visitor.IsMember {
			return database.ErrAlreadyMember
		}

		var open int64
		err := tx.Model(&entities.MembershipApplication{}).
			Where("visitor_id = ? AND status IN ?", app.VisitorID,
				[]entities.MembershipStatus{entities.MembershipStatusPending, entities.MembershipStatusVerified}).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return database.ErrApplicationExists
		}

		return tx.Omit(clause.Associations).Create(app).Error
	})
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status    entities.MembershipStatus
	VisitorID uint
}

func (r *Repository) List(filter Filter) ([]entities.MembershipApplication, error) {
	var apps []entities.MembershipApplication
	query := r.db.Preload("Visitor").Order("created_at DESC, id DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VisitorID > 0 {
		query = query.Where("visitor_id = ?", filter.VisitorID)
	}
	err := query.Find(&apps).Error
	return apps, err
}

func (r *Repository) GetByID(id uint) (*entities.MembershipApplication, error) {
	var app entities.MembershipApplication
	if err := r.db.Preload("Visitor").First(&app, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &app, nil
}

// review moves a Pending application to status. Only Pending applications
// can be reviewed; anything else yields database.ErrInvalidTransition.
func review(tx *gorm.DB, id uint, status entities.MembershipStatus, reviewerID *uint, note string, at time.Time) error {
	result := tx.Model(&entities.MembershipApplication{}).
		Where("id = ? AND status = ?", id, entities.MembershipStatusPending).
		Updates(map[string]any{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
			"review_note":    note,
			"updated_at":     at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&entities.MembershipApplication{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return database.ErrNotFound
		}
		return database.ErrInvalidTransition
	}
	return nil
}

// Verify accepts a Pending application and makes its visitor a member in the
// same transaction.
func (r *Repository) Verify(id uint, reviewerID *uint, note string) (*entities.MembershipApplication, error) {
	now := time.Now().UTC()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := review(tx, id, entities.MembershipStatusVerified, reviewerID, note, now); err != nil {
			return err
		}
		var app entities.MembershipApplication
		if err := tx.Select("visitor_id").First(&app, id).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Visitor{}).Where("id = ?", app.VisitorID).Updates(map[string]any{
			"is_member":    true,
			"member_since": now,
			"updated_at":   now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Reject declines a Pending application.
func (r *Repository) Reject(id uint, reviewerID *uint, note string) (*entities.MembershipApplication, error) {
	if err := review(r.db, id, entities.MembershipStatusRejected, reviewerID, note, time.Now().UTC()); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// MarkFeePaid records that the membership fee for an application was paid.
func (r *Repository) MarkFeePaid(id uint) error {
	result := r.db.Model(&entities.MembershipApplication{}).Where("id = ?", id).
		Updates(map[string]any{"fee_paid": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
