// Package sessions provides database operations for facility session bookings.
//
// Creating a booking checks capacity and inserts in the same transaction so
// the occupancy read and the insert see the same rows.
package sessions

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarium/internal/availability"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ availability.SessionSource = (*Repository)(nil)

func activeForSlot(db *gorm.DB, date string, shiftID uint) ([]entities.SessionBooking, error) {
	var bookings []entities.SessionBooking
	err := db.Where("date = ? AND shift_id = ? AND status <> ?", date, shiftID, entities.BookingStatusCanceled).
		Find(&bookings).Error
	return bookings, err
}

// ListActiveForSlot returns the non-canceled bookings of a date and shift.
func (r *Repository) ListActiveForSlot(date string, shiftID uint) ([]entities.SessionBooking, error) {
	return activeForSlot(r.db, date, shiftID)
}

// Create books a shift for a visitor if capacity allows.
//
// Errors: database.ErrInvalidReference for an unknown shift,
// database.ErrAlreadyBooked when the visitor already holds the slot, and
// database.ErrSlotUnavailable (wrapping *availability.UnavailableError)
// when the shift cannot take the requested slots.
func (r *Repository) Create(booking *entities.SessionBooking, capacity int) (availability.Result, error) {
	var result availability.Result
	if booking.Status == "" {
		booking.Status = entities.BookingStatusBooked
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var shifts int64
		if err := tx.Model(&entities.Shift{}).Where("id = ?", booking.ShiftID).Count(&shifts).Error; err != nil {
			return err
		}
		if shifts == 0 {
			return database.ErrInvalidReference
		}

		var mine int64
		err := tx.Model(&entities.SessionBooking{}).
			Where("visitor_id = ? AND date = ? AND shift_id = ? AND status <> ?",
				booking.VisitorID, booking.Date, booking.ShiftID, entities.BookingStatusCanceled).
			Count(&mine).Error
		if err != nil {
			return err
		}
		if mine > 0 {
			return database.ErrAlreadyBooked
		}

		existing, err := activeForSlot(tx, booking.Date, booking.ShiftID)
		if err != nil {
			return err
		}
		result = availability.Check(capacity, availability.Occupancy(existing), availability.Requested(booking.GroupSlots))
		if !result.Available {
			return fmt.Errorf("%w: %w", database.ErrSlotUnavailable, &availability.UnavailableError{Result: result})
		}

		return tx.Omit(clause.Associations).Create(booking).Error
	})
	if database.IsForeignKeyViolation(err) {
		return result, database.ErrInvalidReference
	}
	return result, err
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Date      string
	ShiftID   uint
	VisitorID uint
	Status    entities.BookingStatus
}

func (r *Repository) List(filter Filter) ([]entities.SessionBooking, error) {
	var bookings []entities.SessionBooking
	query := r.db.Preload("Shift").Preload("Visitor").Order("date DESC, shift_id ASC, id ASC")
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.ShiftID > 0 {
		query = query.Where("shift_id = ?", filter.ShiftID)
	}
	if filter.VisitorID > 0 {
		query = query.Where("visitor_id = ?", filter.VisitorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Find(&bookings).Error
	return bookings, err
}

func (r *Repository) GetByID(id uint) (*entities.SessionBooking, error) {
	var booking entities.SessionBooking
	if err := r.db.Preload("Shift").Preload("Visitor").First(&booking, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &booking, nil
}

func (r *Repository) transition(id uint, from, to entities.BookingStatus) (*entities.SessionBooking, error) {
	result := r.db.Model(&entities.SessionBooking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return nil, err
		}
		return nil, database.ErrInvalidTransition
	}
	return r.GetByID(id)
}

// Cancel releases a Booked session.
func (r *Repository) Cancel(id uint) (*entities.SessionBooking, error) {
	return r.transition(id, entities.BookingStatusBooked, entities.BookingStatusCanceled)
}

// MarkAttended records that a Booked session took place.
func (r *Repository) MarkAttended(id uint) (*entities.SessionBooking, error) {
	return r.transition(id, entities.BookingStatusBooked, entities.BookingStatusAttended)
}
