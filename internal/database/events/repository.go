// Package events provides database operations for events and event bookings.
//
// Free events confirm bookings immediately. Paid events hold a booking as
// Pending Payment until the payment for it is settled; a pending booking
// occupies capacity like a confirmed one.
package events

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
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// today is the current UTC date as YYYY-MM-DD, which orders like event dates.
func (r *Repository) today() string {
	return r.now().UTC().Format("2006-01-02")
}

var _ availability.EventSource = (*Repository)(nil)

// activeBookingStatuses hold capacity.
var activeBookingStatuses = []entities.BookingStatus{
	entities.BookingStatusPendingPayment,
	entities.BookingStatusConfirmed,
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status entities.EventStatus
	From   string // YYYY-MM-DD, inclusive
}

func (r *Repository) List(filter Filter) ([]entities.Event, error) {
	var events []entities.Event
	query := r.db.Preload("Shift").Order("date ASC, shift_id ASC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != "" {
		query = query.Where("date >= ?", filter.From)
	}
	err := query.Find(&events).Error
	return events, err
}

func (r *Repository) GetByID(id uint) (*entities.Event, error) {
	var event entities.Event
	if err := r.db.Preload("Shift").First(&event, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &event, nil
}

func checkShift(tx *gorm.DB, shiftID uint) error {
	var count int64
	if err := tx.Model(&entities.Shift{}).Where("id = ?", shiftID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return database.ErrInvalidReference
	}
	return nil
}

func (r *Repository) Create(event *entities.Event) error {
	if event.Status == "" {
		event.Status = entities.EventStatusOpen
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := checkShift(tx, event.ShiftID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(event).Error
	})
}

func (r *Repository) Update(id uint, event entities.Event) (*entities.Event, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := checkShift(tx, event.ShiftID); err != nil {
			return err
		}
		updates := map[string]any{
			"title":        event.Title,
			"description":  event.Description,
			"date":         event.Date,
			"shift_id":     event.ShiftID,
			"max_capacity": event.MaxCapacity,
			"price":        event.Price,
			"updated_at":   time.Now().UTC(),
		}
		if event.Status != "" {
			updates["status"] = event.Status
		}
		result := tx.Model(&entities.Event{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete removes an event that has no active bookings. Events with bookings
// should be canceled instead.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&entities.EventBooking{}).
			Where("event_id = ? AND status IN ?", id, activeBookingStatuses).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return database.ErrReferenced
		}
		if err := tx.Where("event_id = ?", id).Delete(&entities.EventBooking{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

func activeBookings(db *gorm.DB, eventID uint) ([]entities.EventBooking, error) {
	var bookings []entities.EventBooking
	err := db.Where("event_id = ? AND status IN ?", eventID, activeBookingStatuses).Find(&bookings).Error
	return bookings, err
}

// ListActiveBookings returns the bookings of an event that hold capacity.
func (r *Repository) ListActiveBookings(eventID uint) ([]entities.EventBooking, error) {
	return activeBookings(r.db, eventID)
}

// Book reserves places at an open event that has not already taken place.
//
// Errors: database.ErrNotFound for an unknown event, database.ErrEventNotOpen,
// database.ErrAlreadyBooked when the visitor already holds a booking, and
// database.ErrSlotUnavailable (wrapping *availability.UnavailableError).
func (r *Repository) Book(booking *entities.EventBooking) (availability.Result, error) {
	var result availability.Result
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var event entities.Event
		if err := tx.First(&event, booking.EventID).Error; err != nil {
			return database.NotFound(err)
		}
		if event.Status != entities.EventStatusOpen || event.Date < r.today() {
			return database.ErrEventNotOpen
		}

		var mine int64
		err := tx.Model(&entities.EventBooking{}).
			Where("event_id = ? AND visitor_id = ? AND status IN ?", booking.EventID, booking.VisitorID, activeBookingStatuses).
			Count(&mine).Error
		if err != nil {
			return err
		}
		if mine > 0 {
			return database.ErrAlreadyBooked
		}

		existing, err := activeBookings(tx, booking.EventID)
		if err != nil {
			return err
		}
		result = availability.Check(event.MaxCapacity, availability.Occupancy(existing), availability.Requested(booking.GroupSlots))
		if !result.Available {
			return fmt.Errorf("%w: %w", database.ErrSlotUnavailable, &availability.UnavailableError{Result: result})
		}

		booking.Status = entities.BookingStatusConfirmed
		if event.Price > 0 {
			booking.Status = entities.BookingStatusPendingPayment
		}
		return tx.Omit(clause.Associations).Create(booking).Error
	})
	return result, err
}

// BookingFilter narrows ListBookings. Zero values match everything.
type BookingFilter struct {
	EventID   uint
	VisitorID uint
	Status    entities.BookingStatus
}

func (r *Repository) ListBookings(filter BookingFilter) ([]entities.EventBooking, error) {
	var bookings []entities.EventBooking
	query := r.db.Preload("Event").Preload("Visitor").Order("created_at DESC, id DESC")
	if filter.EventID > 0 {
		query = query.Where("event_id = ?", filter.EventID)
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

func (r *Repository) GetBooking(id uint) (*entities.EventBooking, error) {
	var booking entities.EventBooking
	if err := r.db.Preload("Event").Preload("Visitor").First(&booking, id).Error; err != nil {
		return nil, database.NotFound(err)
	}
	return &booking, nil
}

func (r *Repository) transition(id uint, from []entities.BookingStatus, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.Model(&entities.EventBooking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetBooking(id); err != nil {
			return err
		}
		return database.ErrInvalidTransition
	}
	return nil
}

// CancelBooking releases a pending or confirmed booking.
func (r *Repository) CancelBooking(id uint) (*entities.EventBooking, error) {
	err := r.transition(id, activeBookingStatuses, map[string]any{"status": entities.BookingStatusCanceled})
	if err != nil {
		return nil, err
	}
	return r.GetBooking(id)
}

// ConfirmPayment confirms a booking that was waiting for payment.
func (r *Repository) ConfirmPayment(id uint) error {
	return r.transition(id,
		[]entities.BookingStatus{entities.BookingStatusPendingPayment},
		map[string]any{"status": entities.BookingStatusConfirmed})
}

// ReleaseUnpaid cancels a booking that is still waiting for payment.
func (r *Repository) ReleaseUnpaid(id uint) error {
	return r.transition(id,
		[]entities.BookingStatus{entities.BookingStatusPendingPayment},
		map[string]any{"status": entities.BookingStatusCanceled})
}

// ListStaleUnpaid returns Pending Payment bookings made before the cutoff
// that have no transaction, or only one that is neither pending nor paid.
func (r *Repository) ListStaleUnpaid(before time.Time) ([]entities.EventBooking, error) {
	live := r.db.Model(&entities.Transaction{}).Select("id").
		Where("status IN ?", []entities.TransactionStatus{
			entities.TransactionStatusPending,
			entities.TransactionStatusPaid,
		})

	var bookings []entities.EventBooking
	err := r.db.
		Where("status = ? AND created_at < ?", entities.BookingStatusPendingPayment, before).
		Where("transaction_id IS NULL OR transaction_id NOT IN (?)", live).
		Order("id").
		Find(&bookings).Error
	return bookings, err
}

// AttachTransaction links a booking to the transaction paying for it.
func (r *Repository) AttachTransaction(bookingID, transactionID uint) error {
	return r.db.Model(&entities.EventBooking{}).Where("id = ?", bookingID).
		Update("transaction_id", transactionID).Error
}
