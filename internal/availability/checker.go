package availability

import (
	"github.com/mrlokans/librarium/internal/entities"
)

// SessionSource reads the session bookings of one date and shift.
type SessionSource interface {
	ListActiveForSlot(date string, shiftID uint) ([]entities.SessionBooking, error)
}

// EventSource reads an event and its bookings.
type EventSource interface {
	GetByID(id uint) (*entities.Event, error)
	ListActiveBookings(eventID uint) ([]entities.EventBooking, error)
}

// Checker answers availability queries against stored bookings.
type Checker struct {
	sessions        SessionSource
	events          EventSource
	sessionCapacity int
}

func NewChecker(sessions SessionSource, events EventSource, sessionCapacity int) *Checker {
	return &Checker{
		sessions:        sessions,
		events:          events,
		sessionCapacity: sessionCapacity,
	}
}

// SessionCapacity is the number of people one shift can hold.
func (c *Checker) SessionCapacity() int {
	return c.sessionCapacity
}

// CheckSession checks whether requested slots fit in a date's shift.
func (c *Checker) CheckSession(date string, shiftID uint, requested int) (Result, error) {
	bookings, err := c.sessions.ListActiveForSlot(date, shiftID)
	if err != nil {
		return Result{}, err
	}
	return Check(c.sessionCapacity, Occupancy(bookings), requested), nil
}

// CheckEvent checks whether requested slots fit in an event.
func (c *Checker) CheckEvent(eventID uint, requested int) (Result, error) {
	event, err := c.events.GetByID(eventID)
	if err != nil {
		return Result{}, err
	}
	bookings, err := c.events.ListActiveBookings(eventID)
	if err != nil {
		return Result{}, err
	}
	return Check(event.MaxCapacity, Occupancy(bookings), requested), nil
}
