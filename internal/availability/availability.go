// Package availability decides whether a shift or event can take more people.
//
// A solo booking occupies one slot. A group booking occupies one slot per
// filled member column, so a group of three named members takes three slots.
// Canceled bookings occupy nothing.
package availability

import (
	"fmt"

	"github.com/mrlokans/librarium/internal/entities"
)

// Booking is anything that can hold capacity in a shift or event.
type Booking interface {
	IsGroupBooking() bool
	MemberCount() int
	IsCanceled() bool
}

// Result is the outcome of a capacity check.
type Result struct {
	Available bool   `json:"available"`
	Capacity  int    `json:"capacity"`
	Occupied  int    `json:"occupied"`
	Remaining int    `json:"remaining"`
	Requested int    `json:"requested"`
	Message   string `json:"message"`
}

// Slots is the number of slots a single booking occupies.
func Slots(b Booking) int {
	if b.IsCanceled() {
		return 0
	}
	if b.IsGroupBooking() {
		return b.MemberCount()
	}
	return 1
}

// Requested is the number of slots a new booking with these group slots asks for.
func Requested(g entities.GroupSlots) int {
	if g.IsGroupBooking() {
		return g.MemberCount()
	}
	return 1
}

// Occupancy sums the slots held by bookings.
func Occupancy[B Booking](bookings []B) int {
	total := 0
	for _, b := range bookings {
		total += Slots(b)
	}
	return total
}

// Check compares the requested slots with what is left of maxCapacity.
func Check(maxCapacity, occupied, requested int) Result {
	remaining := maxCapacity - occupied
	if remaining < 0 {
		remaining = 0
	}
	result := Result{
		Available: remaining >= requested,
		Capacity:  maxCapacity,
		Occupied:  occupied,
		Remaining: remaining,
		Requested: requested,
	}
	switch {
	case remaining == 0:
		result.Message = "This shift is fully booked"
	case result.Available:
		result.Message = fmt.Sprintf("%d slot(s) available", remaining)
	default:
		result.Message = fmt.Sprintf("Only %d slot(s) left, %d requested", remaining, requested)
	}
	return result
}

// UnavailableError carries the failed check so callers can show its message.
type UnavailableError struct {
	Result Result
}

func (e *UnavailableError) Error() string {
	return e.Result.Message
}
