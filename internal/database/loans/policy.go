package loans

import (
	"errors"
	"fmt"
	"time"
)

// Policy holds the lending rules.
type Policy struct {
	DurationDays int
	MaxBooks     int
	FinePerDay   int64
}

var (
	ErrNoBooks        = errors.New("at least one book is required")
	ErrDuplicateBooks = errors.New("the same book cannot be loaned twice")
	ErrDueBeforeLoan  = errors.New("due date must be after the loan date")
	ErrTooManyBooks   = errors.New("too many books for one loan")
)

// Day truncates t to midnight UTC. Loan dates and fines work in whole days.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateBooks checks the number and distinctness of the requested books.
func (p Policy) ValidateBooks(bookIDs []uint) error {
	if len(bookIDs) == 0 {
		return ErrNoBooks
	}
	if len(bookIDs) > p.MaxBooks {
		return fmt.Errorf("%w: a loan can hold at most %d books", ErrTooManyBooks, p.MaxBooks)
	}
	seen := make(map[uint]bool, len(bookIDs))
	for _, id := range bookIDs {
		if seen[id] {
			return ErrDuplicateBooks
		}
		seen[id] = true
	}
	return nil
}

// DueDate is the loan date plus the loan duration.
func (p Policy) DueDate(loanDate time.Time) time.Time {
	return Day(loanDate).AddDate(0, 0, p.DurationDays)
}

// DaysLate counts whole days between the due date and the return date.
func DaysLate(dueDate, returnedAt time.Time) int {
	days := int(Day(returnedAt).Sub(Day(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Fine is the late fee for a loan returned at returnedAt.
func (p Policy) Fine(dueDate, returnedAt time.Time) int64 {
	return int64(DaysLate(dueDate, returnedAt)) * p.FinePerDay
}
