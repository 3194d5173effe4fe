package entities

import "time"

// MaxGroupMembers is the number of member slots a group booking carries.
const MaxGroupMembers = 5

type BookingStatus string

const (
	BookingStatusBooked         BookingStatus = "Booked"
	BookingStatusAttended       BookingStatus = "Attended"
	BookingStatusPendingPayment BookingStatus = "Pending Payment"
	BookingStatusConfirmed      BookingStatus = "Confirmed"
	BookingStatusCanceled       BookingStatus = "Canceled"
)

type EventStatus string

const (
	EventStatusOpen     EventStatus = "open"
	EventStatusClosed   EventStatus = "closed"
	EventStatusCanceled EventStatus = "canceled"
)

// Shift is a named time window shared by session bookings and events.
type Shift struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	StartTime string `gorm:"size:5;not null" json:"start_time"` // HH:MM
	EndTime   string `gorm:"size:5;not null" json:"end_time"`   // HH:MM
}

// GroupSlots holds the optional group member columns shared by session and event bookings.
type GroupSlots struct {
	IsGroup bool    `gorm:"default:false" json:"is_group"`
	Member1 *string `gorm:"column:member_1;size:150" json:"member_1,omitempty"`
	Member2 *string `gorm:"column:member_2;size:150" json:"member_2,omitempty"`
	Member3 *string `gorm:"column:member_3;size:150" json:"member_3,omitempty"`
	Member4 *string `gorm:"column:member_4;size:150" json:"member_4,omitempty"`
	Member5 *string `gorm:"column:member_5;size:150" json:"member_5,omitempty"`
}

func (g GroupSlots) slots() []*string {
	return []*string{g.Member1, g.Member2, g.Member3, g.Member4, g.Member5}
}

// Members returns the non-null member names in slot order.
func (g GroupSlots) Members() []string {
	var members []string
	for _, m := range g.slots() {
		if m != nil {
			members = append(members, *m)
		}
	}
	return members
}

// MemberCount counts the non-null member slots.
func (g GroupSlots) MemberCount() int {
	return len(g.Members())
}

// IsGroupBooking reports whether the booking occupies one slot per member.
func (g GroupSlots) IsGroupBooking() bool {
	return g.IsGroup
}

// NewGroupSlots fills member slots in order. Names beyond MaxGroupMembers are ignored;
// callers validate the count first.
func NewGroupSlots(isGroup bool, members []string) GroupSlots {
	g := GroupSlots{IsGroup: isGroup}
	if !isGroup {
		return g
	}
	targets := []**string{&g.Member1, &g.Member2, &g.Member3, &g.Member4, &g.Member5}
	for i, name := range members {
		if i >= len(targets) {
			break
		}
		n := name
		*targets[i] = &n
	}
	return g
}

// SessionBooking is a visitor's reservation of a facility shift on a date.
type SessionBooking struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	VisitorID  uint          `gorm:"index;not null" json:"visitor_id"`
	Date       string        `gorm:"index:idx_session_slot;size:10;not null" json:"date"` // YYYY-MM-DD
	ShiftID    uint          `gorm:"index:idx_session_slot;not null" json:"shift_id"`
	GroupSlots `gorm:"embedded"`
	Purpose    string        `gorm:"size:300" json:"purpose,omitempty"`
	Status     BookingStatus `gorm:"index;size:20;not null;default:'Booked'" json:"status"`
	Visitor    *Visitor      `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE" json:"visitor,omitempty"`
	Shift      *Shift        `gorm:"foreignKey:ShiftID;constraint:OnDelete:RESTRICT" json:"shift,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type Event struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Date        string      `gorm:"index;size:10;not null" json:"date"` // YYYY-MM-DD
	ShiftID     uint        `gorm:"index;not null" json:"shift_id"`
	Shift       *Shift      `gorm:"foreignKey:ShiftID;constraint:OnDelete:RESTRICT" json:"shift,omitempty"`
	MaxCapacity int         `gorm:"not null" json:"max_capacity"`
	Price       int64       `gorm:"not null;default:0" json:"price"`
	Status      EventStatus `gorm:"index;size:20;not null;default:'open'" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type EventBooking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	EventID       uint          `gorm:"index;not null" json:"event_id"`
	VisitorID     uint          `gorm:"index;not null" json:"visitor_id"`
	GroupSlots    `gorm:"embedded"`
	Status        BookingStatus `gorm:"index;size:20;not null" json:"status"`
	TransactionID *uint         `json:"transaction_id,omitempty"`
	Event         *Event        `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`
	Visitor       *Visitor      `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE" json:"visitor,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Shift) TableName() string {
	return "shifts"
}

// The scs session store owns the "sessions" table.
func (SessionBooking) TableName() string {
	return "session_bookings"
}

func (Event) TableName() string {
	return "events"
}

func (EventBooking) TableName() string {
	return "event_bookings"
}

// IsCanceled reports whether the booking no longer occupies capacity.
func (b SessionBooking) IsCanceled() bool {
	return b.Status == BookingStatusCanceled
}

// IsCanceled reports whether the booking no longer occupies capacity.
func (b EventBooking) IsCanceled() bool {
	return b.Status == BookingStatusCanceled
}
