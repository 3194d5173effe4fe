package entities

import "time"

type LoanStatus string

const (
	LoanStatusOnGoing  LoanStatus = "On Going"
	LoanStatusOverdue  LoanStatus = "Overdue"
	LoanStatusReturned LoanStatus = "Returned"
)

// ActiveLoanStatuses are the statuses in which a loan still holds its books.
var ActiveLoanStatuses = []LoanStatus{LoanStatusOnGoing, LoanStatusOverdue}

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"index;size:512;not null" json:"title"`
	Author        string    `gorm:"index;size:256;not null" json:"author"`
	ISBN          *string   `gorm:"uniqueIndex;size:20" json:"isbn,omitempty"`
	Publisher     string    `gorm:"size:256" json:"publisher,omitempty"`
	PublishedYear int       `json:"published_year,omitempty"`
	GenreID       *uint     `gorm:"index" json:"genre_id,omitempty"`
	Genre         *Genre    `gorm:"foreignKey:GenreID;constraint:OnDelete:RESTRICT" json:"genre,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	Location      string    `gorm:"size:50" json:"location,omitempty"`
	Available     bool      `gorm:"-" json:"available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Loan records a visitor borrowing one or two books.
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	VisitorID    uint       `gorm:"index;not null" json:"visitor_id"`
	BookID       uint       `gorm:"index;not null" json:"book_id"`
	SecondBookID *uint      `gorm:"index" json:"second_book_id,omitempty"`
	LoanDate     time.Time  `gorm:"not null" json:"loan_date"`
	DueDate      time.Time  `gorm:"index;not null" json:"due_date"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	Status       LoanStatus `gorm:"index;size:20;not null;default:'On Going'" json:"status"`
	Fine         int64      `gorm:"default:0" json:"fine"`
	HandledByID  *uint      `json:"handled_by_id,omitempty"`
	Visitor      *Visitor   `gorm:"foreignKey:VisitorID;constraint:OnDelete:RESTRICT" json:"visitor,omitempty"`
	Book         *Book      `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"book,omitempty"`
	SecondBook   *Book      `gorm:"foreignKey:SecondBookID;constraint:OnDelete:RESTRICT" json:"second_book,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BookIDs returns the IDs of every book held by the loan.
func (l Loan) BookIDs() []uint {
	ids := []uint{l.BookID}
	if l.SecondBookID != nil {
		ids = append(ids, *l.SecondBookID)
	}
	return ids
}

func (Genre) TableName() string {
	return "genres"
}

func (Book) TableName() string {
	return "books"
}

func (Loan) TableName() string {
	return "loans"
}
