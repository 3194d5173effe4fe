package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/entities"
)

const dateLayout = "2006-01-02"

type LoansController struct {
	store   LoanStore
	auditor Auditor
	now     func() time.Time
}

func NewLoansController(store LoanStore, auditor Auditor) *LoansController {
	return &LoansController{
		store:   store,
		auditor: auditor,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type createLoanRequest struct {
	VisitorID uint   `json:"visitor_id" binding:"required"`
	BookIDs   []uint `json:"book_ids"`
	LoanDate  string `json:"loan_date"` // YYYY-MM-DD, defaults to today
	DueDate   string `json:"due_date"`  // YYYY-MM-DD, defaults to loan date + policy duration
}

// parseOptionalDate parses a YYYY-MM-DD field. Empty yields the zero time.
func parseOptionalDate(c *gin.Context, field, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		respondBadRequest(c, field+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return t, true
}

// CreateLoan lends one or more books to a visitor
// POST /api/loans
func (lc *LoansController) CreateLoan(c *gin.Context) {
	var req createLoanRequest
	if !bindJSON(c, &req) {
		return
	}
	loanDate, ok := parseOptionalDate(c, "loan_date", req.LoanDate)
	if !ok {
		return
	}
	dueDate, ok := parseOptionalDate(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	loan, err := lc.store.Create(loans.CreateRequest{
		VisitorID:   req.VisitorID,
		BookIDs:     req.BookIDs,
		LoanDate:    loanDate,
		DueDate:     dueDate,
		HandledByID: handlerID(c),
	})
	recordAudit(lc.auditor, c, audit.Entry{
		Type:        entities.AuditEventLoan,
		Action:      "loan_create",
		Description: fmt.Sprintf("Loan of %d book(s) to visitor #%d", len(req.BookIDs), req.VisitorID),
		EntityType:  "loan",
		EntityID:    loanID(loan),
		Metadata:    map[string]any{"book_ids": req.BookIDs},
		Err:         err,
	})
	if err != nil {
		respondDomainError(c, err, "visitor or book", "create loan")
		return
	}
	respondCreated(c, loan)
}

func loanID(loan *entities.Loan) uint {
	if loan == nil {
		return 0
	}
	return loan.ID
}

// ListLoans returns loans filtered by status and visitor
// GET /api/loans?status=&visitor_id=
func (lc *LoansController) ListLoans(c *gin.Context) {
	visitor, ok := optionalQueryID(c, "visitor_id")
	if !ok {
		return
	}
	status := entities.LoanStatus(c.Query("status"))
	switch status {
	case "", entities.LoanStatusOnGoing, entities.LoanStatusOverdue, entities.LoanStatusReturned:
	default:
		respondBadRequest(c, "invalid status")
		return
	}
	lc.respondLoans(c, loans.Filter{Status: status, VisitorID: visitor})
}

// MyLoans returns the calling visitor's loans
// GET /api/me/loans
func (lc *LoansController) MyLoans(c *gin.Context) {
	lc.respondLoans(c, loans.Filter{
		Status:    entities.LoanStatus(c.Query("status")),
		VisitorID: visitorID(c),
	})
}

func (lc *LoansController) respondLoans(c *gin.Context, filter loans.Filter) {
	list, err := lc.store.List(filter)
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	if list == nil {
		list = []entities.Loan{}
	}
	c.JSON(http.StatusOK, list)
}

// GetLoan returns a single loan
// GET /api/loans/:id
func (lc *LoansController) GetLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "loan", "get loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// ReturnLoan closes an active loan and computes its fine
// POST /api/loans/:id/return
func (lc *LoansController) ReturnLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.store.Return(id, lc.now(), handlerID(c))
	entry := audit.Entry{
		Type:       entities.AuditEventLoan,
		Action:     "loan_return",
		EntityType: "loan",
		EntityID:   id,
		Err:        err,
	}
	if loan != nil && loan.Fine > 0 {
		entry.Metadata = map[string]any{"fine": loan.Fine}
	}
	recordAudit(lc.auditor, c, entry)
	if err != nil {
		respondDomainError(c, err, "loan", "return loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// ExtendLoan pushes the due date of an on-going loan by one loan period
// POST /api/loans/:id/extend
func (lc *LoansController) ExtendLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.store.Extend(id)
	recordAudit(lc.auditor, c, audit.Entry{
		Type:       entities.AuditEventLoan,
		Action:     "loan_extend",
		EntityType: "loan",
		EntityID:   id,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "loan", "extend loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// LoanPolicy reports the lending rules
// GET /api/loans/policy
func (lc *LoansController) LoanPolicy(c *gin.Context) {
	policy := lc.store.Policy()
	c.JSON(http.StatusOK, gin.H{
		"duration_days": policy.DurationDays,
		"max_books":     policy.MaxBooks,
		"fine_per_day":  policy.FinePerDay,
	})
}
