package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/sessions"
	"github.com/mrlokans/librarium/internal/entities"
)

type SessionsController struct {
	store   SessionStore
	checker AvailabilityChecker
	auditor Auditor
	now     func() time.Time
}

func NewSessionsController(store SessionStore, checker AvailabilityChecker, auditor Auditor) *SessionsController {
	return &SessionsController{
		store:   store,
		checker: checker,
		auditor: auditor,
		now:     time.Now,
	}
}

type createSessionRequest struct {
	Date    string `json:"date" binding:"required"`
	ShiftID uint   `json:"shift_id" binding:"required"`
	Purpose string `json:"purpose"`
	groupRequest
}

// Availability reports whether a shift can take more people on a date
// GET /api/sessions/availability?date=&shift_id=&slots=
func (sc *SessionsController) Availability(c *gin.Context) {
	if _, err := time.Parse(dateLayout, c.Query("date")); err != nil {
		respondBadRequest(c, "date must be in YYYY-MM-DD format")
		return
	}
	shiftID, ok := parseQueryID(c, "shift_id")
	if !ok {
		return
	}
	slots, ok := parseSlotsQuery(c)
	if !ok {
		return
	}

	result, err := sc.checker.CheckSession(c.Query("date"), shiftID, slots)
	if err != nil {
		respondInternalError(c, err, "session availability")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateSession books a shift for the calling visitor
// POST /api/sessions
func (sc *SessionsController) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	date, ok := parseBookingDate(c, req.Date, today(sc.now()))
	if !ok {
		return
	}
	group, ok := req.slots(c)
	if !ok {
		return
	}

	booking := &entities.SessionBooking{
		VisitorID:  visitorID(c),
		Date:       date,
		ShiftID:    req.ShiftID,
		GroupSlots: group,
		Purpose:    req.Purpose,
	}
	_, err := sc.store.Create(booking, sc.checker.SessionCapacity())
	recordAudit(sc.auditor, c, audit.Entry{
		Type:        entities.AuditEventBooking,
		Action:      "session_book",
		Description: fmt.Sprintf("Session on %s, shift #%d", date, req.ShiftID),
		EntityType:  "session_booking",
		EntityID:    booking.ID,
		Err:         err,
	})
	if err != nil {
		respondDomainError(c, err, "shift", "create session")
		return
	}
	respondCreated(c, booking)
}

// ListSessions returns bookings for staff
// GET /api/sessions?date=&shift_id=&status=&visitor_id=
func (sc *SessionsController) ListSessions(c *gin.Context) {
	shiftID, ok := optionalQueryID(c, "shift_id")
	if !ok {
		return
	}
	visitor, ok := optionalQueryID(c, "visitor_id")
	if !ok {
		return
	}
	sc.respondSessions(c, sessions.Filter{
		Date:      c.Query("date"),
		ShiftID:   shiftID,
		VisitorID: visitor,
		Status:    entities.BookingStatus(c.Query("status")),
	})
}

// MySessions returns the calling visitor's bookings
// GET /api/me/sessions
func (sc *SessionsController) MySessions(c *gin.Context) {
	sc.respondSessions(c, sessions.Filter{
		VisitorID: visitorID(c),
		Status:    entities.BookingStatus(c.Query("status")),
	})
}

func (sc *SessionsController) respondSessions(c *gin.Context, filter sessions.Filter) {
	list, err := sc.store.List(filter)
	if err != nil {
		respondInternalError(c, err, "list sessions")
		return
	}
	if list == nil {
		list = []entities.SessionBooking{}
	}
	c.JSON(http.StatusOK, list)
}

// load fetches a booking the caller may see. Visitors only see their own;
// anyone else's booking answers 404.
func (sc *SessionsController) load(c *gin.Context) (*entities.SessionBooking, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	booking, err := sc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "session booking", "get session")
		return nil, false
	}
	if !canAccessVisitorRecord(c, booking.VisitorID) {
		respondNotFound(c, "session booking")
		return nil, false
	}
	return booking, true
}

// GET /api/sessions/:id
func (sc *SessionsController) GetSession(c *gin.Context) {
	booking, ok := sc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelSession releases a booking. Visitors may cancel their own.
// POST /api/sessions/:id/cancel
func (sc *SessionsController) CancelSession(c *gin.Context) {
	booking, ok := sc.load(c)
	if !ok {
		return
	}
	updated, err := sc.store.Cancel(booking.ID)
	recordAudit(sc.auditor, c, audit.Entry{
		Type:       entities.AuditEventBooking,
		Action:     "session_cancel",
		EntityType: "session_booking",
		EntityID:   booking.ID,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "session booking", "cancel session")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AttendSession marks a booking as attended
// POST /api/sessions/:id/attend
func (sc *SessionsController) AttendSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	updated, err := sc.store.MarkAttended(id)
	recordAudit(sc.auditor, c, audit.Entry{
		Type:       entities.AuditEventBooking,
		Action:     "session_attend",
		EntityType: "session_booking",
		EntityID:   id,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "session booking", "attend session")
		return
	}
	c.JSON(http.StatusOK, updated)
}
