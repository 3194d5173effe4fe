package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/events"
	"github.com/mrlokans/librarium/internal/entities"
)

type EventsController struct {
	store   EventStore
	checker AvailabilityChecker
	auditor Auditor
	now     func() time.Time
}

func NewEventsController(store EventStore, checker AvailabilityChecker, auditor Auditor) *EventsController {
	return &EventsController{
		store:   store,
		checker: checker,
		auditor: auditor,
		now:     time.Now,
	}
}

type eventRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Date        string               `json:"date"`
	ShiftID     uint                 `json:"shift_id"`
	MaxCapacity int                  `json:"max_capacity"`
	Price       int64                `json:"price"`
	Status      entities.EventStatus `json:"status"`
}

func validEventStatus(s entities.EventStatus) bool {
	switch s {
	case entities.EventStatusOpen, entities.EventStatusClosed, entities.EventStatusCanceled:
		return true
	}
	return false
}

func bindEvent(c *gin.Context) (entities.Event, bool) {
	var req eventRequest
	if !bindJSON(c, &req) || !required(c, "title", &req.Title) {
		return entities.Event{}, false
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		respondBadRequest(c, "date must be in YYYY-MM-DD format")
		return entities.Event{}, false
	}
	if req.ShiftID == 0 {
		respondBadRequest(c, "shift_id is required")
		return entities.Event{}, false
	}
	if req.MaxCapacity < 1 {
		respondBadRequest(c, "max_capacity must be at least 1")
		return entities.Event{}, false
	}
	if req.Price < 0 {
		respondBadRequest(c, "price must not be negative")
		return entities.Event{}, false
	}
	if req.Status != "" && !validEventStatus(req.Status) {
		respondBadRequest(c, "status must be one of open, closed, canceled")
		return entities.Event{}, false
	}
	return entities.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		ShiftID:     req.ShiftID,
		MaxCapacity: req.MaxCapacity,
		Price:       req.Price,
		Status:      req.Status,
	}, true
}

// ListEvents returns events. Anonymous callers and visitors only see open
// events from today on; staff may filter by any status.
// GET /api/events?status=
func (ec *EventsController) ListEvents(c *gin.Context) {
	filter := events.Filter{
		Status: entities.EventStatusOpen,
		From:   today(ec.now()).Format(dateLayout),
	}
	if isStaffOrOwner(c) {
		filter = events.Filter{Status: entities.EventStatus(c.Query("status"))}
	}
	list, err := ec.store.List(filter)
	if err != nil {
		respondInternalError(c, err, "list events")
		return
	}
	if list == nil {
		list = []entities.Event{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/events/:id
func (ec *EventsController) GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	event, err := ec.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "event", "get event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// Availability reports the remaining capacity of an event
// GET /api/events/:id/availability?slots=
func (ec *EventsController) Availability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	slots, ok := parseSlotsQuery(c)
	if !ok {
		return
	}
	result, err := ec.checker.CheckEvent(id, slots)
	if err != nil {
		respondDomainError(c, err, "event", "event availability")
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/events
func (ec *EventsController) CreateEvent(c *gin.Context) {
	event, ok := bindEvent(c)
	if !ok {
		return
	}
	if err := ec.store.Create(&event); err != nil {
		respondDomainError(c, err, "event", "create event")
		return
	}
	recordAudit(ec.auditor, c, audit.Entry{
		Type:        entities.AuditEventBooking,
		Action:      "event_create",
		Description: fmt.Sprintf("Event %q on %s", event.Title, event.Date),
		EntityType:  "event",
		EntityID:    event.ID,
	})
	respondCreated(c, event)
}

// PUT /api/events/:id
func (ec *EventsController) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	upd, ok := bindEvent(c)
	if !ok {
		return
	}
	event, err := ec.store.Update(id, upd)
	if err != nil {
		respondDomainError(c, err, "event", "update event")
		return
	}
	recordAudit(ec.auditor, c, audit.Entry{
		Type:       entities.AuditEventBooking,
		Action:     "event_update",
		EntityType: "event",
		EntityID:   id,
	})
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes an event without active bookings
// DELETE /api/events/:id
func (ec *EventsController) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ec.store.Delete(id); err != nil {
		respondDomainError(c, err, "event", "delete event")
		return
	}
	recordAudit(ec.auditor, c, audit.Entry{
		Type:       entities.AuditEventBooking,
		Action:     "event_delete",
		EntityType: "event",
		EntityID:   id,
	})
	respondSuccess(c, "event deleted")
}

// BookEvent reserves places at an event for the calling visitor. Paid events
// stay Pending Payment until checkout completes.
// POST /api/events/:id/bookings
func (ec *EventsController) BookEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req groupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, ok := req.slots(c)
	if !ok {
		return
	}

	booking := &entities.EventBooking{
		EventID:    id,
		VisitorID:  visitorID(c),
		GroupSlots: group,
	}
	_, err := ec.store.Book(booking)
	recordAudit(ec.auditor, c, audit.Entry{
		Type:       entities.AuditEventBooking,
		Action:     "event_book",
		EntityType: "event_booking",
		EntityID:   booking.ID,
		Metadata:   map[string]any{"event_id": id},
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "event", "book event")
		return
	}
	respondCreated(c, booking)
}

// ListBookings returns the bookings of one event
// GET /api/events/:id/bookings?status=
func (ec *EventsController) ListBookings(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ec.respondBookings(c, events.BookingFilter{
		EventID: id,
		Status:  entities.BookingStatus(c.Query("status")),
	})
}

// MyBookings returns the calling visitor's event bookings
// GET /api/me/event-bookings
func (ec *EventsController) MyBookings(c *gin.Context) {
	ec.respondBookings(c, events.BookingFilter{VisitorID: visitorID(c)})
}

func (ec *EventsController) respondBookings(c *gin.Context, filter events.BookingFilter) {
	list, err := ec.store.ListBookings(filter)
	if err != nil {
		respondInternalError(c, err, "list event bookings")
		return
	}
	if list == nil {
		list = []entities.EventBooking{}
	}
	c.JSON(http.StatusOK, list)
}

// CancelBooking releases an event booking. Visitors may cancel their own.
// POST /api/event-bookings/:id/cancel
func (ec *EventsController) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := ec.store.GetBooking(id)
	if err != nil {
		respondDomainError(c, err, "event booking", "get event booking")
		return
	}
	if !canAccessVisitorRecord(c, booking.VisitorID) {
		respondNotFound(c, "event booking")
		return
	}

	updated, err := ec.store.CancelBooking(id)
	recordAudit(ec.auditor, c, audit.Entry{
		Type:       entities.AuditEventBooking,
		Action:     "event_booking_cancel",
		EntityType: "event_booking",
		EntityID:   id,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "event booking", "cancel event booking")
		return
	}
	c.JSON(http.StatusOK, updated)
}
