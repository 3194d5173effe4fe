package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/memberships"
	"github.com/mrlokans/librarium/internal/entities"
)

type MembershipsController struct {
	store   MembershipStore
	auditor Auditor
}

func NewMembershipsController(store MembershipStore, auditor Auditor) *MembershipsController {
	return &MembershipsController{store: store, auditor: auditor}
}

type applyRequest struct {
	FullName string `json:"full_name"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Reason   string `json:"reason"`
}

type reviewRequest struct {
	Note string `json:"note"`
}

// Apply files a membership application for the calling visitor
// POST /api/memberships
func (mc *MembershipsController) Apply(c *gin.Context) {
	var req applyRequest
	if !bindJSON(c, &req) ||
		!required(c, "full_name", &req.FullName) ||
		!required(c, "id_number", &req.IDNumber) ||
		!required(c, "phone", &req.Phone) {
		return
	}

	app := &entities.MembershipApplication{
		VisitorID: visitorID(c),
		FullName:  req.FullName,
		IDNumber:  req.IDNumber,
		Phone:     req.Phone,
		Address:   req.Address,
		Reason:    req.Reason,
	}
	err := mc.store.Apply(app)
	recordAudit(mc.auditor, c, audit.Entry{
		Type:       entities.AuditEventMembership,
		Action:     "membership_apply",
		EntityType: "membership_application",
		EntityID:   app.ID,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "visitor", "apply for membership")
		return
	}
	respondCreated(c, app)
}

// ListApplications returns applications for review
// GET /api/memberships?status=
func (mc *MembershipsController) ListApplications(c *gin.Context) {
	status := entities.MembershipStatus(c.Query("status"))
	switch status {
	case "", entities.MembershipStatusPending, entities.MembershipStatusVerified, entities.MembershipStatusRejected:
	default:
		respondBadRequest(c, "invalid status")
		return
	}
	mc.respondApplications(c, memberships.Filter{Status: status})
}

// MyApplications returns the calling visitor's applications
// GET /api/me/memberships
func (mc *MembershipsController) MyApplications(c *gin.Context) {
	mc.respondApplications(c, memberships.Filter{VisitorID: visitorID(c)})
}

func (mc *MembershipsController) respondApplications(c *gin.Context, filter memberships.Filter) {
	list, err := mc.store.List(filter)
	if err != nil {
		respondInternalError(c, err, "list memberships")
		return
	}
	if list == nil {
		list = []entities.MembershipApplication{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/memberships/:id
func (mc *MembershipsController) GetApplication(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	app, err := mc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "membership application", "get membership")
		return
	}
	c.JSON(http.StatusOK, app)
}

// Verify accepts a pending application and makes the visitor a member
// POST /api/memberships/:id/verify
func (mc *MembershipsController) Verify(c *gin.Context) {
	mc.review(c, "membership_verify", mc.store.Verify)
}

// Reject declines a pending application
// POST /api/memberships/:id/reject
func (mc *MembershipsController) Reject(c *gin.Context) {
	mc.review(c, "membership_reject", mc.store.Reject)
}

func (mc *MembershipsController) review(c *gin.Context, action string,
	apply func(id uint, reviewerID *uint, note string) (*entities.MembershipApplication, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	// the note is optional, so an empty body is fine
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	app, err := apply(id, handlerID(c), req.Note)
	recordAudit(mc.auditor, c, audit.Entry{
		Type:       entities.AuditEventMembership,
		Action:     action,
		EntityType: "membership_application",
		EntityID:   id,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "membership application", action)
		return
	}
	c.JSON(http.StatusOK, app)
}
