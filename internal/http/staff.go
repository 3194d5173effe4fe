package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/database/staff"
	"github.com/mrlokans/librarium/internal/entities"
)

// AccountService creates and removes login accounts together with their role rows.
type AccountService interface {
	CreateAccount(username, email, password string, role entities.Role, p auth.Profile) (*auth.Identity, error)
	DeleteAccount(userID uint) error
}

type StaffController struct {
	store    StaffStore
	accounts AccountService
	auditor  Auditor
}

func NewStaffController(store StaffStore, accounts AccountService, auditor Auditor) *StaffController {
	return &StaffController{store: store, accounts: accounts, auditor: auditor}
}

type createStaffRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
}

type updateStaffRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Position *string `json:"position"`
	Active   *bool   `json:"active"`
}

// ListStaff returns staff members
// GET /api/owner/staff?active=true
func (sc *StaffController) ListStaff(c *gin.Context) {
	list, err := sc.store.List(c.Query("active") == "true")
	if err != nil {
		respondInternalError(c, err, "list staff")
		return
	}
	if list == nil {
		list = []entities.Staff{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/owner/staff/:id
func (sc *StaffController) GetStaff(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, err := sc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "staff member", "get staff")
		return
	}
	c.JSON(http.StatusOK, member)
}

// CreateStaff creates a login account with a staff profile
// POST /api/owner/staff
func (sc *StaffController) CreateStaff(c *gin.Context) {
	var req createStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, err := sc.accounts.CreateAccount(req.Username, req.Email, req.Password, entities.RoleStaff, auth.Profile{
		FullName: req.FullName,
		Phone:    req.Phone,
		Position: req.Position,
	})
	entry := audit.Entry{
		Type:        entities.AuditEventStaff,
		Action:      "staff_create",
		Description: "Created staff account " + req.Username,
		EntityType:  "staff",
		Err:         err,
	}
	if identity != nil {
		entry.EntityID = identity.ProfileID
	}
	recordAudit(sc.auditor, c, entry)

	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUserExists):
		respondConflict(c, "username or email is already taken", nil)
		return
	case auth.IsValidationError(err):
		respondBadRequest(c, err.Error())
		return
	default:
		respondInternalError(c, err, "create staff")
		return
	}

	member, err := sc.store.GetByID(identity.ProfileID)
	if err != nil {
		respondInternalError(c, err, "load created staff")
		return
	}
	respondCreated(c, member)
}

// UpdateStaff edits a staff profile or toggles whether it may act
// PUT /api/owner/staff/:id
func (sc *StaffController) UpdateStaff(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.FullName != nil && !required(c, "full_name", req.FullName) {
		return
	}

	member, err := sc.store.Update(id, staff.Update{
		FullName: req.FullName,
		Phone:    req.Phone,
		Position: req.Position,
		Active:   req.Active,
	})
	recordAudit(sc.auditor, c, audit.Entry{
		Type:       entities.AuditEventStaff,
		Action:     "staff_update",
		EntityType: "staff",
		EntityID:   id,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "staff member", "update staff")
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteStaff removes the staff profile together with its login account
// DELETE /api/owner/staff/:id
func (sc *StaffController) DeleteStaff(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, err := sc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "staff member", "get staff")
		return
	}

	err = sc.accounts.DeleteAccount(member.UserID)
	recordAudit(sc.auditor, c, audit.Entry{
		Type:        entities.AuditEventStaff,
		Action:      "staff_delete",
		Description: "Removed staff account of " + member.FullName,
		EntityType:  "staff",
		EntityID:    id,
		Err:         err,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondNotFound(c, "staff member")
			return
		}
		respondInternalError(c, err, "delete staff")
		return
	}
	respondSuccess(c, "staff member deleted")
}
