package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database/users"
	"github.com/mrlokans/librarium/internal/entities"
)

type VisitorsController struct {
	store VisitorStore
}

func NewVisitorsController(store VisitorStore) *VisitorsController {
	return &VisitorsController{store: store}
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

// ListVisitors searches visitors by name or phone
// GET /api/visitors?q=&members=true&limit=&offset=
func (vc *VisitorsController) ListVisitors(c *gin.Context) {
	limit, offset := parsePagination(c)
	list, total, err := vc.store.ListVisitors(c.Query("q"), c.Query("members") == "true", limit, offset)
	if err != nil {
		respondInternalError(c, err, "list visitors")
		return
	}
	if list == nil {
		list = []entities.Visitor{}
	}
	respondPage(c, list, total, limit, offset)
}

// GET /api/visitors/:id
func (vc *VisitorsController) GetVisitor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	visitor, err := vc.store.GetVisitorByID(id)
	if err != nil {
		respondDomainError(c, err, "visitor", "get visitor")
		return
	}
	c.JSON(http.StatusOK, visitor)
}

// MyProfile returns the calling visitor's profile
// GET /api/me/profile
func (vc *VisitorsController) MyProfile(c *gin.Context) {
	visitor, err := vc.store.GetVisitorByID(visitorID(c))
	if err != nil {
		respondDomainError(c, err, "visitor", "get profile")
		return
	}
	c.JSON(http.StatusOK, visitor)
}

// UpdateMyProfile edits the calling visitor's contact details
// PUT /api/me/profile
func (vc *VisitorsController) UpdateMyProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.FullName != nil && !required(c, "full_name", req.FullName) {
		return
	}
	visitor, err := vc.store.UpdateVisitor(visitorID(c), users.VisitorUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondDomainError(c, err, "visitor", "update profile")
		return
	}
	c.JSON(http.StatusOK, visitor)
}
