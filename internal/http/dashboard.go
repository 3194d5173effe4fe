package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	service DashboardService
}

func NewDashboardController(service DashboardService) *DashboardController {
	return &DashboardController{service: service}
}

// StaffDashboard summarises today's desk work
// GET /api/staff/dashboard
func (dc *DashboardController) StaffDashboard(c *gin.Context) {
	summary, err := dc.service.Staff(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "staff dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// OwnerDashboard reports totals and revenue
// GET /api/owner/dashboard
func (dc *DashboardController) OwnerDashboard(c *gin.Context) {
	summary, err := dc.service.Owner(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "owner dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}
