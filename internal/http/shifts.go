package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/entities"
)

type ShiftsController struct {
	store ShiftStore
}

func NewShiftsController(store ShiftStore) *ShiftsController {
	return &ShiftsController{store: store}
}

// GET /api/shifts
func (sc *ShiftsController) ListShifts(c *gin.Context) {
	shifts, err := sc.store.List()
	if err != nil {
		respondInternalError(c, err, "list shifts")
		return
	}
	if shifts == nil {
		shifts = []entities.Shift{}
	}
	c.JSON(http.StatusOK, shifts)
}

// GET /api/shifts/:id
func (sc *ShiftsController) GetShift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	shift, err := sc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "shift", "get shift")
		return
	}
	c.JSON(http.StatusOK, shift)
}
