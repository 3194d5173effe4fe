package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/entities"
)

// groupRequest is the solo/group part shared by session and event bookings.
type groupRequest struct {
	IsGroup bool     `json:"is_group"`
	Members []string `json:"members"`
}

// slots validates the member list. A group needs between one and
// entities.MaxGroupMembers named members.
func (g groupRequest) slots(c *gin.Context) (entities.GroupSlots, bool) {
	if !g.IsGroup {
		return entities.NewGroupSlots(false, nil), true
	}
	var members []string
	for _, m := range g.Members {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		respondBadRequest(c, "a group booking needs at least one member")
		return entities.GroupSlots{}, false
	}
	if len(members) > entities.MaxGroupMembers {
		respondBadRequest(c, "a group booking can name at most "+strconv.Itoa(entities.MaxGroupMembers)+" members")
		return entities.GroupSlots{}, false
	}
	return entities.NewGroupSlots(true, members), true
}

// parseSlotsQuery reads the requested slot count, defaulting to one.
func parseSlotsQuery(c *gin.Context) (int, bool) {
	raw := c.Query("slots")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > entities.MaxGroupMembers {
		respondBadRequest(c, "slots must be between 1 and "+strconv.Itoa(entities.MaxGroupMembers))
		return 0, false
	}
	return n, true
}

// parseBookingDate checks a YYYY-MM-DD date that must not lie before today.
func parseBookingDate(c *gin.Context, value string, today time.Time) (string, bool) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		respondBadRequest(c, "date must be in YYYY-MM-DD format")
		return "", false
	}
	if d.Before(today) {
		respondBadRequest(c, "date must not be in the past")
		return "", false
	}
	return d.Format(dateLayout), true
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
