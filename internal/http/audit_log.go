package http

import (
	"time"

	"github.com/gin-gonic/gin"

	auditRepo "github.com/mrlokans/librarium/internal/database/audit"
	"github.com/mrlokans/librarium/internal/entities"
)

type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

// ListEvents pages through the audit log, newest first
// GET /api/owner/audit?type=&user_id=&since=&limit=&offset=
func (ac *AuditController) ListEvents(c *gin.Context) {
	userID, ok := optionalQueryID(c, "user_id")
	if !ok {
		return
	}
	filter := auditRepo.Filter{
		UserID:    userID,
		EventType: entities.AuditEventType(c.Query("type")),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(dateLayout, since)
		if err != nil {
			respondBadRequest(c, "since must be in YYYY-MM-DD format")
			return
		}
		filter.Since = t
	}

	limit, offset := parsePagination(c)
	events, total, err := ac.reader.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	respondPage(c, events, total, limit, offset)
}
