package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/auth"
)

// Auditor records mutations. *audit.Service implements it.
type Auditor interface {
	Record(e audit.Entry)
}

// recordAudit fills in the caller and client address and hands the entry to a.
// A nil auditor records nothing.
func recordAudit(a Auditor, c *gin.Context, e audit.Entry) {
	if a == nil {
		return
	}
	if e.UserID == 0 {
		e.UserID = auth.GetUserID(c)
	}
	e.IPAddress = c.ClientIP()
	a.Record(e)
}
