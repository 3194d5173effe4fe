package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/entities"
)

type SetupController struct {
	migrator Migrator
	auditor  Auditor
}

func NewSetupController(migrator Migrator, auditor Auditor) *SetupController {
	return &SetupController{migrator: migrator, auditor: auditor}
}

// Schema re-runs migrations and seeding. Safe to call repeatedly.
// POST /api/owner/setup/schema
func (sc *SetupController) Schema(c *gin.Context) {
	err := sc.migrator.Migrate()
	recordAudit(sc.auditor, c, audit.Entry{
		Type:   entities.AuditEventSetup,
		Action: "schema_migrate",
		Err:    err,
	})
	if err != nil {
		respondInternalError(c, err, "migrate schema")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "schema is up to date",
		"tables":  sc.migrator.Tables(),
	})
}
