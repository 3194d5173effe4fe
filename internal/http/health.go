package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck is one named check reported by GET /health. A nil Run is
// reported as "not configured" and does not fail the check.
type HealthCheck struct {
	Name string
	Run  func() error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	checks  []HealthCheck
	version string
	started time.Time
}

func NewHealthController(version string, checks ...HealthCheck) *HealthController {
	return &HealthController{
		checks:  checks,
		version: version,
		started: time.Now(),
	}
}

// databaseCheck pings the database, or reports it missing.
func databaseCheck(db Pinger) HealthCheck {
	if db == nil {
		return HealthCheck{Name: "database"}
	}
	return HealthCheck{Name: "database", Run: db.Ping}
}

// shiftsCheck fails until the shift table has been seeded, since no session
// or event can be booked without shifts.
func shiftsCheck(shifts ShiftStore) HealthCheck {
	if shifts == nil {
		return HealthCheck{Name: "shifts"}
	}
	return HealthCheck{Name: "shifts", Run: func() error {
		list, err := shifts.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("no shifts seeded")
		}
		return nil
	}}
}

// tasksCheck fails when the task queue is wired but its workers are not running.
func tasksCheck(queue TaskQueue) HealthCheck {
	runner, ok := queue.(interface{ Running() bool })
	if !ok {
		return HealthCheck{Name: "tasks"}
	}
	return HealthCheck{Name: "tasks", Run: func() error {
		if !runner.Running() {
			return errors.New("workers stopped")
		}
		return nil
	}}
}

func (h *HealthController) Status(c *gin.Context) {
	now := time.Now()
	resp := HealthResponse{
		Status:  "healthy",
		Time:    now.Format(time.RFC3339),
		Uptime:  now.Sub(h.started).Truncate(time.Second).String(),
		Version: h.version,
		Checks:  make(map[string]string, len(h.checks)),
	}

	for _, check := range h.checks {
		if check.Run == nil {
			resp.Checks[check.Name] = "not configured"
			continue
		}
		if err := check.Run(); err != nil {
			resp.Checks[check.Name] = "error: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}
